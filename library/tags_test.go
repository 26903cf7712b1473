/*
 * Tunedeck is a headless music player with rotating backgrounds.
 * Copyright (C) 2020 Tero Vierimaa
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tryffel.net/go/tunedeck/models"
)

func TestParseTagMap(t *testing.T) {
	tags, err := ParseTagMap([]byte(`{"a.mp3": "reimu", "b.mp3": {"bgTag": "cirno"}, "c.mp3": "", " ": "x", "d.mp3": 3}`))
	require.NoError(t, err)
	assert.Equal(t, TagMap{"a.mp3": "reimu", "b.mp3": "cirno"}, tags)

	_, err = ParseTagMap([]byte(`["a"]`))
	assert.Error(t, err)
}

func TestTagMap_Lookup(t *testing.T) {
	tags := TagMap{
		"assets/music/Bad Apple.mp3":   "exact",
		"assets/music/Night%20Bird.mp3": "escaped",
		"music/":                        "short",
		"music/touhou/":                 "long",
	}

	tag, ok := tags.Lookup("assets/music/Bad Apple.mp3")
	assert.True(t, ok)
	assert.Equal(t, "exact", tag)

	tag, ok = tags.Lookup("assets/music/Night Bird.mp3")
	assert.True(t, ok)
	assert.Equal(t, "escaped", tag)

	tag, ok = tags.Lookup("/srv/music/touhou/01.mp3")
	assert.True(t, ok)
	assert.Equal(t, "long", tag)

	tag, ok = tags.Lookup("/srv/music/02.mp3")
	assert.True(t, ok)
	assert.Equal(t, "short", tag)

	_, ok = tags.Lookup("/srv/other/03.mp3")
	assert.False(t, ok)

	_, ok = TagMap{}.Lookup("a.mp3")
	assert.False(t, ok)
}

func TestTagMap_Annotate(t *testing.T) {
	tracks := []*models.Track{
		{File: "/srv/assets/music/a.mp3", BackgroundTag: "manifest"},
		{File: "/srv/other/b.mp3", BackgroundTag: "kept"},
		nil,
	}
	n := TagMap{"music/a.mp3": "mapped"}.Annotate(tracks)
	assert.Equal(t, 1, n)
	assert.Equal(t, "mapped", tracks[0].BackgroundTag)
	assert.Equal(t, "kept", tracks[1].BackgroundTag)
}
