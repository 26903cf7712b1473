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
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tryffel.net/go/tunedeck/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	file := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestParseManifest(t *testing.T) {
	data := `[
		"http://host/music/First%20Song.mp3",
		{"src": "https://host/b.ogg", "name": "B", "artist": "ZUN", "image": "https://host/b.jpg", "bg_tag": "reimu"},
		{"title": "no locator"},
		{"url": "  ", "path": "https://host/c.flac"},
		42
	]`

	tracks, err := ParseManifest([]byte(data), "http://host/data/tracks.json")
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	assert.Equal(t, "http://host/music/First%20Song.mp3", tracks[0].File)
	assert.Equal(t, "First Song", tracks[0].Title)

	assert.Equal(t, &models.Track{
		File:          "https://host/b.ogg",
		Title:         "B",
		Artist:        "ZUN",
		Cover:         "https://host/b.jpg",
		BackgroundTag: "reimu",
	}, tracks[1])

	assert.Equal(t, "https://host/c.flac", tracks[2].File)
	assert.Equal(t, "c", tracks[2].Title)
}

func TestParseManifest_Wrapped(t *testing.T) {
	data := `{"tracks": [{"file": "music/a.mp3", "bgTag": "cirno"}]}`
	tracks, err := ParseManifest([]byte(data), "https://host/data/tracks.json")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "https://host/data/music/a.mp3", tracks[0].File)
	assert.Equal(t, "cirno", tracks[0].BackgroundTag)
}

func TestParseManifest_Invalid(t *testing.T) {
	_, err := ParseManifest([]byte(`{"foo": 1}`), "tracks.json")
	assert.Error(t, err)

	_, err = ParseManifest([]byte(`not json`), "tracks.json")
	assert.Error(t, err)

	tracks, err := ParseManifest([]byte(`[]`), "tracks.json")
	assert.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestParseManifest_LocalRelative(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "data/tracks.json", `["song.mp3", "/abs/other.mp3"]`)
	data, err := os.ReadFile(manifest)
	require.NoError(t, err)

	tracks, err := ParseManifest(data, manifest)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, filepath.Join(dir, "data", "song.mp3"), tracks[0].File)
	assert.Equal(t, filepath.Clean("/abs/other.mp3"), tracks[1].File)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "tracks.json", `[{"file": "music/a.mp3"}, {"file": "music/b.mp3", "bgTag": "own"}]`)
	tags := writeFile(t, dir, "tags.json", `{"music/a.mp3": "marisa", "music/b.mp3": {"tag": "sakuya"}}`)

	loader := NewLoader(nil)
	lib := loader.Load(context.Background(),
		[]string{filepath.Join(dir, "missing.json"), manifest},
		[]string{filepath.Join(dir, "missing-tags.json"), tags})

	assert.Equal(t, manifest, lib.Source)
	require.Len(t, lib.Tracks, 2)
	assert.Equal(t, "marisa", lib.Tracks[0].BackgroundTag)
	assert.Equal(t, "sakuya", lib.Tracks[1].BackgroundTag)
	assert.Len(t, lib.Tags, 2)
}

func TestLoader_LoadNothing(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "tracks.json", `{`)

	lib := NewLoader(nil).Load(context.Background(), []string{broken, filepath.Join(dir, "nope.json")}, nil)
	assert.NotNil(t, lib)
	assert.Empty(t, lib.Tracks)
	assert.Empty(t, lib.Source)
	assert.NotNil(t, lib.Tags)
}

func TestLoader_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/assets/data/tracks.json":
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			w.Write([]byte(`["../music/x.mp3"]`))
		case "/list.m3u":
			w.Write([]byte("#EXTM3U\n#EXTINF:120,Remote Title\nsong.mp3\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(server.Client())
	lib := loader.Load(context.Background(),
		[]string{server.URL + "/missing.json", server.URL + "/assets/data/tracks.json"}, nil)
	require.Len(t, lib.Tracks, 1)
	assert.Equal(t, server.URL+"/assets/music/x.mp3", lib.Tracks[0].File)

	tracks, err := loader.LoadTracks(context.Background(), server.URL+"/list.m3u")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, server.URL+"/song.mp3", tracks[0].File)
	assert.Equal(t, "Remote Title", tracks[0].Title)
}

func TestLoadTracks_M3U(t *testing.T) {
	dir := t.TempDir()
	content := "\uFEFF#EXTM3U\n\n#EXTINF:-1,First\nsong1.mp3\n#comment\n\"https://example.com/stream.mp3\"\nsub/song2.wav\n"
	playlist := writeFile(t, dir, "list.m3u", content)

	tracks, err := NewLoader(nil).LoadTracks(context.Background(), playlist)
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.Equal(t, filepath.Join(dir, "song1.mp3"), tracks[0].File)
	assert.Equal(t, "First", tracks[0].Title)
	assert.Equal(t, "https://example.com/stream.mp3", tracks[1].File)
	assert.Equal(t, "stream", tracks[1].Title)
	assert.Equal(t, filepath.Join(dir, "sub", "song2.wav"), tracks[2].File)
	assert.Equal(t, "song2", tracks[2].Title)
}

func TestLoadTracks_PLS(t *testing.T) {
	dir := t.TempDir()
	content := "[playlist]\n file1 = one.flac \nTitle1=One\nLength1=120\nFile2=https://example.com/live.ogg\nFileX=bad.mp3\nFile3=\n"
	playlist := writeFile(t, dir, "list.pls", content)

	tracks, err := NewLoader(nil).LoadTracks(context.Background(), playlist)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, filepath.Join(dir, "one.flac"), tracks[0].File)
	assert.Equal(t, "One", tracks[0].Title)
	assert.Equal(t, "https://example.com/live.ogg", tracks[1].File)
}
