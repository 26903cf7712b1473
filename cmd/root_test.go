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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"tryffel.net/go/tunedeck/models"
)

type playingRecorder struct {
	calls []bool
}

func (p *playingRecorder) SetPlaying(playing bool) {
	p.calls = append(p.calls, playing)
}

func TestPlaybackWatcher_IgnoresTrackSwitch(t *testing.T) {
	bg := &playingRecorder{}
	watch := playbackWatcher(bg)

	watch(models.AudioStatus{State: models.StatePlaying, Action: models.AudioActionPlay})
	// natural end and slow load of next track
	watch(models.AudioStatus{State: models.StateEnded, Action: models.AudioActionEnded})
	watch(models.AudioStatus{State: models.StateLoading, Action: models.AudioActionNext})
	watch(models.AudioStatus{State: models.StatePlaying, Action: models.AudioActionNext})
	watch(models.AudioStatus{State: models.StatePlaying, Action: models.AudioActionTimeUpdate})

	assert.Equal(t, []bool{true, true}, bg.calls)
}

func TestPlaybackWatcher_PauseAndStop(t *testing.T) {
	bg := &playingRecorder{}
	watch := playbackWatcher(bg)

	watch(models.AudioStatus{State: models.StatePlaying, Action: models.AudioActionPlay})
	watch(models.AudioStatus{State: models.StatePaused, Action: models.AudioActionPlayPause})
	watch(models.AudioStatus{State: models.StatePlaying, Action: models.AudioActionPlayPause})
	watch(models.AudioStatus{State: models.StateIdle, Action: models.AudioActionStop})

	assert.Equal(t, []bool{true, false, true, false}, bg.calls)
}
