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

package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tryffel.net/go/tunedeck/models"
)

func TestPlayer_NextStopsAtEnd(t *testing.T) {
	p, output, opener := newTestPlayer(t, orderedSettings(), "A", "B", "C")

	p.PlayCurrent()
	status := p.Status()
	assert.Equal(t, models.StatePlaying, status.State)
	assert.Equal(t, "A", status.Track.File)
	// next track is warmed after start
	assert.Equal(t, 1, opener.count("B"))

	p.Next()
	p.Next()
	assert.Equal(t, "C", p.CurrentTrack().File)
	assert.Equal(t, models.StatePlaying, p.Status().State)

	p.Next()
	status = p.Status()
	assert.Equal(t, models.StateIdle, status.State)
	assert.Equal(t, "C", status.Track.File)
	assert.Equal(t, 2, status.QueuePosition)

	assert.Equal(t, []string{"A", "B", "C"}, output.played())
	// B and C were played from standby slot
	assert.Equal(t, 1, opener.count("B"))
	assert.Equal(t, 1, opener.count("C"))
}

func TestPlayer_NextWrapsWithRepeat(t *testing.T) {
	settings := orderedSettings()
	settings.Repeat = models.RepeatAll
	p, output, _ := newTestPlayer(t, settings, "A", "B")

	p.PlayCurrent()
	p.Next()
	p.Next()
	assert.Equal(t, []string{"A", "B", "A"}, output.played())

	p.SetRepeat(models.RepeatOne)
	p.Next()
	assert.Equal(t, "B", p.CurrentTrack().File)

	p.Previous()
	p.Previous()
	assert.Equal(t, "B", p.CurrentTrack().File)
}

func TestPlayer_RepeatOneRestartsTrack(t *testing.T) {
	settings := orderedSettings()
	settings.Repeat = models.RepeatOne
	p, output, opener := newTestPlayer(t, settings, "A", "B", "C")

	require.True(t, p.SelectTrack(1))
	output.end(t)

	status := p.Status()
	assert.Equal(t, models.StatePlaying, status.State)
	assert.Equal(t, "B", status.Track.File)
	assert.Equal(t, time.Duration(0), status.Position)
	assert.Equal(t, []string{"B", "B"}, output.played())
	assert.Equal(t, 1, opener.count("B"))
}

func TestPlayer_RepeatOneReloadsUnseekable(t *testing.T) {
	settings := orderedSettings()
	settings.Repeat = models.RepeatOne
	p, output, opener := newTestPlayer(t, settings, "A", "B")
	opener.seekErr = errors.New("not seekable")

	p.PlayCurrent()
	output.end(t)

	assert.Equal(t, models.StatePlaying, p.Status().State)
	assert.Equal(t, []string{"A", "A"}, output.played())
	assert.Equal(t, 2, opener.count("A"))
}

func TestPlayer_TrackEnd(t *testing.T) {
	p, output, _ := newTestPlayer(t, orderedSettings(), "A", "B", "C")

	p.PlayCurrent()
	output.end(t)
	assert.Equal(t, "B", p.CurrentTrack().File)
	assert.Equal(t, models.StatePlaying, p.Status().State)

	p.SelectTrack(2)
	output.end(t)
	assert.Equal(t, models.StateIdle, p.Status().State)
	assert.Equal(t, "C", p.CurrentTrack().File)

	p.SetRepeat(models.RepeatAll)
	p.PlayCurrent()
	output.end(t)
	assert.Equal(t, "A", p.CurrentTrack().File)
	assert.Equal(t, []string{"A", "B", "C", "C", "A"}, output.played())
}

func TestPlayer_StaleEndIsIgnored(t *testing.T) {
	p, output, _ := newTestPlayer(t, orderedSettings(), "A", "B", "C")

	p.PlayCurrent()
	output.lock.Lock()
	staleEnd := output.onEnd
	output.lock.Unlock()

	p.SelectTrack(2)
	staleEnd()
	assert.Equal(t, "C", p.CurrentTrack().File)
	assert.Equal(t, models.StatePlaying, p.Status().State)
}

func TestPlayer_VolumeMute(t *testing.T) {
	p, output, _ := newTestPlayer(t, orderedSettings(), "A")

	p.SetVolume(0.7)
	assert.Equal(t, 0.7, p.Status().Volume)
	assert.Equal(t, 0.7, p.settings.Get().Volume)

	p.ToggleMute()
	status := p.Status()
	assert.Equal(t, 0.0, status.Volume)
	assert.True(t, status.Muted)
	assert.True(t, output.muted)

	p.ToggleMute()
	status = p.Status()
	assert.Equal(t, 0.7, status.Volume)
	assert.False(t, status.Muted)
	assert.Equal(t, 0.7, output.volume)

	p.SetVolume(0)
	assert.Equal(t, 0.0, p.Status().Volume)
	p.ToggleMute()
	assert.Equal(t, 0.7, p.Status().Volume)

	p.SetVolume(1.5)
	assert.Equal(t, 1.0, p.Status().Volume)
	p.SetVolume(-1)
	assert.True(t, p.Status().Muted)
	assert.Equal(t, 1.0, p.settings.Get().Volume)
}

func TestPlayer_VolumeRestoredFromSettings(t *testing.T) {
	settings := orderedSettings()
	settings.Volume = 0.4
	p, output, _ := newTestPlayer(t, settings, "A")
	assert.Equal(t, 0.4, p.Status().Volume)
	assert.Equal(t, 0.4, output.volume)
}

func TestPlayer_JumpDiscardsPreload(t *testing.T) {
	p, output, opener := newTestPlayer(t, orderedSettings(), "t0", "t1", "t2", "t3", "t4", "t5")
	p.preloader.spawn = func(f func()) { go f() }

	p.PlayCurrent()
	gate := opener.block("t2")
	pending := p.preloader.Preload(2)

	require.True(t, p.SelectTrack(5))
	close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	assert.False(t, pending.Wait(ctx))
	assert.False(t, p.preloader.Ready(2))

	require.True(t, p.SelectTrack(2))
	assert.Equal(t, 2, opener.count("t2"))
	assert.Equal(t, []string{"t0", "t5", "t2"}, output.played())
}

func TestPlayer_LoadFailure(t *testing.T) {
	p, output, opener := newTestPlayer(t, orderedSettings(), "A", "B")
	opener.fail["B"] = true

	p.SelectTrack(1)
	assert.Equal(t, models.StateIdle, p.Status().State)
	assert.Empty(t, output.played())

	// toggle retries current track
	p.TogglePlay()
	assert.Equal(t, 2, opener.count("B"))
	assert.Equal(t, models.StateIdle, p.Status().State)

	opener.lock.Lock()
	opener.fail["B"] = false
	opener.lock.Unlock()
	p.TogglePlay()
	assert.Equal(t, models.StatePlaying, p.Status().State)
}

func TestPlayer_PlayFailure(t *testing.T) {
	p, output, opener := newTestPlayer(t, orderedSettings(), "A", "B")
	output.playErr = errFakePlay

	p.PlayCurrent()
	assert.Equal(t, models.StateIdle, p.Status().State)
	streams := opener.streams()
	require.Len(t, streams, 1)
	assert.True(t, streams[0].Streamer.(*fakeStreamer).isClosed())
}

func TestPlayer_TogglePlay(t *testing.T) {
	p, output, _ := newTestPlayer(t, orderedSettings(), "A")

	p.TogglePlay()
	assert.Equal(t, models.StatePlaying, p.Status().State)

	p.TogglePlay()
	assert.Equal(t, models.StatePaused, p.Status().State)
	assert.True(t, output.paused)

	p.Pause()
	assert.Equal(t, models.StatePaused, p.Status().State)

	p.TogglePlay()
	assert.Equal(t, models.StatePlaying, p.Status().State)
	assert.False(t, output.paused)
	assert.Equal(t, []string{"A"}, output.played())

	p.Stop()
	assert.Equal(t, models.StateIdle, p.Status().State)
	assert.Nil(t, output.stream)
}

func TestPlayer_Seek(t *testing.T) {
	p, _, _ := newTestPlayer(t, orderedSettings(), "A")

	p.Seek(time.Second)
	assert.Equal(t, time.Duration(0), p.Status().Position)

	p.PlayCurrent()
	p.Seek(time.Second * 10)
	status := p.Status()
	assert.Equal(t, time.Second*10, status.Position)
	assert.Equal(t, time.Minute, status.Duration)
	assert.Equal(t, models.AudioActionSeek, status.Action)
}

func TestPlayer_ShuffleKeepsCurrent(t *testing.T) {
	p, _, _ := newTestPlayer(t, orderedSettings(), "0", "1", "2", "3", "4", "5", "6", "7", "8", "9")

	p.SelectTrack(7)
	p.SetShuffle(true)

	assert.Equal(t, "7", p.CurrentTrack().File)
	assert.Equal(t, 7, p.QueueOrder()[0])
	assert.True(t, isPermutation(p.QueueOrder(), 10))
	assert.True(t, p.Status().Shuffle)
	assert.True(t, p.settings.Get().Shuffle)

	p.SetShuffle(false)
	assert.Equal(t, []int{7, 8, 9, 0, 1, 2, 3, 4, 5, 6}, p.QueueOrder())
	assert.False(t, p.settings.Get().Shuffle)
}

func TestPlayer_Callbacks(t *testing.T) {
	p, _, _ := newTestPlayer(t, orderedSettings(), "A", "B")

	var changed []string
	var states []models.PlaybackState
	p.AddTrackChangedCallback(func(track *models.Track) {
		changed = append(changed, track.File)
	})
	p.AddStatusCallback(func(status models.AudioStatus) {
		states = append(states, status.State)
	})

	p.PlayCurrent()
	p.Next()
	assert.Equal(t, []string{"A", "B"}, changed)
	assert.Contains(t, states, models.StateLoading)
	assert.Equal(t, models.StatePlaying, states[len(states)-1])
}

func TestPlayer_TrackChangeBeforePlayingStatus(t *testing.T) {
	p, output, _ := newTestPlayer(t, orderedSettings(), "A", "B", "C")

	var lastChanged string
	var mismatch []string
	p.AddTrackChangedCallback(func(track *models.Track) {
		lastChanged = track.File
	})
	p.AddStatusCallback(func(status models.AudioStatus) {
		if status.State == models.StatePlaying && status.Track.File != lastChanged {
			mismatch = append(mismatch, status.Track.File)
		}
	})

	// slow path, fast path and natural end
	p.PlayCurrent()
	p.Next()
	output.end(t)
	assert.Equal(t, "C", lastChanged)
	assert.Empty(t, mismatch, "playing status before track change")
}

func TestPlayer_RepeatOneIsNotTrackChange(t *testing.T) {
	settings := orderedSettings()
	settings.Repeat = models.RepeatOne
	p, output, _ := newTestPlayer(t, settings, "A", "B")

	var changed []string
	p.AddTrackChangedCallback(func(track *models.Track) {
		changed = append(changed, track.File)
	})

	require.True(t, p.SelectTrack(1))
	output.end(t)
	output.end(t)
	assert.Equal(t, models.StatePlaying, p.Status().State)
	assert.Equal(t, []string{"B"}, changed)
}

func TestPlayer_Empty(t *testing.T) {
	p, output, _ := newTestPlayer(t, orderedSettings())

	p.PlayCurrent()
	p.Next()
	p.Previous()
	p.TogglePlay()
	assert.False(t, p.SelectTrack(0))
	assert.Nil(t, p.CurrentTrack())
	assert.Equal(t, -1, p.Status().TrackIndex)
	assert.Empty(t, output.played())
}

func TestPlayer_TaskLoop(t *testing.T) {
	p, output, _ := newTestPlayer(t, orderedSettings(), "A", "B")
	require.NoError(t, p.Start())

	p.PlayCurrent()
	output.end(t)
	assert.Eventually(t, func() bool {
		track := p.CurrentTrack()
		return track != nil && track.File == "B" && p.Status().State == models.StatePlaying
	}, time.Second*2, time.Millisecond*10)

	require.NoError(t, p.Task.Stop())
}
