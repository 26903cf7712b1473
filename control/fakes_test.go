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

package control

import (
	"path"
	"sync"
	"testing"
	"time"

	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/models"
)

type fakePlayer struct {
	lock    sync.Mutex
	calls   []string
	status  models.AudioStatus
	seek    time.Duration
	volume  float64
	selects int
	tracks  int
}

func (f *fakePlayer) call(name string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakePlayer) Calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string{}, f.calls...)
}

func (f *fakePlayer) PlayCurrent() { f.call("play_current") }
func (f *fakePlayer) TogglePlay() { f.call("toggle") }
func (f *fakePlayer) Pause() { f.call("pause") }
func (f *fakePlayer) Play() { f.call("play") }
func (f *fakePlayer) Stop() { f.call("stop") }
func (f *fakePlayer) Next() { f.call("next") }
func (f *fakePlayer) Previous() { f.call("previous") }
func (f *fakePlayer) ToggleMute() { f.call("mute") }
func (f *fakePlayer) CurrentTrack() *models.Track { return f.status.Track }
func (f *fakePlayer) AddStatusCallback(func(status models.AudioStatus)) {}

func (f *fakePlayer) SelectTrack(index int) bool {
	f.call("select")
	if index < 0 || index >= f.tracks {
		return false
	}
	f.selects = index
	return true
}

func (f *fakePlayer) Seek(position time.Duration) {
	f.call("seek")
	f.seek = position
}

func (f *fakePlayer) SetVolume(volume float64) {
	f.call("volume")
	f.volume = volume
}

func (f *fakePlayer) Status() models.AudioStatus {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.status
}

type fakeQueue struct {
	player   *fakePlayer
	tracks   []*models.Track
	order    []int
	rebuilds int
}

func (f *fakeQueue) SetShuffle(enabled bool) {
	f.player.lock.Lock()
	f.player.status.Shuffle = enabled
	f.player.lock.Unlock()
}

func (f *fakeQueue) SetRepeat(mode models.RepeatMode) {
	f.player.lock.Lock()
	f.player.status.Repeat = mode
	f.player.lock.Unlock()
}

func (f *fakeQueue) RebuildQueue() { f.rebuilds++ }
func (f *fakeQueue) Tracks() []*models.Track { return f.tracks }
func (f *fakeQueue) QueueOrder() []int { return f.order }

type fakeBackground struct {
	lock         sync.Mutex
	url          string
	refreshes    int
	visible      bool
	reconfigures int
}

func (f *fakeBackground) Refresh() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshes++
}

func (f *fakeBackground) CurrentURL() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.url
}

func (f *fakeBackground) SetVisible(visible bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.visible = visible
}

func (f *fakeBackground) Reconfigure() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.reconfigures++
}

type fixture struct {
	server     *Server
	player     *fakePlayer
	queue      *fakeQueue
	background *fakeBackground
	settings   *config.SettingsStore
}

func newFixture(t *testing.T) *fixture {
	tracks := []*models.Track{
		{Title: "First", File: "a.mp3"},
		{Title: "Second", File: "b.mp3"},
	}
	player := &fakePlayer{tracks: len(tracks)}
	queue := &fakeQueue{player: player, tracks: tracks, order: []int{1, 0}}
	background := &fakeBackground{url: "https://img.example/1.jpg", visible: true}
	settings := config.NewSettingsStore(path.Join(t.TempDir(), "settings.json"))
	settings.Load()
	return &fixture{
		server:     NewServer("127.0.0.1:0", player, queue, background, settings),
		player:     player,
		queue:      queue,
		background: background,
		settings:   settings,
	}
}
