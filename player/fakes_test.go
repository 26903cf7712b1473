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
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/require"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/models"
)

var testFormat = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// fakeStreamer is a silent stream of given length
type fakeStreamer struct {
	lock     sync.Mutex
	length   int
	position int
	closed   bool
	seekErr  error
}

func (f *fakeStreamer) Stream(samples [][2]float64) (int, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.position >= f.length {
		return 0, false
	}
	n := len(samples)
	if f.position+n > f.length {
		n = f.length - f.position
	}
	for i := 0; i < n; i++ {
		samples[i] = [2]float64{}
	}
	f.position += n
	return n, true
}

func (f *fakeStreamer) Err() error { return nil }
func (f *fakeStreamer) Len() int   { return f.length }

func (f *fakeStreamer) Position() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.position
}

func (f *fakeStreamer) Seek(p int) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.seekErr != nil {
		return f.seekErr
	}
	f.position = p
	return nil
}

func (f *fakeStreamer) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStreamer) isClosed() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.closed
}

// fakeOpener returns silent streams. Opening a blocked file waits until its gate is closed,
// and files listed in fail return errors.
type fakeOpener struct {
	lock    sync.Mutex
	calls   map[string]int
	fail    map[string]bool
	gates   map[string]chan struct{}
	opened  []*Stream
	seekErr error
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{
		calls: map[string]int{},
		fail:  map[string]bool{},
		gates: map[string]chan struct{}{},
	}
}

// block makes opening file wait until returned channel is closed.
func (f *fakeOpener) block(file string) chan struct{} {
	f.lock.Lock()
	defer f.lock.Unlock()
	gate := make(chan struct{})
	f.gates[file] = gate
	return gate
}

func (f *fakeOpener) streams() []*Stream {
	f.lock.Lock()
	defer f.lock.Unlock()
	streams := make([]*Stream, len(f.opened))
	copy(streams, f.opened)
	return streams
}

func (f *fakeOpener) Open(ctx context.Context, track *models.Track) (*Stream, error) {
	f.lock.Lock()
	f.calls[track.File] += 1
	gate := f.gates[track.File]
	fail := f.fail[track.File]
	f.lock.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return nil, fmt.Errorf("open %s: broken", track.File)
	}
	stream := &Stream{
		Track:    track,
		Streamer: &fakeStreamer{length: 44100 * 60, seekErr: f.seekErr},
		Format:   testFormat,
	}
	f.lock.Lock()
	f.opened = append(f.opened, stream)
	f.lock.Unlock()
	return stream, nil
}

func (f *fakeOpener) count(file string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls[file]
}

// fakeOutput records what player does with the output.
type fakeOutput struct {
	lock    sync.Mutex
	stream  *Stream
	onEnd   func()
	plays   []*models.Track
	paused  bool
	volume  float64
	muted   bool
	playErr error
}

func (f *fakeOutput) Play(stream *Stream, onEnd func()) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.stream = stream
	f.onEnd = onEnd
	f.paused = false
	f.plays = append(f.plays, stream.Track)
	return nil
}

func (f *fakeOutput) SetPaused(paused bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.paused = paused
}

func (f *fakeOutput) Stop() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.stream = nil
	f.onEnd = nil
}

func (f *fakeOutput) Seek(position time.Duration) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.stream == nil {
		return errNoStream
	}
	return f.stream.Streamer.Seek(f.stream.Format.SampleRate.N(position))
}

func (f *fakeOutput) SetVolume(volume float64, muted bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.volume = volume
	f.muted = muted
}

func (f *fakeOutput) Position() time.Duration {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.stream.Position()
}

// end simulates stream reaching its end
func (f *fakeOutput) end(t *testing.T) {
	t.Helper()
	f.lock.Lock()
	onEnd := f.onEnd
	if f.stream != nil {
		s := f.stream.Streamer
		s.Seek(s.Len())
	}
	f.lock.Unlock()
	require.NotNil(t, onEnd, "no stream playing")
	onEnd()
}

func (f *fakeOutput) played() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	names := make([]string, len(f.plays))
	for i, track := range f.plays {
		names[i] = track.File
	}
	return names
}

var errFakePlay = errors.New("device busy")

func testTracks(names ...string) []*models.Track {
	tracks := make([]*models.Track, len(names))
	for i, name := range names {
		tracks[i] = &models.Track{File: name, Title: name}
	}
	return tracks
}

func inline(f func()) { f() }

// newTestPlayer creates a player with synchronous loading.
func newTestPlayer(t *testing.T, settings config.Settings, names ...string) (*Player, *fakeOutput, *fakeOpener) {
	t.Helper()
	store := config.NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, store.Save(settings))

	output := &fakeOutput{}
	opener := newFakeOpener()
	p := NewPlayer(testTracks(names...), output, opener, store)
	p.spawn = inline
	p.preloader.spawn = inline
	return p, output, opener
}

func orderedSettings() config.Settings {
	s := config.DefaultSettings()
	s.Shuffle = false
	return s
}
