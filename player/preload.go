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
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/models"
)

// Pending is the result of a preload. It resolves once, to true if track was decoded successfully.
type Pending struct {
	done  chan struct{}
	ready bool
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(ready bool) {
	p.ready = ready
	close(p.done)
}

// Done is closed once preload has resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until preload resolves or ctx is done. It returns false if ctx expired.
func (p *Pending) Wait(ctx context.Context) bool {
	select {
	case <-p.done:
		return p.ready
	case <-ctx.Done():
		return false
	}
}

type preloadEntry struct {
	index      int
	generation uint64
	pending    *Pending
	stream     *Stream
	loading    bool
	cancel     context.CancelFunc
}

// Preloader warms at most one track into a standby slot so that switching to it does not need
// to open and decode the track.
type Preloader struct {
	lock       sync.Mutex
	opener     Opener
	track      func(index int) *models.Track
	entry      *preloadEntry
	generation uint64
	timeout    time.Duration
	spawn      func(func())
}

// NewPreloader creates a new preloader. Track maps track index to track, returning nil for invalid index.
func NewPreloader(opener Opener, track func(index int) *models.Track) *Preloader {
	return &Preloader{
		opener:  opener,
		track:   track,
		timeout: time.Second * 30,
		spawn:   func(f func()) { go f() },
	}
}

// Preload starts loading track with given index. Preloading the same index again returns the same
// pending result without loading again. Preloading another index discards previous entry.
func (p *Preloader) Preload(index int) *Pending {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.entry != nil && p.entry.index == index {
		return p.entry.pending
	}
	return p.startLocked(index)
}

// Ensure starts preloading index only if there is no preload ready or in flight.
func (p *Preloader) Ensure(index int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.entry != nil && (p.entry.index == index || p.entry.loading || p.entry.stream != nil) {
		return
	}
	p.startLocked(index)
}

// Take returns preloaded stream if it is for given index and ready. Ownership of the stream
// moves to the caller and standby slot is cleared.
func (p *Preloader) Take(index int) (*Stream, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.entry == nil || p.entry.index != index || p.entry.stream == nil {
		return nil, false
	}
	stream := p.entry.stream
	p.entry = nil
	p.generation += 1
	return stream, true
}

// Invalidate discards current entry. Loading in flight is cancelled and its result dropped.
func (p *Preloader) Invalidate() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.discardLocked()
}

// Index returns index that is preloaded or being preloaded.
func (p *Preloader) Index() (int, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.entry == nil {
		return -1, false
	}
	return p.entry.index, true
}

// Ready returns true if index is preloaded and waiting in standby slot.
func (p *Preloader) Ready(index int) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.entry != nil && p.entry.index == index && p.entry.stream != nil
}

func (p *Preloader) discardLocked() {
	p.generation += 1
	entry := p.entry
	p.entry = nil
	if entry == nil {
		return
	}
	if entry.cancel != nil {
		entry.cancel()
	}
	if entry.stream != nil {
		logrus.Debugf("Discard preloaded track %d", entry.index)
		if err := entry.stream.Close(); err != nil {
			logrus.Warningf("discard preloaded track: %v", err)
		}
	}
}

func (p *Preloader) startLocked(index int) *Pending {
	p.discardLocked()

	entry := &preloadEntry{
		index:      index,
		generation: p.generation,
		pending:    newPending(),
		loading:    true,
	}
	track := p.track(index)
	if track == nil {
		logrus.Debugf("preload: no track with index %d", index)
		entry.loading = false
		entry.pending.resolve(false)
		p.entry = entry
		return entry.pending
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	entry.cancel = cancel
	p.entry = entry
	logrus.Debugf("Preload track %d: %s", index, track.File)

	p.spawn(func() {
		defer cancel()
		stream, err := p.opener.Open(ctx, track)
		p.complete(entry, stream, err)
	})
	return entry.pending
}

func (p *Preloader) complete(entry *preloadEntry, stream *Stream, err error) {
	p.lock.Lock()
	stale := p.entry != entry || p.generation != entry.generation
	if !stale {
		entry.loading = false
		if err == nil {
			entry.stream = stream
		}
	}
	p.lock.Unlock()

	if stale {
		logrus.Debugf("Drop stale preload of track %d", entry.index)
		if stream != nil {
			stream.Close()
		}
		entry.pending.resolve(false)
		return
	}
	if err != nil {
		logrus.Warningf("preload track %d: %v", entry.index, err)
		entry.pending.resolve(false)
		return
	}
	entry.pending.resolve(true)
}
