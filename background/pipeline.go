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

package background

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/api"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/interfaces"
	"tryffel.net/go/tunedeck/library"
	"tryffel.net/go/tunedeck/models"
)

var _ interfaces.Background = (*Pipeline)(nil)

// Pipeline keeps current and next background image. Next image is only set once it has been
// downloaded and decoded, and only next image can be swapped to the display.
//
// Rotation is predictive: if next image is cached, update swaps it immediately and prefetches
// a replacement. Otherwise update only makes sure a prefetch is running, and swap happens on
// a later update.
type Pipeline struct {
	lock     sync.Mutex
	searcher api.ImageSearcher
	loader   ImageLoader
	display  Display
	settings *config.SettingsStore
	tags     library.TagMap

	track *models.Track
	// generation is incremented on track change and forced update. Fetches of older generation are dropped.
	generation uint64
	currentURL string
	nextURL    string
	nextImage  image.Image
	fetching   bool
	busy       bool
	// swapPending is set when next image could not be swapped because another swap was running
	swapPending bool
	// fit is the last applied fit mode, redrawPending is set if it changed during a swap
	fit           config.FitMode
	redrawPending bool

	enabled  bool
	visible  bool
	playing  bool
	interval int
	rotation *rotation

	callbacks []func(url string)

	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	spawn   func(func())
}

// NewPipeline creates a new pipeline. Rotation does not start until Reconfigure is called.
func NewPipeline(searcher api.ImageSearcher, loader ImageLoader, display Display,
	settings *config.SettingsStore, tags library.TagMap) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	if tags == nil {
		tags = library.TagMap{}
	}
	current := settings.Get()
	return &Pipeline{
		searcher:  searcher,
		loader:    loader,
		display:   display,
		settings:  settings,
		tags:      tags,
		enabled:   current.BackgroundEnabled,
		fit:       current.Fit,
		visible:   true,
		callbacks: make([]func(url string), 0),
		ctx:       ctx,
		cancel:    cancel,
		timeout:   config.ImageRequestTimeout,
		spawn:     func(f func()) { go f() },
	}
}

// AddCallback adds a callback that gets called with url of every image that has been swapped in.
func (p *Pipeline) AddCallback(cb func(url string)) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.callbacks = append(p.callbacks, cb)
}

// CurrentURL returns url of image on display, or empty string.
func (p *Pipeline) CurrentURL() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.currentURL
}

// NextURL returns url of verified next image, or empty string.
func (p *Pipeline) NextURL() string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.nextURL
}

// Refresh fetches a new image for current track and swaps it once decoded.
func (p *Pipeline) Refresh() {
	p.lock.Lock()
	work := p.updateLocked(true)
	p.lock.Unlock()
	p.run(work)
}

// OnTrackChange drops next image that was fetched for previous track and fetches one for track.
func (p *Pipeline) OnTrackChange(track *models.Track) {
	p.lock.Lock()
	p.changeTrackLocked(track)
	work := p.updateLocked(true)
	p.lock.Unlock()
	p.run(work)
}

// SetVisible tells whether background is being watched. Becoming visible refreshes immediately.
func (p *Pipeline) SetVisible(visible bool) {
	p.lock.Lock()
	wake := !p.visible && visible && p.playing
	p.visible = visible
	var work func()
	if wake {
		work = p.updateLocked(false)
	}
	p.lock.Unlock()
	p.run(work)
}

// SetPlaying tells whether audio is playing. Rotation only runs while playing, and playback starting
// refreshes immediately.
func (p *Pipeline) SetPlaying(playing bool) {
	p.lock.Lock()
	wake := !p.playing && playing && p.visible
	p.playing = playing
	var work func()
	if wake {
		work = p.updateLocked(false)
	}
	p.lock.Unlock()
	p.run(work)
}

// Reconfigure applies background settings. Rotation is restarted if interval or enabled changed.
// Enabling background fetches a new image, and changing fit mode redraws image on display.
func (p *Pipeline) Reconfigure() {
	settings := p.settings.Get()

	p.lock.Lock()
	wasEnabled := p.enabled
	p.enabled = settings.BackgroundEnabled
	var old *rotation
	if p.rotation == nil || p.interval != settings.IntervalS || wasEnabled != p.enabled {
		old = p.rotation
		p.rotation = nil
		p.interval = settings.IntervalS
		if p.enabled && p.interval > 0 {
			p.rotation = startRotation(time.Duration(p.interval)*time.Second, p.tick)
			logrus.Debugf("Rotate background every %d s", p.interval)
		}
	}
	if !p.enabled {
		p.dropNextLocked()
	}
	var work func()
	if p.enabled && !wasEnabled {
		work = p.updateLocked(true)
	}
	refit := p.fit != settings.Fit
	p.fit = settings.Fit
	if refit && p.enabled && p.currentURL != "" {
		if p.busy {
			p.redrawPending = true
		} else if work == nil {
			p.busy = true
			work = p.redraw
		}
	}
	p.lock.Unlock()

	old.Stop()
	p.run(work)
}

// Close stops rotation and cancels fetches in flight.
func (p *Pipeline) Close() {
	p.lock.Lock()
	old := p.rotation
	p.rotation = nil
	p.lock.Unlock()
	old.Stop()
	p.cancel()
}

func (p *Pipeline) tick(r *rotation) {
	p.lock.Lock()
	if r != nil && p.rotation != r {
		p.lock.Unlock()
		return
	}
	var work func()
	if p.enabled && p.visible && p.playing {
		work = p.updateLocked(false)
	}
	p.lock.Unlock()
	p.run(work)
}

// UpdateBackground updates background for track. If force is set, cached next image is dropped
// and a new image is fetched and swapped in. Otherwise cached next image is swapped immediately,
// or, if there is none, a prefetch is started. A track other than the current one is handled
// as a track change. UpdateBackground never blocks on network.
func (p *Pipeline) UpdateBackground(track *models.Track, force bool) {
	p.lock.Lock()
	if track != p.track {
		p.changeTrackLocked(track)
		force = true
	}
	work := p.updateLocked(force)
	p.lock.Unlock()
	p.run(work)
}

func (p *Pipeline) run(work func()) {
	if work != nil {
		p.spawn(work)
	}
}

func (p *Pipeline) changeTrackLocked(track *models.Track) {
	p.track = track
	p.generation += 1
	p.dropNextLocked()
}

// updateLocked returns work to run for an update of current track, or nil.
// Track and generation are read together, so work never mixes tracks.
func (p *Pipeline) updateLocked(force bool) func() {
	if !p.enabled {
		return nil
	}
	if force {
		p.generation += 1
		p.dropNextLocked()
		p.fetching = true
		gen := p.generation
		track := p.track
		return func() { p.fetch(gen, track, true) }
	}
	if p.nextImage != nil && !p.busy {
		url := p.nextURL
		return func() {
			if p.Swap(url) {
				p.prefetch()
			}
		}
	}
	return p.prefetchLocked()
}

// prefetch starts fetching next image for current track unless one is cached or being fetched.
func (p *Pipeline) prefetch() {
	p.lock.Lock()
	work := p.prefetchLocked()
	p.lock.Unlock()
	p.run(work)
}

func (p *Pipeline) prefetchLocked() func() {
	if !p.enabled || p.fetching || p.nextImage != nil {
		return nil
	}
	p.fetching = true
	gen := p.generation
	track := p.track
	return func() { p.fetch(gen, track, false) }
}

// fetch searches and decodes a new image and caches it as next image. Failures are silent.
func (p *Pipeline) fetch(gen uint64, track *models.Track, swap bool) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	tags := ResolveSearchTags(track, p.tags, p.settings.Get())
	url, err := p.searcher.SearchImage(ctx, tags)
	if err != nil {
		logrus.Debugf("search background '%s': %v", tags, err)
		p.fetchFailed(gen)
		return
	}
	img, err := p.loader.Load(ctx, url)
	if err != nil {
		logrus.Debugf("load background %s: %v", url, err)
		p.fetchFailed(gen)
		return
	}

	p.lock.Lock()
	if gen != p.generation || !p.enabled {
		p.lock.Unlock()
		logrus.Debugf("Drop stale background %s", url)
		return
	}
	p.fetching = false
	p.nextURL = url
	p.nextImage = img
	p.lock.Unlock()

	if swap {
		p.Swap(url)
	}
}

func (p *Pipeline) fetchFailed(gen uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if gen == p.generation {
		p.fetching = false
	}
}

func (p *Pipeline) dropNextLocked() {
	p.nextURL = ""
	p.nextImage = nil
	p.fetching = false
	p.swapPending = false
}

// Swap cross-fades to next image. Only the cached next image that has been decoded is accepted,
// and only one swap runs at a time. If next image is requested while another swap is running,
// it is swapped once that completes. Swap returns true if url is now on display.
func (p *Pipeline) Swap(url string) bool {
	p.lock.Lock()
	if url == "" || url != p.nextURL || p.nextImage == nil {
		p.lock.Unlock()
		return false
	}
	if p.busy {
		p.swapPending = true
		p.lock.Unlock()
		return false
	}
	p.busy = true
	img := p.nextImage
	fit := p.fit
	p.lock.Unlock()

	err := p.display.Show(url, img, fit)

	p.lock.Lock()
	p.busy = false
	if err == nil {
		p.currentURL = url
		if p.nextURL == url {
			p.nextURL = ""
			p.nextImage = nil
		}
	}
	pending := p.swapPending && p.nextImage != nil
	next := p.nextURL
	p.swapPending = false
	redraw := p.redrawPending && err == nil && !pending
	p.redrawPending = false
	if redraw {
		p.busy = true
	}
	callbacks := p.callbacks
	p.lock.Unlock()

	if err != nil {
		logrus.Errorf("show background: %v", err)
	} else {
		logrus.Infof("Background: %s", url)
		for _, cb := range callbacks {
			cb(url)
		}
	}
	if pending {
		p.Swap(next)
	} else if redraw {
		p.redraw()
	}
	return err == nil
}

// redraw shows image on display again with current fit. Caller must have set busy.
func (p *Pipeline) redraw() {
	p.lock.Lock()
	fit := p.fit
	p.lock.Unlock()

	err := p.display.Redraw(fit)
	if err != nil {
		logrus.Errorf("redraw background: %v", err)
	}

	p.lock.Lock()
	p.busy = false
	pending := p.swapPending && p.nextImage != nil
	next := p.nextURL
	p.swapPending = false
	p.lock.Unlock()
	if pending {
		p.Swap(next)
	}
}
