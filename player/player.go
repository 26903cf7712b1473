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

// Package player contains playback logic of tunedeck. This includes queue management, preloading next track
// and low-level audio output.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/interfaces"
	"tryffel.net/go/tunedeck/models"
	"tryffel.net/go/tunedeck/task"
)

var (
	_ interfaces.Player          = (*Player)(nil)
	_ interfaces.QueueController = (*Player)(nil)
)

// Player is the playback engine. It implements interfaces.Player and interfaces.QueueController.
// Stop stops playback, the status loop is stopped with Task.Stop.
type Player struct {
	task.Task

	lock sync.RWMutex

	tracks    []*models.Track
	queue     *Queue
	preloader *Preloader
	output    Output
	opener    Opener
	settings  *config.SettingsStore

	state  models.PlaybackState
	action models.AudioAction
	// current is the stream in active output
	current      *Stream
	currentIndex int
	// switchGen is incremented on every switch or stop, async loads with older generation are dropped
	switchGen  uint64
	loadCancel context.CancelFunc

	// volume is the last non-zero volume
	volume float64
	muted  bool

	trackEnded chan uint64

	statusCallbacks []func(status models.AudioStatus)
	trackCallbacks  []func(track *models.Track)

	loadTimeout time.Duration
	spawn       func(func())
}

// NewPlayer creates a new player for tracks. Shuffle, repeat and volume are restored from settings.
func NewPlayer(tracks []*models.Track, output Output, opener Opener, settings *config.SettingsStore) *Player {
	p := &Player{
		tracks:          tracks,
		queue:           NewQueue(len(tracks)),
		output:          output,
		opener:          opener,
		settings:        settings,
		state:           models.StateIdle,
		currentIndex:    -1,
		volume:          config.AudioMaxVolume,
		trackEnded:      make(chan uint64, 3),
		statusCallbacks: make([]func(status models.AudioStatus), 0),
		trackCallbacks:  make([]func(track *models.Track), 0),
		loadTimeout:     time.Second * 30,
		spawn:           func(f func()) { go f() },
	}
	p.Name = "Player"
	p.Task.SetLoop(p.loop)
	p.preloader = NewPreloader(opener, p.track)

	s := settings.Get()
	if s.Volume > 0 && s.Volume <= 1 {
		p.volume = s.Volume
	}
	p.queue.SetRepeat(s.Repeat)
	p.queue.Rebuild(s.Shuffle)
	p.output.SetVolume(p.volume, p.muted)
	return p
}

func (p *Player) loop() {
	// interval to refresh status
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.StopChan():
			p.Stop()
			p.preloader.Invalidate()
			return
		case gen := <-p.trackEnded:
			p.handleEnd(gen)
		case <-ticker.C:
			p.lock.RLock()
			playing := p.state == models.StatePlaying
			p.lock.RUnlock()
			if playing {
				p.warmNext(false)
				p.setAction(models.AudioActionTimeUpdate)
				p.flushStatus()
			}
		}
	}
}

// track returns track with index, or nil
func (p *Player) track(index int) *models.Track {
	if index < 0 || index >= len(p.tracks) {
		return nil
	}
	return p.tracks[index]
}

// AddStatusCallback adds a callback that gets called every time status is changed, or after certain time.
func (p *Player) AddStatusCallback(cb func(status models.AudioStatus)) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.statusCallbacks = append(p.statusCallbacks, cb)
}

// AddTrackChangedCallback adds a callback that gets called every time a new track starts playing.
func (p *Player) AddTrackChangedCallback(cb func(track *models.Track)) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.trackCallbacks = append(p.trackCallbacks, cb)
}

// PlayCurrent loads and plays track at queue cursor.
func (p *Player) PlayCurrent() {
	index, ok := p.queue.Current()
	if !ok {
		logrus.Debug("play: queue is empty")
		return
	}
	p.switchTo(index, models.AudioActionPlay)
}

// TogglePlay toggles pause. If nothing is loaded, current track is started.
func (p *Player) TogglePlay() {
	p.lock.RLock()
	state := p.state
	p.lock.RUnlock()
	switch state {
	case models.StatePlaying:
		p.Pause()
	case models.StatePaused:
		p.Play()
	case models.StateIdle, models.StateEnded:
		p.PlayCurrent()
	}
}

// Pause pauses audio. If audio is not playing, do nothing.
func (p *Player) Pause() {
	p.lock.Lock()
	if p.state != models.StatePlaying {
		p.lock.Unlock()
		return
	}
	logrus.Info("Pause")
	p.output.SetPaused(true)
	p.state = models.StatePaused
	p.action = models.AudioActionPlayPause
	p.lock.Unlock()
	p.flushStatus()
}

// Play continues paused audio. If nothing is loaded, current track is started.
func (p *Player) Play() {
	p.lock.Lock()
	switch p.state {
	case models.StatePaused:
		logrus.Info("Continue")
		p.output.SetPaused(false)
		p.state = models.StatePlaying
		p.action = models.AudioActionPlayPause
		p.lock.Unlock()
		p.flushStatus()
	case models.StateIdle, models.StateEnded:
		p.lock.Unlock()
		p.PlayCurrent()
	default:
		p.lock.Unlock()
	}
}

// Stop stops playing and releases current stream. Queue cursor is not changed.
func (p *Player) Stop() {
	p.lock.Lock()
	p.stopLocked()
	p.action = models.AudioActionStop
	p.lock.Unlock()
	p.flushStatus()
}

func (p *Player) stopLocked() {
	p.switchGen += 1
	if p.loadCancel != nil {
		p.loadCancel()
		p.loadCancel = nil
	}
	p.output.Stop()
	if p.current != nil {
		if err := p.current.Close(); err != nil {
			logrus.Warningf("stop: %v", err)
		}
		p.current = nil
	}
	p.state = models.StateIdle
}

// Next plays next track. With repeat off at the last track playback is stopped instead.
func (p *Player) Next() {
	if p.queue.Len() == 0 {
		return
	}
	if p.queue.Repeat() == models.RepeatOff && p.queue.AtEnd() {
		logrus.Info("Next: end of queue")
		p.Stop()
		return
	}
	index, _ := p.queue.Forward()
	logrus.Info("Next track")
	p.switchTo(index, models.AudioActionNext)
}

// Previous plays previous track. Previous wraps around to the end of queue.
func (p *Player) Previous() {
	index, ok := p.queue.Retreat()
	if !ok {
		return
	}
	logrus.Info("Previous track")
	p.switchTo(index, models.AudioActionPrevious)
}

// SelectTrack plays track with given index in track list.
func (p *Player) SelectTrack(index int) bool {
	if !p.queue.Select(index) {
		logrus.Warningf("select track: no track with index %d", index)
		return false
	}
	p.switchTo(index, models.AudioActionPlay)
	return true
}

// Seek seeks current track to position.
func (p *Player) Seek(position time.Duration) {
	p.lock.Lock()
	if p.current == nil {
		p.lock.Unlock()
		return
	}
	if position < 0 {
		position = 0
	}
	err := p.output.Seek(position)
	if err != nil {
		p.lock.Unlock()
		logrus.Errorf("seek to %s: %v", position, err)
		return
	}
	p.action = models.AudioActionSeek
	p.lock.Unlock()
	p.flushStatus()
}

// SetVolume sets volume, clamped to [0,1]. Non-zero volume is remembered and persisted.
// Zero volume mutes player.
func (p *Player) SetVolume(volume float64) {
	if volume < config.AudioMinVolume {
		volume = config.AudioMinVolume
	} else if volume > config.AudioMaxVolume {
		volume = config.AudioMaxVolume
	}

	p.lock.Lock()
	if volume > 0 {
		p.volume = volume
		p.muted = false
	} else {
		p.muted = true
	}
	p.output.SetVolume(p.volume, p.muted)
	p.action = models.AudioActionSetVolume
	p.lock.Unlock()

	if volume > 0 {
		_, err := p.settings.Update(func(s *config.Settings) { s.Volume = volume })
		if err != nil {
			logrus.Errorf("save volume: %v", err)
		}
	}
	p.flushStatus()
}

// ToggleMute toggles between zero volume and last non-zero volume.
func (p *Player) ToggleMute() {
	p.lock.Lock()
	p.muted = !p.muted
	if p.muted {
		logrus.Info("Mute audio")
	} else {
		logrus.Info("Unmute audio")
	}
	p.output.SetVolume(p.volume, p.muted)
	p.action = models.AudioActionSetVolume
	p.lock.Unlock()
	p.flushStatus()
}

// SetShuffle rebuilds queue keeping current track current, and persists shuffle.
func (p *Player) SetShuffle(enabled bool) {
	if enabled {
		logrus.Info("Enable shuffle")
	} else {
		logrus.Info("Disable shuffle")
	}
	p.queue.RebuildPreservingCurrent(enabled)
	p.preloader.Invalidate()
	_, err := p.settings.Update(func(s *config.Settings) { s.Shuffle = enabled })
	if err != nil {
		logrus.Errorf("save shuffle: %v", err)
	}
	p.setAction(models.AudioActionShuffleChanged)
	p.warmNext(true)
	p.flushStatus()
}

// SetRepeat sets repeat mode and persists it.
func (p *Player) SetRepeat(mode models.RepeatMode) {
	logrus.Infof("Set repeat %s", mode)
	p.queue.SetRepeat(mode)
	_, err := p.settings.Update(func(s *config.Settings) { s.Repeat = mode })
	if err != nil {
		logrus.Errorf("save repeat: %v", err)
	}
	p.setAction(models.AudioActionRepeatChanged)
	p.warmNext(true)
	p.flushStatus()
}

// RebuildQueue rebuilds queue with current shuffle setting, keeping current track.
func (p *Player) RebuildQueue() {
	p.queue.RebuildPreservingCurrent(p.queue.Shuffled())
	p.preloader.Invalidate()
	p.setAction(models.AudioActionShuffleChanged)
	p.warmNext(true)
	p.flushStatus()
}

// Tracks returns full track list.
func (p *Player) Tracks() []*models.Track {
	tracks := make([]*models.Track, len(p.tracks))
	copy(tracks, p.tracks)
	return tracks
}

// QueueOrder returns track indices in play order.
func (p *Player) QueueOrder() []int {
	return p.queue.Order()
}

// CurrentTrack returns track at queue cursor, or nil.
func (p *Player) CurrentTrack() *models.Track {
	index, ok := p.queue.Current()
	if !ok {
		return nil
	}
	return p.track(index)
}

// Status returns current status.
func (p *Player) Status() models.AudioStatus {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.statusLocked()
}

func (p *Player) statusLocked() models.AudioStatus {
	status := models.AudioStatus{
		State:         p.state,
		Action:        p.action,
		TrackIndex:    -1,
		QueuePosition: p.queue.Cursor(),
		Volume:        p.volume,
		Muted:         p.muted,
		Shuffle:       p.queue.Shuffled(),
		Repeat:        p.queue.Repeat(),
	}
	if p.muted {
		status.Volume = 0
	}
	if index, ok := p.queue.Current(); ok {
		status.TrackIndex = index
		status.Track = p.track(index)
	}
	if p.current != nil {
		status.Position = p.output.Position()
		status.Duration = p.current.Duration()
	}
	return status
}

func (p *Player) setAction(action models.AudioAction) {
	p.lock.Lock()
	p.action = action
	p.lock.Unlock()
}

func (p *Player) flushStatus() {
	p.lock.RLock()
	status := p.statusLocked()
	callbacks := p.statusCallbacks
	p.lock.RUnlock()
	for _, cb := range callbacks {
		cb(status)
	}
}

// switchTo stops current track and starts track with index. Preloaded track is played immediately,
// otherwise track is opened in background.
func (p *Player) switchTo(index int, action models.AudioAction) {
	track := p.track(index)
	if track == nil {
		return
	}

	p.lock.Lock()
	p.stopLocked()
	gen := p.switchGen
	p.state = models.StateLoading
	p.action = action
	p.currentIndex = index

	stream, ok := p.preloader.Take(index)
	if ok {
		logrus.Debugf("Play preloaded track %d", index)
		started := p.startLocked(gen, stream)
		p.lock.Unlock()
		p.afterStart(started, track, true)
		return
	}
	p.preloader.Invalidate()

	ctx, cancel := context.WithTimeout(context.Background(), p.loadTimeout)
	p.loadCancel = cancel
	p.lock.Unlock()
	p.flushStatus()

	logrus.Debugf("Load track %d: %s", index, track.File)
	p.spawn(func() {
		defer cancel()
		stream, err := p.opener.Open(ctx, track)

		p.lock.Lock()
		if gen != p.switchGen {
			p.lock.Unlock()
			logrus.Debugf("Drop stale load of track %d", index)
			if stream != nil {
				stream.Close()
			}
			return
		}
		p.loadCancel = nil
		if err != nil {
			logrus.Errorf("load track %s: %v", track.File, err)
			p.state = models.StateIdle
			p.action = models.AudioActionStop
			p.lock.Unlock()
			p.flushStatus()
			return
		}
		started := p.startLocked(gen, stream)
		p.lock.Unlock()
		p.afterStart(started, track, true)
	})
}

// startLocked plays stream in output. On failure stream is closed and player goes idle.
func (p *Player) startLocked(gen uint64, stream *Stream) bool {
	p.output.SetVolume(p.volume, p.muted)
	err := p.output.Play(stream, func() { p.onStreamEnd(gen) })
	if err != nil {
		logrus.Errorf("play track: %v", err)
		stream.Close()
		p.state = models.StateIdle
		p.action = models.AudioActionStop
		return false
	}
	p.current = stream
	p.state = models.StatePlaying
	logrus.Infof("Playing %s", stream.Track)
	return true
}

// afterStart notifies track change before the playing status, so that status listeners
// already see the new track. Restarting the same track is not a track change.
func (p *Player) afterStart(started bool, track *models.Track, changed bool) {
	if started && changed {
		p.lock.RLock()
		callbacks := p.trackCallbacks
		p.lock.RUnlock()
		for _, cb := range callbacks {
			cb(track)
		}
	}
	p.flushStatus()
	if started {
		p.warmNext(true)
	}
}

// warmNext preloads track that is played next, if something is loaded. If replace is false,
// an existing preload is kept. With repeat one current track is restarted by seeking, so nothing is preloaded.
func (p *Player) warmNext(replace bool) {
	p.lock.RLock()
	active := p.current != nil
	p.lock.RUnlock()
	if !active || p.queue.Repeat() == models.RepeatOne {
		return
	}
	next, ok := p.queue.PeekNext()
	if !ok {
		return
	}
	current, _ := p.queue.Current()
	if next == current {
		return
	}
	if replace {
		p.preloader.Preload(next)
	} else {
		p.preloader.Ensure(next)
	}
}

// called by output once stream has ended
func (p *Player) onStreamEnd(gen uint64) {
	if p.IsRunning() {
		select {
		case p.trackEnded <- gen:
			return
		default:
		}
	}
	p.handleEnd(gen)
}

// handleEnd moves to next track according to repeat mode.
func (p *Player) handleEnd(gen uint64) {
	p.lock.Lock()
	if gen != p.switchGen || p.state != models.StatePlaying {
		p.lock.Unlock()
		return
	}
	logrus.Debug("Track ended")
	p.state = models.StateEnded
	p.action = models.AudioActionEnded
	p.lock.Unlock()
	p.flushStatus()

	switch p.queue.Repeat() {
	case models.RepeatOne:
		p.restartCurrent()
	case models.RepeatAll:
		index, _ := p.queue.Forward()
		p.switchTo(index, models.AudioActionNext)
	default:
		if p.queue.AtEnd() {
			logrus.Info("End of queue")
			p.Stop()
			return
		}
		index, _ := p.queue.Forward()
		p.switchTo(index, models.AudioActionNext)
	}
}

// restartCurrent plays current stream again from start. If stream cannot be seeked, track is reloaded.
func (p *Player) restartCurrent() {
	p.lock.Lock()
	stream := p.current
	index := p.currentIndex
	if stream != nil && stream.Streamer.Seek(0) == nil {
		p.switchGen += 1
		gen := p.switchGen
		p.action = models.AudioActionPlay
		started := p.startLocked(gen, stream)
		if !started {
			p.current = nil
		}
		p.lock.Unlock()
		p.afterStart(started, stream.Track, false)
		return
	}
	p.lock.Unlock()
	logrus.Debug("Restart by reloading track")
	p.switchTo(index, models.AudioActionPlay)
}
