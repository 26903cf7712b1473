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

package models

import (
	"fmt"
	"time"
)

// PlaybackState is the state of the playback engine.
type PlaybackState int

const (
	// StateIdle, no track loaded or playback stopped
	StateIdle PlaybackState = iota
	// StateLoading, track is being opened and decoded
	StateLoading
	// StatePlaying, track is audible
	StatePlaying
	// StatePaused, track is loaded but paused
	StatePaused
	// StateEnded, track has completed and repeat mode has not been applied yet
	StateEnded
)

func (s PlaybackState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler so that status messages carry readable states.
func (s PlaybackState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RepeatMode controls what happens once a track ends.
type RepeatMode int

const (
	// RepeatOff stops after the last track in queue
	RepeatOff RepeatMode = iota
	// RepeatOne restarts current track
	RepeatOne
	// RepeatAll wraps to the start of queue
	RepeatAll
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "off"
	}
}

// Next cycles off -> all -> one -> off.
func (r RepeatMode) Next() RepeatMode {
	switch r {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

func (r RepeatMode) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RepeatMode) UnmarshalText(text []byte) error {
	mode, err := ParseRepeatMode(string(text))
	if err != nil {
		return err
	}
	*r = mode
	return nil
}

// ParseRepeatMode parses 'off', 'one' or 'all'.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "off", "":
		return RepeatOff, nil
	case "one":
		return RepeatOne, nil
	case "all":
		return RepeatAll, nil
	default:
		return RepeatOff, fmt.Errorf("invalid repeat mode: '%s'", s)
	}
}

// AudioAction is an action for audio player, set volume, go to next
type AudioAction int

const (
	// AudioActionTimeUpdate means timed update and no actual action has been taken
	AudioActionTimeUpdate AudioAction = iota
	// AudioActionStop stops playing or paused player
	AudioActionStop
	// AudioActionPlay starts a track
	AudioActionPlay
	// AudioActionPlayPause toggles play/pause
	AudioActionPlayPause
	// AudioActionNext plays next track from queue
	AudioActionNext
	// AudioActionPrevious plays previous track from queue
	AudioActionPrevious
	// AudioActionSeek seeks track
	AudioActionSeek
	// AudioActionSetVolume sets volume or toggles mute
	AudioActionSetVolume

	AudioActionShuffleChanged
	AudioActionRepeatChanged
	// AudioActionEnded, track reached its end
	AudioActionEnded
)

var audioActionNames = map[AudioAction]string{
	AudioActionTimeUpdate:     "time_update",
	AudioActionStop:           "stop",
	AudioActionPlay:           "play",
	AudioActionPlayPause:      "play_pause",
	AudioActionNext:           "next",
	AudioActionPrevious:       "previous",
	AudioActionSeek:           "seek",
	AudioActionSetVolume:      "set_volume",
	AudioActionShuffleChanged: "shuffle_changed",
	AudioActionRepeatChanged:  "repeat_changed",
	AudioActionEnded:          "ended",
}

func (a AudioAction) String() string {
	if name, ok := audioActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a AudioAction) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// AudioStatus contains audio player status
type AudioStatus struct {
	State  PlaybackState `json:"state"`
	Action AudioAction   `json:"action"`

	Track *Track `json:"track,omitempty"`
	// TrackIndex is index in track list, -1 if none
	TrackIndex int `json:"track_index"`
	// QueuePosition is the cursor in queue
	QueuePosition int `json:"queue_position"`

	Position time.Duration `json:"position"`
	Duration time.Duration `json:"duration"`
	// Volume is the effective volume in [0,1]. Muted player reports 0.
	Volume  float64    `json:"volume"`
	Muted   bool       `json:"muted"`
	Shuffle bool       `json:"shuffle"`
	Repeat  RepeatMode `json:"repeat"`
}

// Playing returns true if audio is audible
func (a *AudioStatus) Playing() bool {
	return a.State == StatePlaying
}
