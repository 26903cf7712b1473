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
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/models"
)

// Dispatch runs a command and returns the reply for the client.
func (s *Server) Dispatch(cmd Command) *Message {
	reply, err := s.dispatch(cmd)
	if err != nil {
		logrus.Warningf("control command '%s': %v", cmd.Command, err)
		reply = &Message{Type: MessageError, Error: err.Error()}
	} else if reply == nil {
		reply = &Message{Type: MessageOk}
	}
	reply.Id = cmd.Id
	return reply
}

func (s *Server) dispatch(cmd Command) (*Message, error) {
	logrus.Debugf("control command: %s", cmd.Command)
	switch strings.ToLower(cmd.Command) {
	case "play":
		s.player.Play()
	case "pause":
		s.player.Pause()
	case "toggle", "play_pause":
		s.player.TogglePlay()
	case "stop":
		s.player.Stop()
	case "next":
		s.player.Next()
	case "prev", "previous":
		s.player.Previous()
	case "seek":
		seconds, err := cmd.asFloat()
		if err != nil {
			return nil, fmt.Errorf("seek: %v", err)
		}
		s.player.Seek(time.Duration(seconds * float64(time.Second)))
	case "volume":
		volume, err := cmd.asFloat()
		if err != nil {
			return nil, fmt.Errorf("volume: %v", err)
		}
		s.player.SetVolume(volume)
	case "mute":
		s.player.ToggleMute()
	case "select":
		index, err := cmd.asInt()
		if err != nil {
			return nil, fmt.Errorf("select: %v", err)
		}
		if !s.player.SelectTrack(index) {
			return nil, fmt.Errorf("select: no track %d", index)
		}
	case "shuffle":
		enabled := !s.player.Status().Shuffle
		if cmd.hasValue() {
			var err error
			enabled, err = cmd.asBool()
			if err != nil {
				return nil, fmt.Errorf("shuffle: %v", err)
			}
		}
		s.queue.SetShuffle(enabled)
	case "repeat":
		mode := s.player.Status().Repeat.Next()
		if cmd.hasValue() {
			value, err := cmd.asString()
			if err != nil {
				return nil, fmt.Errorf("repeat: %v", err)
			}
			mode, err = models.ParseRepeatMode(value)
			if err != nil {
				return nil, err
			}
		}
		s.queue.SetRepeat(mode)
	case "rebuild":
		s.queue.RebuildQueue()
	case "status":
		status := s.player.Status()
		return &Message{Type: MessageStatus, Status: &status}, nil
	case "tracks":
		return &Message{Type: MessageTracks, Tracks: s.queue.Tracks(), Queue: s.queue.QueueOrder()}, nil
	case "settings":
		settings := s.settings.Get()
		return &Message{Type: MessageSettings, Settings: &settings}, nil
	case "background":
		return &Message{Type: MessageBackground, Background: s.background.CurrentURL()}, nil
	case "refresh_background":
		s.background.Refresh()
	case "visibility":
		visible, err := cmd.asBool()
		if err != nil {
			return nil, fmt.Errorf("visibility: %v", err)
		}
		s.background.SetVisible(visible)
	case "set_background", "set_rating", "set_tag", "set_fit", "set_interval":
		return s.updateSettings(cmd)
	default:
		return nil, fmt.Errorf("unknown command '%s'", cmd.Command)
	}
	return nil, nil
}

// updateSettings validates and persists a background setting and reconfigures background.
func (s *Server) updateSettings(cmd Command) (*Message, error) {
	var modify func(settings *config.Settings)
	switch strings.ToLower(cmd.Command) {
	case "set_background":
		enabled, err := cmd.asBool()
		if err != nil {
			return nil, fmt.Errorf("set background: %v", err)
		}
		modify = func(settings *config.Settings) { settings.BackgroundEnabled = enabled }
	case "set_rating":
		rating, err := cmd.asString()
		if err != nil {
			return nil, fmt.Errorf("set rating: %v", err)
		}
		rating = strings.ToLower(strings.TrimSpace(rating))
		if !config.ValidRating(rating) {
			return nil, fmt.Errorf("invalid rating '%s'", rating)
		}
		modify = func(settings *config.Settings) { settings.Rating = rating }
	case "set_tag":
		tag := ""
		if cmd.hasValue() {
			var err error
			tag, err = cmd.asString()
			if err != nil {
				return nil, fmt.Errorf("set tag: %v", err)
			}
		}
		modify = func(settings *config.Settings) { settings.SearchTag = strings.TrimSpace(tag) }
	case "set_fit":
		value, err := cmd.asString()
		if err != nil {
			return nil, fmt.Errorf("set fit: %v", err)
		}
		fit, err := config.ParseFitMode(value)
		if err != nil {
			return nil, err
		}
		modify = func(settings *config.Settings) { settings.Fit = fit }
	case "set_interval":
		interval, err := cmd.asInt()
		if err != nil {
			return nil, fmt.Errorf("set interval: %v", err)
		}
		if interval < 0 {
			return nil, fmt.Errorf("invalid interval %d", interval)
		}
		modify = func(settings *config.Settings) { settings.IntervalS = interval }
	}

	settings, err := s.settings.Update(modify)
	if err != nil {
		// settings are applied even if they could not be saved
		logrus.Errorf("save settings: %v", err)
	}
	s.background.Reconfigure()
	s.broadcast(&Message{Type: MessageSettings, Settings: &settings})
	return &Message{Type: MessageSettings, Settings: &settings}, nil
}
