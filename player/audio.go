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
	"errors"
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/config"
)

// Output is the active audio slot. It plays one stream at a time. Output does not close streams,
// the caller owns them.
type Output interface {
	// Play replaces current stream with given stream and starts playing. OnEnd is called in a
	// separate goroutine once stream has been played completely.
	Play(stream *Stream, onEnd func()) error
	// SetPaused pauses or continues current stream.
	SetPaused(paused bool)
	// Stop removes current stream.
	Stop()
	// Seek moves current stream to given position.
	Seek(position time.Duration) error
	// SetVolume sets volume in range of [0,1]. Muted output is silent regardless of volume.
	SetVolume(volume float64, muted bool)
	// Position returns position of current stream.
	Position() time.Duration
}

var errNoStream = errors.New("no stream")

// SpeakerOutput plays audio with faiface/beep speaker. Only one SpeakerOutput should exist,
// since it initializes the speaker.
type SpeakerOutput struct {
	sampleRate beep.SampleRate
	stream     *Stream

	// ctrl allows pause
	ctrl *beep.Ctrl
	// volume
	volume *effects.Volume
	// mixer allows replacing streams without restarting speaker
	mixer *beep.Mixer
}

// NewSpeakerOutput initializes speaker and starts playing silence.
func NewSpeakerOutput(bufferPeriod time.Duration) (*SpeakerOutput, error) {
	a := &SpeakerOutput{
		sampleRate: beep.SampleRate(config.AudioSamplingRate),
		ctrl: &beep.Ctrl{
			Streamer: nil,
			Paused:   false,
		},
		volume: &effects.Volume{
			Streamer: nil,
			Base:     config.AudioVolumeLogBase,
			Volume:   config.AudioMaxVolumedB,
			Silent:   false,
		},
		mixer: &beep.Mixer{},
	}
	a.ctrl.Streamer = a.mixer
	a.volume.Streamer = a.ctrl

	if bufferPeriod <= 0 {
		bufferPeriod = time.Millisecond * 150
	}
	err := speaker.Init(a.sampleRate, a.sampleRate.N(bufferPeriod))
	if err != nil {
		return nil, fmt.Errorf("init speaker: %v", err)
	}
	// mixer streams silence when empty, so speaker is never drained
	speaker.Play(a.volume)
	return a, nil
}

func (a *SpeakerOutput) Play(stream *Stream, onEnd func()) error {
	if stream == nil || stream.Streamer == nil {
		return errNoStream
	}
	var s beep.Streamer = stream.Streamer
	if stream.Format.SampleRate != a.sampleRate {
		logrus.Debugf("Resampling stream from %d Hz to %d Hz",
			stream.Format.SampleRate.N(time.Second), a.sampleRate.N(time.Second))
		s = beep.Resample(4, stream.Format.SampleRate, a.sampleRate, s)
	}

	// speaker holds its lock while calling callback
	done := beep.Callback(func() {
		if onEnd != nil {
			go onEnd()
		}
	})

	speaker.Lock()
	a.mixer.Clear()
	a.stream = stream
	a.mixer.Add(beep.Seq(s, done))
	a.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (a *SpeakerOutput) SetPaused(paused bool) {
	speaker.Lock()
	a.ctrl.Paused = paused
	speaker.Unlock()
}

func (a *SpeakerOutput) Stop() {
	speaker.Lock()
	a.mixer.Clear()
	a.stream = nil
	a.ctrl.Paused = false
	speaker.Unlock()
}

func (a *SpeakerOutput) Seek(position time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()
	if a.stream == nil {
		return errNoStream
	}
	n := a.stream.Format.SampleRate.N(position)
	if n < 0 {
		n = 0
	}
	if length := a.stream.Streamer.Len(); length > 0 && n >= length {
		n = length - 1
	}
	err := a.stream.Streamer.Seek(n)
	if err != nil {
		return fmt.Errorf("seek: %v", err)
	}
	return nil
}

func (a *SpeakerOutput) SetVolume(volume float64, muted bool) {
	decibels := volumeTodB(volume)
	logrus.Debugf("Set volume to %.2f (muted: %t) -> %.2f dB", volume, muted, decibels)
	speaker.Lock()
	defer speaker.Unlock()
	// setting volume to min does not mute audio, set silent to true
	if muted || decibels <= config.AudioMinVolumedB {
		a.volume.Silent = true
		a.volume.Volume = config.AudioMinVolumedB
	} else if decibels >= config.AudioMaxVolumedB {
		a.volume.Silent = false
		a.volume.Volume = config.AudioMaxVolumedB
	} else {
		a.volume.Silent = false
		a.volume.Volume = decibels
	}
}

func (a *SpeakerOutput) Position() time.Duration {
	speaker.Lock()
	defer speaker.Unlock()
	return a.stream.Position()
}

// linear scaling with a & b coefficients
var volumeTodBA = (config.AudioMaxVolumedB - config.AudioMinVolumedB) /
	(config.AudioMaxVolume - config.AudioMinVolume)
var volumeTodBB = config.AudioMinVolumedB - volumeTodBA*config.AudioMinVolume

// Transform volume to db
func volumeTodB(volume float64) float64 {
	return volumeTodBA*volume + volumeTodBB
}
