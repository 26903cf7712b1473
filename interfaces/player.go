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

package interfaces

import (
	"time"

	"tryffel.net/go/tunedeck/models"
)

// Player controls media playback. Current status is sent to status callbacks, if set. Multiple status callbacks
// can be set.
type Player interface {
	//PlayCurrent loads and plays track at queue cursor.
	PlayCurrent()
	//TogglePlay toggles pause. If nothing is loaded, current track is started.
	TogglePlay()
	//Pause pauses media that's currently playing. If none, do nothing.
	Pause()
	//Play continues currently paused media.
	Play()
	//Stop stops playing media.
	Stop()
	//Next plays next item in queue.
	Next()
	//Previous plays previous item in queue. Always wraps around.
	Previous()
	//SelectTrack plays track with given index in track list.
	SelectTrack(index int) bool
	//Seek seeks to given position in current track.
	Seek(position time.Duration)
	//SetVolume sets volume to given level in range of [0,1]
	SetVolume(volume float64)
	// ToggleMute toggles between zero and last non-zero volume.
	ToggleMute()
	//Status returns current status
	Status() models.AudioStatus
	//CurrentTrack returns track at queue cursor, or nil.
	CurrentTrack() *models.Track
	//AddStatusCallback adds callback that get's called every time status has changed,
	//including playback progress
	AddStatusCallback(func(status models.AudioStatus))
}
