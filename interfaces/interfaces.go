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
	"tryffel.net/go/tunedeck/models"
)

// QueueController controls play order. Queue is a permutation of track list indices with a cursor pointing
// to currently selected slot.
type QueueController interface {
	// SetShuffle rebuilds queue keeping currently playing track current.
	SetShuffle(enabled bool)
	// SetRepeat sets repeat mode.
	SetRepeat(mode models.RepeatMode)
	// RebuildQueue rebuilds queue with current shuffle setting, keeping current track.
	RebuildQueue()
	// Tracks returns full track list.
	Tracks() []*models.Track
	// QueueOrder returns track indices in play order.
	QueueOrder() []int
}

// Background controls background image rotation.
type Background interface {
	// Refresh fetches a fresh image for current track and swaps it in once decoded.
	Refresh()
	// CurrentURL returns url of image that is currently displayed, or empty.
	CurrentURL() string
	// SetVisible tells whether background is being watched. Rotation pauses when not visible.
	SetVisible(visible bool)
	// Reconfigure re-reads settings, restarting rotation timer if needed.
	Reconfigure()
}
