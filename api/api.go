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

// Package api contains interfaces and http helpers for remote resources: streamed tracks and
// the background image api. Subpackages contain implementations.
package api

import (
	"context"
	"errors"
)

// ErrNoResult is returned when image api returned no usable image.
var ErrNoResult = errors.New("no result")

// ImageSearcher searches candidate background images.
type ImageSearcher interface {
	// SearchImage returns absolute url of a single random image matching tags.
	// If nothing matches, ErrNoResult is returned.
	SearchImage(ctx context.Context, tags string) (string, error)
}

// BufferOptions controls how much of a remote stream is buffered.
type BufferOptions struct {
	// InitialBytes is read before stream is returned to the caller.
	InitialBytes int
	// LimitBytes caps the in-memory buffer. Background download pauses when reached.
	LimitBytes int
}

// DefaultBufferOptions returns buffering of 512 KiB initially, up to 20 MiB total.
func DefaultBufferOptions() BufferOptions {
	return BufferOptions{
		InitialBytes: 512 * 1024,
		LimitBytes:   20 * 1024 * 1024,
	}
}
