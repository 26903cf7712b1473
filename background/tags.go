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

// Package background rotates decorative background images. Images are searched from the image api
// with tags that depend on current track, decoded, and cross-faded to a display.
package background

import (
	"strings"
	"unicode"

	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/library"
	"tryffel.net/go/tunedeck/models"
)

// ResolveSearchTags returns image api query for track. Tag is taken from the tag map, then
// track itself, then user's search tag and finally the default tag. Rating 'safe' is sent as 'general'.
func ResolveSearchTags(track *models.Track, tags library.TagMap, settings config.Settings) string {
	tag := ""
	if track != nil {
		if mapped, ok := tags.Lookup(track.File); ok {
			tag = mapped
		} else {
			tag = track.BackgroundTag
		}
	}
	if strings.TrimSpace(tag) == "" {
		tag = settings.SearchTag
	}
	tag = normalizeTag(tag)
	if tag == "" {
		tag = config.DefaultSearchTag
	}

	rating := strings.TrimSpace(settings.Rating)
	if rating == "" || rating == "safe" {
		rating = "general"
	}
	return tag + " rating:" + rating
}

// normalizeTag trims tag and replaces inner whitespace with underscores.
func normalizeTag(tag string) string {
	fields := strings.FieldsFunc(tag, unicode.IsSpace)
	return strings.Join(fields, "_")
}
