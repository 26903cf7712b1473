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
	"net/url"
	"path"
	"strings"
)

// Track is a single playable item. Tracks are loaded once from manifest and not mutated afterwards,
// except for annotating BackgroundTag from the tag override map.
type Track struct {
	// File is the resolved locator: local path or http(s) url.
	File   string `json:"file"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
	Cover  string `json:"cover,omitempty"`
	// BackgroundTag overrides background image search for this track.
	BackgroundTag string `json:"bg_tag,omitempty"`
}

// IsRemote returns true if track is streamed over http.
func (t *Track) IsRemote() bool {
	return IsURL(t.File)
}

// DisplayName returns title, or file name if title is empty.
func (t *Track) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	return TitleFromLocator(t.File)
}

func (t *Track) String() string {
	if t.Artist != "" {
		return t.Artist + " - " + t.DisplayName()
	}
	return t.DisplayName()
}

// IsURL returns true if the locator looks like an http url.
func IsURL(locator string) bool {
	return strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://")
}

// TitleFromLocator returns base name of locator without extension. Url-escaped names are unescaped.
func TitleFromLocator(locator string) string {
	name := locator
	if IsURL(locator) {
		if u, err := url.Parse(locator); err == nil {
			name = u.Path
		}
	}
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
