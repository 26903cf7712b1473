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

package library

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/models"
)

// Accepted field names, first non-empty wins.
var (
	locatorFields = []string{"file", "src", "url", "path"}
	titleFields   = []string{"title", "name"}
	artistFields  = []string{"artist"}
	coverFields   = []string{"cover", "image"}
	tagFields     = []string{"bgTag", "bg_tag", "backgroundTag"}
)

// ParseManifest parses json manifest read from location. Manifest is either an array of entries
// or an object with 'tracks' array. Entry is a locator string or an object.
// Entries without locator are skipped. Relative locators are resolved against location.
func ParseManifest(data []byte, location string) ([]*models.Track, error) {
	return parseManifest(data, baseOf(location))
}

func parseManifest(data []byte, b base) ([]*models.Track, error) {
	var entries []json.RawMessage
	err := json.Unmarshal(data, &entries)
	if err != nil {
		wrapped := struct {
			Tracks []json.RawMessage `json:"tracks"`
		}{}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil || wrapped.Tracks == nil {
			return nil, fmt.Errorf("decode manifest: %v", err)
		}
		entries = wrapped.Tracks
	}

	tracks := make([]*models.Track, 0, len(entries))
	for i, raw := range entries {
		track, err := parseEntry(raw, b)
		if err != nil {
			logrus.Warningf("manifest entry %d: %v", i, err)
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func parseEntry(raw json.RawMessage, b base) (*models.Track, error) {
	var locator string
	if err := json.Unmarshal(raw, &locator); err == nil {
		if strings.TrimSpace(locator) == "" {
			return nil, fmt.Errorf("empty locator")
		}
		file := b.resolve(locator)
		return &models.Track{File: file, Title: models.TitleFromLocator(file)}, nil
	}

	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode entry: %v", err)
	}
	locator = firstString(fields, locatorFields)
	if locator == "" {
		return nil, fmt.Errorf("no locator in any of %v", locatorFields)
	}

	track := &models.Track{
		File:          b.resolve(locator),
		Title:         firstString(fields, titleFields),
		Artist:        firstString(fields, artistFields),
		BackgroundTag: firstString(fields, tagFields),
	}
	if cover := firstString(fields, coverFields); cover != "" {
		track.Cover = b.resolve(cover)
	}
	if track.Title == "" {
		track.Title = models.TitleFromLocator(track.File)
	}
	return track, nil
}

func firstString(fields map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if s, ok := fields[key].(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				return s
			}
		}
	}
	return ""
}
