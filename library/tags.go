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
	"net/url"
	"sort"
	"strings"

	"tryffel.net/go/tunedeck/models"
)

// TagMap maps track locators to background search tags. Keys are locators as written
// in the manifest, values are tags.
type TagMap map[string]string

// ParseTagMap parses json object of locator -> tag. Value can also be an object with 'tag' or 'bgTag'.
// Entries with empty tags are dropped.
func ParseTagMap(data []byte) (TagMap, error) {
	raw := map[string]json.RawMessage{}
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("decode tag map: %v", err)
	}

	tags := TagMap{}
	for key, value := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		var tag string
		if err := json.Unmarshal(value, &tag); err != nil {
			fields := map[string]interface{}{}
			if err := json.Unmarshal(value, &fields); err != nil {
				continue
			}
			tag = firstString(fields, append([]string{"tag"}, tagFields...))
		}
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags[key] = tag
		}
	}
	return tags, nil
}

// Lookup finds tag for track locator. Exact locator is tried first, then its url-escaped form,
// and finally any key that is a substring of the locator, longest key first.
func (t TagMap) Lookup(locator string) (string, bool) {
	if len(t) == 0 || locator == "" {
		return "", false
	}
	if tag, ok := t[locator]; ok {
		return tag, true
	}
	escaped := (&url.URL{Path: locator}).EscapedPath()
	if tag, ok := t[escaped]; ok {
		return tag, true
	}
	unescaped, err := url.PathUnescape(locator)
	if err == nil && unescaped != locator {
		if tag, ok := t[unescaped]; ok {
			return tag, true
		}
	}

	for _, key := range t.keysByLength() {
		if strings.Contains(locator, key) || strings.Contains(escaped, key) {
			return t[key], true
		}
	}
	return "", false
}

// Annotate sets BackgroundTag of every track found in map. Tags from manifest itself are overridden.
func (t TagMap) Annotate(tracks []*models.Track) int {
	count := 0
	for _, track := range tracks {
		if track == nil {
			continue
		}
		if tag, ok := t.Lookup(track.File); ok {
			track.BackgroundTag = tag
			count += 1
		}
	}
	return count
}

func (t TagMap) keysByLength() []string {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
