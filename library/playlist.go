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
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"tryffel.net/go/tunedeck/models"
)

// parsePlaylist parses m3u, m3u8 or pls playlist. Titles are taken from #EXTINF lines
// and TitleN keys.
func parsePlaylist(data []byte, ext string, b base) ([]*models.Track, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("playlist is not valid UTF-8")
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	scanner := bufio.NewScanner(bytes.NewReader(data))

	var tracks []*models.Track
	if ext == ".pls" {
		tracks = parsePLS(scanner, b)
	} else {
		tracks = parseM3U(scanner, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read playlist: %v", err)
	}
	return tracks, nil
}

func parseM3U(scanner *bufio.Scanner, b base) []*models.Track {
	tracks := make([]*models.Track, 0)
	title := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(line, "#EXTINF:") {
				if comma := strings.Index(line, ","); comma >= 0 {
					title = strings.TrimSpace(line[comma+1:])
				}
			}
			continue
		}
		tracks = append(tracks, newPlaylistTrack(unquote(line), title, b))
		title = ""
	}
	return tracks
}

func parsePLS(scanner *bufio.Scanner, b base) []*models.Track {
	files := map[int]string{}
	titles := map[int]string{}
	order := make([]int, 0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		val := strings.TrimSpace(line[eq+1:])
		if val == "" {
			continue
		}
		if n, ok := numberedKey(key, "file"); ok {
			if _, exists := files[n]; !exists {
				order = append(order, n)
			}
			files[n] = unquote(val)
		} else if n, ok := numberedKey(key, "title"); ok {
			titles[n] = val
		}
	}

	tracks := make([]*models.Track, 0, len(order))
	for _, n := range order {
		tracks = append(tracks, newPlaylistTrack(files[n], titles[n], b))
	}
	return tracks
}

func numberedKey(key, prefix string) (int, bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(key[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func newPlaylistTrack(locator, title string, b base) *models.Track {
	track := &models.Track{File: b.resolve(locator), Title: title}
	if track.Title == "" {
		track.Title = models.TitleFromLocator(track.File)
	}
	return track
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
