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

// Package library loads track manifest and background tag overrides.
package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/models"
)

// maximum size of manifest or tag map
const maxResourceSize = 16 * 1024 * 1024

// Library is the loaded track list with tag overrides.
type Library struct {
	Tracks []*models.Track
	Tags   TagMap
	// Source is the manifest location that was used.
	Source string
}

// Loader reads resources from local files or http urls.
type Loader struct {
	client *http.Client
}

// NewLoader creates a new loader. If client is nil, http.DefaultClient is used.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{client: client}
}

// Load loads first readable manifest and tag map. Failures are logged and result in empty library;
// missing tag map is not an error at all.
func (l *Loader) Load(ctx context.Context, manifests, tagMaps []string) *Library {
	lib := &Library{Tracks: []*models.Track{}, Tags: TagMap{}}

	for _, location := range tagMaps {
		data, err := l.read(ctx, location)
		if err != nil {
			logrus.Debugf("tag map %s: %v", location, err)
			continue
		}
		tags, err := ParseTagMap(data)
		if err != nil {
			logrus.Warningf("parse tag map %s: %v", location, err)
			continue
		}
		lib.Tags = tags
		logrus.Infof("Loaded %d background tag overrides from %s", len(tags), location)
		break
	}

	var lastErr error
	for _, location := range manifests {
		tracks, err := l.LoadTracks(ctx, location)
		if err != nil {
			lastErr = err
			logrus.Debugf("manifest %s: %v", location, err)
			continue
		}
		lib.Tracks = tracks
		lib.Source = location
		break
	}
	if lib.Source == "" {
		logrus.Errorf("load track list: no manifest could be read (last error: %v)", lastErr)
		return lib
	}

	lib.Tags.Annotate(lib.Tracks)
	logrus.Infof("Loaded %d tracks from %s", len(lib.Tracks), lib.Source)
	return lib
}

// LoadTracks reads a json manifest or a m3u/pls playlist from location.
func (l *Loader) LoadTracks(ctx context.Context, location string) ([]*models.Track, error) {
	data, err := l.read(ctx, location)
	if err != nil {
		return nil, err
	}
	base := baseOf(location)
	if ext := playlistExt(location); ext != "" {
		return parsePlaylist(data, ext, base)
	}
	return parseManifest(data, base)
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	if !models.IsURL(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, err
		}
		if len(data) > maxResourceSize {
			return nil, fmt.Errorf("file too large: %d bytes", len(data))
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("init http request: %v", err)
	}
	req.Header.Set("User-Agent", config.UserAgent())
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("make http request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: statuscode %d", location, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %v", err)
	}
	if len(data) > maxResourceSize {
		return nil, errors.New("response too large")
	}
	return data, nil
}

// base is what relative locators are resolved against: a directory or an url.
type base struct {
	url *url.URL
	dir string
}

func baseOf(location string) base {
	if models.IsURL(location) {
		u, err := url.Parse(location)
		if err == nil {
			return base{url: u}
		}
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		abs = location
	}
	return base{dir: filepath.Dir(abs)}
}

// resolve makes locator absolute. Local relative paths are resolved against manifest directory,
// or working directory if the file only exists there.
func (b base) resolve(locator string) string {
	locator = strings.TrimSpace(locator)
	if models.IsURL(locator) {
		return locator
	}
	if b.url != nil {
		ref, err := url.Parse(locator)
		if err != nil {
			ref = &url.URL{Path: locator}
		}
		return b.url.ResolveReference(ref).String()
	}
	if filepath.IsAbs(locator) {
		return filepath.Clean(locator)
	}
	joined := filepath.Join(b.dir, filepath.FromSlash(locator))
	if _, err := os.Stat(joined); err != nil {
		if abs, err := filepath.Abs(locator); err == nil {
			if _, err := os.Stat(abs); err == nil {
				return abs
			}
		}
	}
	return joined
}

// playlistExt returns lowercase extension if location is a m3u or pls playlist, else empty string.
func playlistExt(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil && u.Host != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".m3u", ".m3u8", ".pls":
		return ext
	}
	return ""
}
