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

// Package danbooru implements api.ImageSearcher for Danbooru compatible image boards.
package danbooru

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/api"
	"tryffel.net/go/tunedeck/config"
)

// Danbooru is a client for Danbooru posts api.
type Danbooru struct {
	host      *url.URL
	client    *http.Client
	login     string
	apiKey    string
	userAgent string
}

// NewDanbooru creates a new client. If client is nil, a client with config.ImageRequestTimeout is used.
func NewDanbooru(conf *config.Background, client *http.Client) (*Danbooru, error) {
	host, err := url.Parse(conf.ApiUrl)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %v", err)
	}
	if host.Scheme == "" || host.Host == "" {
		return nil, fmt.Errorf("api url must be absolute: '%s'", conf.ApiUrl)
	}
	if client == nil {
		client = &http.Client{Timeout: config.ImageRequestTimeout}
	}
	return &Danbooru{
		host:      host,
		client:    client,
		login:     conf.Login,
		apiKey:    conf.ApiKey,
		userAgent: config.UserAgent(),
	}, nil
}

func (d *Danbooru) defaultParams() *params {
	p := &params{}
	p.setCredentials(d.login, d.apiKey)
	return p
}

func (d *Danbooru) get(ctx context.Context, path string, params *params) (io.ReadCloser, error) {
	u := d.host.ResolveReference(&url.URL{Path: path})
	if params != nil {
		q := u.Query()
		for k, v := range *params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("init http request: %v", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("make http request: %v", err)
	}
	logrus.Debugf("GET %s: %d (%s)", path, resp.StatusCode, time.Since(start))
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("danbooru api error, statuscode: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// SearchImage returns url of one random post matching tags.
func (d *Danbooru) SearchImage(ctx context.Context, tags string) (string, error) {
	params := *d.defaultParams()
	params.setTags(tags)
	params.setLimit(1)
	params.enableRandom()

	resp, err := d.get(ctx, "/posts.json", &params)
	if err != nil {
		return "", fmt.Errorf("search posts: %v", err)
	}
	defer resp.Close()

	posts, err := decodePosts(resp)
	if err != nil {
		return "", err
	}
	for _, p := range posts {
		raw := p.bestUrl()
		if raw == "" {
			continue
		}
		return resolveUrl(d.host, raw)
	}
	return "", api.ErrNoResult
}
