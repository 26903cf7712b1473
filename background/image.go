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

package background

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"

	// image formats served by the image api
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/config"
)

// ImageLoader downloads and decodes an image. Only a decoded image is a valid background candidate.
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// HttpImageLoader downloads images over http.
type HttpImageLoader struct {
	client  *http.Client
	maxSize int64
}

// NewImageLoader creates a new loader. If client is nil, http.DefaultClient is used.
func NewImageLoader(client *http.Client) *HttpImageLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HttpImageLoader{
		client:  client,
		maxSize: config.MaxImageSize,
	}
}

func (l *HttpImageLoader) Load(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("init http request: %v", err)
	}
	req.Header.Set("User-Agent", config.UserAgent())
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("make http request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: statuscode %d", resp.StatusCode)
	}
	if resp.ContentLength > l.maxSize {
		return nil, fmt.Errorf("image too large: %d bytes", resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %v", err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, errors.New("image too large")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %v", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("empty image")
	}
	logrus.Debugf("Decoded %s image %dx%d from %s", format, b.Dx(), b.Dy(), url)
	return img, nil
}
