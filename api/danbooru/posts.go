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

package danbooru

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
)

type post struct {
	Id             int    `json:"id"`
	FileUrl        string `json:"file_url"`
	LargeFileUrl   string `json:"large_file_url"`
	PreviewFileUrl string `json:"preview_file_url"`
	FileExt        string `json:"file_ext"`
}

// supported image files. Videos and archives cannot be shown as background.
var imageExtensions = map[string]bool{
	"":     true,
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// bestUrl returns best available resolution: original, large, preview.
// Original file is skipped if it is not an image.
func (p *post) bestUrl() string {
	if p.FileUrl != "" && imageExtensions[p.FileExt] {
		return p.FileUrl
	}
	if p.LargeFileUrl != "" {
		return p.LargeFileUrl
	}
	return p.PreviewFileUrl
}

func decodePosts(rc io.Reader) ([]post, error) {
	dto := []post{}
	err := json.NewDecoder(rc).Decode(&dto)
	if err != nil {
		return nil, fmt.Errorf("decode posts: %v", err)
	}
	return dto, nil
}

// resolveUrl makes a possibly relative url absolute against base.
func resolveUrl(base *url.URL, raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url '%s': %v", raw, err)
	}
	return base.ResolveReference(ref).String(), nil
}
