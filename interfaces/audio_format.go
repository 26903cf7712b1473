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

// Package interfaces contains interfaces that multiple packages use and communicate with.
package interfaces

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
)

// AudioFormat represents supported audio formats.
type AudioFormat string

func (a AudioFormat) String() string {
	return string(a)
}

const (
	AudioFormatFlac AudioFormat = "flac"
	AudioFormatMp3  AudioFormat = "mp3"
	AudioFormatOgg  AudioFormat = "ogg"
	AudioFormatWav  AudioFormat = "wav"
	// AudioFormatNil represents an empty format, used for errors or unknown types.
	AudioFormatNil AudioFormat = ""
)

// SupportedAudioFormats lists all audio formats supported by the player backend.
var SupportedAudioFormats = []AudioFormat{
	AudioFormatFlac,
	AudioFormatMp3,
	AudioFormatOgg,
	AudioFormatWav,
}

// MimeToAudioFormat converts a MIME type string to an AudioFormat. Parameters such as charset are ignored.
// Returns AudioFormatNil and an error if the MIME type is not recognized.
func MimeToAudioFormat(mimeType string) (format AudioFormat, err error) {
	format = AudioFormatNil
	if parsed, _, perr := mime.ParseMediaType(mimeType); perr == nil {
		mimeType = parsed
	}
	switch mimeType {
	case "audio/mpeg", "audio/mp3":
		format = AudioFormatMp3
	case "audio/flac", "audio/x-flac":
		format = AudioFormatFlac
	case "audio/ogg", "audio/vorbis", "application/ogg":
		format = AudioFormatOgg
	case "audio/wav", "audio/x-wav", "audio/wave":
		format = AudioFormatWav
	default:
		err = fmt.Errorf("unidentified audio format: %s", mimeType)
	}
	return
}

// LocatorToAudioFormat guesses format from file extension of a path or url.
func LocatorToAudioFormat(locator string) (AudioFormat, error) {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
	switch ext {
	case "mp3":
		return AudioFormatMp3, nil
	case "flac":
		return AudioFormatFlac, nil
	case "ogg", "oga":
		return AudioFormatOgg, nil
	case "wav", "wave":
		return AudioFormatWav, nil
	}
	return AudioFormatNil, fmt.Errorf("unidentified audio format: '%s'", locator)
}
