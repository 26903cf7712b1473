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

package config

import "time"

const (
	AppName      = "Tunedeck"
	AppNameLower = "tunedeck"
	Version      = "0.4.0"
)

// ConfigFile is the config file in use.
var ConfigFile string

// LogFile is the log file in use. Empty when logging to stderr.
var LogFile string

// Audio tuning. Volume is applied on a logarithmic scale between min and max decibels.
const (
	AudioSamplingRate  = 44100
	AudioVolumeLogBase = 2

	AudioMaxVolumedB float64 = 0
	AudioMinVolumedB float64 = -8

	AudioMaxVolume float64 = 1
	AudioMinVolume float64 = 0
)

// AudioBufferPeriod is the speaker buffer length, set from config.
var AudioBufferPeriod = time.Millisecond * 150

const (
	// DefaultSearchTag is used when neither track nor user provides a background tag.
	DefaultSearchTag = "touhou"
	// DefaultImageApi is the Danbooru compatible image api.
	DefaultImageApi = "https://danbooru.donmai.us"
	// BackgroundFadeDuration is the length of background cross-fade.
	BackgroundFadeDuration = 600 * time.Millisecond
	// ImageRequestTimeout limits image api and image download requests.
	ImageRequestTimeout = 15 * time.Second
	// MaxImageSize limits image download size in bytes.
	MaxImageSize = 40 * 1024 * 1024
)
