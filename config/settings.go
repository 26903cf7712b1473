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

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"tryffel.net/go/tunedeck/models"
)

// FitMode is how background image is fitted to the canvas.
type FitMode string

const (
	// FitCover fills the canvas, cropping overflow.
	FitCover FitMode = "cover"
	// FitContain shows the whole image, letterboxed.
	FitContain FitMode = "contain"
)

// ParseFitMode returns fit mode, or an error if s is not a valid mode.
func ParseFitMode(s string) (FitMode, error) {
	switch FitMode(strings.ToLower(strings.TrimSpace(s))) {
	case FitCover:
		return FitCover, nil
	case FitContain:
		return FitContain, nil
	}
	return FitCover, fmt.Errorf("invalid fit mode: '%s'", s)
}

// Ratings known to the image api. Short forms are accepted as well.
var validRatings = map[string]bool{
	"safe": true, "general": true, "sensitive": true, "questionable": true, "explicit": true,
	"g": true, "s": true, "q": true, "e": true,
}

// ValidRating returns true if rating can be passed to the image api.
func ValidRating(rating string) bool {
	return validRatings[rating]
}

// Settings are user preferences that are changed at runtime and persisted across sessions.
type Settings struct {
	Repeat            models.RepeatMode `json:"repeat"`
	Shuffle           bool              `json:"shuffle"`
	BackgroundEnabled bool              `json:"bg_enabled"`
	Rating            string            `json:"bg_rating"`
	SearchTag         string            `json:"bg_tag"`
	Fit               FitMode           `json:"bg_fit"`
	// IntervalS is background rotation interval in seconds. 0 disables rotation.
	IntervalS int `json:"bg_interval"`
	// Volume is the last non-zero volume.
	Volume float64 `json:"volume"`
}

// RepeatOne returns true if current track should be repeated.
func (s Settings) RepeatOne() bool {
	return s.Repeat == models.RepeatOne
}

// DefaultSettings returns settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{
		Repeat:            models.RepeatOff,
		Shuffle:           true,
		BackgroundEnabled: true,
		Rating:            "safe",
		SearchTag:         "",
		Fit:               FitCover,
		IntervalS:         0,
		Volume:            1,
	}
}

const (
	settingsRepeat    = "repeat"
	settingsRepeatOne = "repeat_one"
	settingsShuffle   = "shuffle"
	settingsBgEnabled = "bg_enabled"
	settingsRating    = "bg_rating"
	settingsTag       = "bg_tag"
	settingsFit       = "bg_fit"
	settingsInterval  = "bg_interval"
	settingsVolume    = "volume"
)

// SettingsStore persists Settings to a json file. It keeps an in-memory copy that always reflects
// the last successful Load or Save.
type SettingsStore struct {
	lock     sync.Mutex
	file     string
	settings Settings
}

// NewSettingsStore creates a store backed by file. Settings are not read until Load is called.
func NewSettingsStore(file string) *SettingsStore {
	return &SettingsStore{
		file:     file,
		settings: DefaultSettings(),
	}
}

// File returns path of settings file.
func (s *SettingsStore) File() string {
	return s.file
}

// Get returns in-memory settings.
func (s *SettingsStore) Get() Settings {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.settings
}

// Load reads settings from file. Missing or corrupt file results in default settings,
// invalid fields fall back to defaults one by one. Load never fails.
func (s *SettingsStore) Load() Settings {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.settings = readSettings(s.file)
	return s.settings
}

// Save overwrites persisted settings with given settings.
func (s *SettingsStore) Save(settings Settings) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.saveLocked(settings)
}

// Update applies modify to current settings and saves them. In-memory settings are updated
// even if writing file fails, so that running player stays consistent with what user asked.
func (s *SettingsStore) Update(modify func(settings *Settings)) (Settings, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	settings := s.settings
	modify(&settings)
	err := s.saveLocked(settings)
	if err != nil {
		s.settings = settings
	}
	return settings, err
}

func (s *SettingsStore) saveLocked(settings Settings) error {
	v := viper.New()
	v.SetConfigType("json")
	v.Set(settingsRepeat, settings.Repeat.String())
	v.Set(settingsRepeatOne, settings.RepeatOne())
	v.Set(settingsShuffle, settings.Shuffle)
	v.Set(settingsBgEnabled, settings.BackgroundEnabled)
	v.Set(settingsRating, settings.Rating)
	v.Set(settingsTag, settings.SearchTag)
	v.Set(settingsFit, string(settings.Fit))
	v.Set(settingsInterval, settings.IntervalS)
	v.Set(settingsVolume, settings.Volume)

	err := os.MkdirAll(path.Dir(s.file), 0755)
	if err != nil {
		return fmt.Errorf("create settings directory: %v", err)
	}
	err = v.WriteConfigAs(s.file)
	if err != nil {
		return fmt.Errorf("write settings: %v", err)
	}
	s.settings = settings
	return nil
}

func readSettings(file string) Settings {
	settings := DefaultSettings()
	v := viper.New()
	v.SetConfigFile(file)
	v.SetConfigType("json")
	err := v.ReadInConfig()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Debugf("no settings file at %s, using defaults", file)
		} else {
			logrus.Warningf("read settings, using defaults: %v", err)
		}
		return settings
	}

	if v.IsSet(settingsRepeat) {
		mode, err := models.ParseRepeatMode(cast.ToString(v.Get(settingsRepeat)))
		if err != nil {
			logrus.Warningf("settings: %v", err)
		} else {
			settings.Repeat = mode
		}
	} else if v.IsSet(settingsRepeatOne) {
		if one, err := cast.ToBoolE(v.Get(settingsRepeatOne)); err == nil && one {
			settings.Repeat = models.RepeatOne
		}
	}

	readBool(v, settingsShuffle, &settings.Shuffle)
	readBool(v, settingsBgEnabled, &settings.BackgroundEnabled)

	if v.IsSet(settingsRating) {
		rating, err := cast.ToStringE(v.Get(settingsRating))
		if err == nil && ValidRating(rating) {
			settings.Rating = rating
		} else {
			logrus.Warningf("settings: invalid %s '%v'", settingsRating, v.Get(settingsRating))
		}
	}
	if v.IsSet(settingsTag) {
		tag, err := cast.ToStringE(v.Get(settingsTag))
		if err == nil {
			settings.SearchTag = strings.TrimSpace(tag)
		} else {
			logrus.Warningf("settings: invalid %s '%v'", settingsTag, v.Get(settingsTag))
		}
	}
	if v.IsSet(settingsFit) {
		fit, err := ParseFitMode(cast.ToString(v.Get(settingsFit)))
		if err == nil {
			settings.Fit = fit
		} else {
			logrus.Warningf("settings: %v", err)
		}
	}
	if v.IsSet(settingsInterval) {
		interval, err := cast.ToIntE(v.Get(settingsInterval))
		if err == nil && interval >= 0 {
			settings.IntervalS = interval
		} else {
			logrus.Warningf("settings: invalid %s '%v'", settingsInterval, v.Get(settingsInterval))
		}
	}
	if v.IsSet(settingsVolume) {
		volume, err := cast.ToFloat64E(v.Get(settingsVolume))
		if err == nil && volume > 0 && volume <= 1 {
			settings.Volume = volume
		} else {
			logrus.Warningf("settings: invalid %s '%v'", settingsVolume, v.Get(settingsVolume))
		}
	}
	return settings
}

func readBool(v *viper.Viper, key string, target *bool) {
	if !v.IsSet(key) {
		return
	}
	value, err := cast.ToBoolE(v.Get(key))
	if err != nil {
		logrus.Warningf("settings: invalid %s '%v'", key, v.Get(key))
		return
	}
	*target = value
}
