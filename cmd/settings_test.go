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

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/models"
)

func TestSettingModifier(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(t *testing.T, s config.Settings)
	}{
		{"repeat", "all", func(t *testing.T, s config.Settings) { assert.Equal(t, models.RepeatAll, s.Repeat) }},
		{"shuffle", "false", func(t *testing.T, s config.Settings) { assert.False(t, s.Shuffle) }},
		{"bg_enabled", "0", func(t *testing.T, s config.Settings) { assert.False(t, s.BackgroundEnabled) }},
		{"bg_rating", "Sensitive", func(t *testing.T, s config.Settings) { assert.Equal(t, "sensitive", s.Rating) }},
		{"bg_tag", " cirno ", func(t *testing.T, s config.Settings) { assert.Equal(t, "cirno", s.SearchTag) }},
		{"bg_fit", "contain", func(t *testing.T, s config.Settings) { assert.Equal(t, config.FitContain, s.Fit) }},
		{"bg_interval", "45", func(t *testing.T, s config.Settings) { assert.Equal(t, 45, s.IntervalS) }},
		{"volume", "0.25", func(t *testing.T, s config.Settings) { assert.Equal(t, 0.25, s.Volume) }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			modify, err := settingModifier(tt.key, tt.value)
			require.NoError(t, err)
			settings := config.DefaultSettings()
			modify(&settings)
			tt.check(t, settings)
		})
	}
}

func TestSettingModifier_Invalid(t *testing.T) {
	for _, args := range [][2]string{
		{"repeat", "twice"},
		{"shuffle", "perhaps"},
		{"bg_rating", "nsfw"},
		{"bg_fit", "stretch"},
		{"bg_interval", "-3"},
		{"volume", "0"},
		{"volume", "2"},
		{"colour", "red"},
	} {
		_, err := settingModifier(args[0], args[1])
		assert.Error(t, err, args[0])
	}
}

func TestBufferOptions(t *testing.T) {
	opts := bufferOptions(config.Player{HttpBufferingS: 5, HttpBufferingLimitMem: 20})
	assert.Equal(t, 200000, opts.InitialBytes)
	assert.Equal(t, 20*1024*1024, opts.LimitBytes)
}
