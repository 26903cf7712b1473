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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/models"
)

var settingsCmd = &cobra.Command{
	Use:   "settings [key] [value]",
	Short: "Show or change persisted settings",
	Long: `Without arguments, print persisted settings. With key and value, change a single setting.
Settings are read by the player on startup.

Keys: repeat (off/one/all), shuffle, bg_enabled, bg_rating, bg_tag, bg_fit (cover/contain),
bg_interval (seconds, 0 disables rotation), volume (0-1)`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		initConfig()
		store := config.NewSettingsStore(config.AppConfig.Player.SettingsFile)
		settings := store.Load()
		if len(args) == 0 {
			printSettings(settings)
			return
		}
		if len(args) == 1 {
			logrus.Fatalf("no value given for '%s'", args[0])
		}

		modify, err := settingModifier(args[0], args[1])
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		settings, err = store.Update(modify)
		if err != nil {
			logrus.Fatalf("save settings: %v", err)
		}
		printSettings(settings)
	},
}

func printSettings(settings config.Settings) {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		logrus.Fatalf("encode settings: %v", err)
	}
	fmt.Fprintln(os.Stdout, string(data))
}

// settingModifier parses value for key and returns function that applies it.
func settingModifier(key, value string) (func(settings *config.Settings), error) {
	key = strings.ToLower(key)
	switch key {
	case "repeat":
		mode, err := models.ParseRepeatMode(value)
		if err != nil {
			return nil, err
		}
		return func(s *config.Settings) { s.Repeat = mode }, nil
	case "shuffle", "bg_enabled":
		enabled, err := cast.ToBoolE(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", key, err)
		}
		if key == "shuffle" {
			return func(s *config.Settings) { s.Shuffle = enabled }, nil
		}
		return func(s *config.Settings) { s.BackgroundEnabled = enabled }, nil
	case "bg_rating":
		rating := strings.ToLower(value)
		if !config.ValidRating(rating) {
			return nil, fmt.Errorf("invalid rating '%s'", value)
		}
		return func(s *config.Settings) { s.Rating = rating }, nil
	case "bg_tag":
		return func(s *config.Settings) { s.SearchTag = strings.TrimSpace(value) }, nil
	case "bg_fit":
		fit, err := config.ParseFitMode(value)
		if err != nil {
			return nil, err
		}
		return func(s *config.Settings) { s.Fit = fit }, nil
	case "bg_interval":
		interval, err := cast.ToIntE(value)
		if err != nil || interval < 0 {
			return nil, fmt.Errorf("invalid interval '%s'", value)
		}
		return func(s *config.Settings) { s.IntervalS = interval }, nil
	case "volume":
		volume, err := cast.ToFloat64E(value)
		if err != nil || volume <= 0 || volume > 1 {
			return nil, fmt.Errorf("volume must be in range (0,1]: '%s'", value)
		}
		return func(s *config.Settings) { s.Volume = volume }, nil
	}
	return nil, fmt.Errorf("unknown setting '%s'", key)
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}
