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
	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "list-env",
	Short: "List env variables",
	Long: `Any configuration variable can be set with environment variables. This way it would be possible to run
Tunedeck without persisting config file (with e.g. Docker). Tunedeck will still create config file, nevertheless.

# Config overrides
TUNEDECK_LIBRARY_MANIFESTS
TUNEDECK_LIBRARY_TAG_MAPS

TUNEDECK_PLAYER_LOG_FILE
TUNEDECK_PLAYER_LOG_LEVEL
TUNEDECK_PLAYER_HTTP_BUFFERING_S
TUNEDECK_PLAYER_HTTP_BUFFERING_LIMIT_MEM
TUNEDECK_PLAYER_AUDIO_BUFFERING_MS
TUNEDECK_PLAYER_SETTINGS_FILE

TUNEDECK_BACKGROUND_API_URL
TUNEDECK_BACKGROUND_LOGIN
TUNEDECK_BACKGROUND_API_KEY
TUNEDECK_BACKGROUND_OUTPUT_FILE
TUNEDECK_BACKGROUND_WIDTH
TUNEDECK_BACKGROUND_HEIGHT
TUNEDECK_BACKGROUND_FADE_MS
TUNEDECK_BACKGROUND_FADE_FRAMES

TUNEDECK_CONTROL_ENABLED
TUNEDECK_CONTROL_LISTEN

TUNEDECK_CLIENT_ID
`,
}

func init() {
	rootCmd.AddCommand(envCmd)
}
