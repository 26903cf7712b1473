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
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"tryffel.net/go/tunedeck/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Set image api credentials",
	Long: `Prompt for image api login and api key and save them to config file.
Credentials are optional, anonymous requests are rate limited more strictly.`,
	Run: func(cmd *cobra.Command, args []string) {
		initConfig()
		login, err := config.ReadUserInput("login", false)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		key, err := config.ReadUserInput("api key", true)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		config.AppConfig.Background.Login = login
		config.AppConfig.Background.ApiKey = key
		err = config.SaveConfig()
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("Credentials saved to %s\n", config.ConfigFile)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
