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
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"tryffel.net/go/tunedeck/api"
	"tryffel.net/go/tunedeck/api/danbooru"
	"tryffel.net/go/tunedeck/background"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/control"
	"tryffel.net/go/tunedeck/library"
	"tryffel.net/go/tunedeck/models"
	"tryffel.net/go/tunedeck/player"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use: config.AppNameLower,
	Long: `Tunedeck is a headless music player with rotating backgrounds.

It plays tracks from a manifest or playlist in shuffled or ordered queue, and rotates
background images searched from a Danbooru compatible image api. Player is controlled
with websocket clients.
`,

	Run: func(cmd *cobra.Command, args []string) {
		initConfig()
		a, err := initApplication()
		if err != nil {
			logrus.Fatalf("Failed to initialize application: %v", err)
		}
		err = a.run()
		if err != nil {
			logrus.Fatalf("run: %v", err)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file")
}

func initConfig() {
	// default config dir is ~/.config/tunedeck
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		file := config.DefaultConfigFile()
		viper.AddConfigPath(path.Dir(file))
		viper.SetConfigFile(file)
	}

	// env variables
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvPrefix(config.AppNameLower)
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = config.NewConfigFile(cfgFile)
			if err != nil {
				logrus.Fatalf("create config file: %v", err)
			}
		} else {
			logrus.Fatalf("read config file: %v", err)
		}
	}

	err := config.ConfigFromViper()
	if err != nil {
		logrus.Fatalf("read config file: %v", err)
	}

	_, err = config.GetClientID()
	if err != nil {
		logrus.Errorf("client id: %v", err)
	}

	err = config.SaveConfig()
	if err != nil {
		logrus.Fatalf("save config file: %v", err)
	}
	config.ConfigFile = viper.ConfigFileUsed()
}

// initLogging configures logrus. Log is written to log file if one is configured, else to stderr.
func initLogging() (*os.File, error) {
	level, err := logrus.ParseLevel(config.AppConfig.Player.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing log level '%s': %v. Defaulting to INFO.\n",
			config.AppConfig.Player.LogLevel, err)
		level = logrus.InfoLevel
	}

	logrus.SetLevel(level)
	format := &prefixed.TextFormatter{
		ForceColors:     config.AppConfig.Player.LogFile == "",
		ForceFormatting: true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
		QuoteCharacter:  "'",
		Once:            sync.Once{},
	}
	logrus.SetFormatter(format)

	config.LogFile = config.AppConfig.Player.LogFile
	if config.LogFile == "" {
		logrus.SetOutput(os.Stderr)
		return nil, nil
	}
	file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		logrus.SetOutput(os.Stderr)
		return nil, fmt.Errorf("open log file: %v", err)
	}
	logrus.SetOutput(file)
	return file, nil
}

type app struct {
	library    *library.Library
	settings   *config.SettingsStore
	player     *player.Player
	background *background.Pipeline
	control    *control.Server
	logfile    *os.File
}

func initApplication() (*app, error) {
	a := &app{}
	var err error
	a.logfile, err = initLogging()
	if err != nil {
		logrus.Errorf("init logging, using stderr: %v", err)
	}

	logrus.Infof("############# %s v%s ############", config.AppName, config.Version)

	a.settings = config.NewSettingsStore(config.AppConfig.Player.SettingsFile)
	settings := a.settings.Load()
	logrus.Debugf("Settings: repeat %s, shuffle %t, background %t", settings.Repeat, settings.Shuffle,
		settings.BackgroundEnabled)

	err = a.initLibrary()
	if err != nil {
		return nil, err
	}
	err = a.initPlayer()
	if err != nil {
		return nil, fmt.Errorf("init player: %v", err)
	}
	err = a.initBackground()
	if err != nil {
		return nil, fmt.Errorf("init background: %v", err)
	}
	if config.AppConfig.Control.Enabled {
		a.control = control.NewServer(config.AppConfig.Control.Listen, a.player, a.player, a.background, a.settings)
	}
	a.connect()
	return a, nil
}

func (a *app) initLibrary() error {
	conf := config.AppConfig.Library
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()
	a.library = library.NewLoader(http.DefaultClient).Load(ctx, conf.Manifests, conf.TagMaps)
	if len(a.library.Tracks) == 0 {
		logrus.Warningf("No tracks loaded, tried %s", strings.Join(conf.Manifests, ", "))
	} else {
		logrus.Infof("Loaded %d tracks from %s", len(a.library.Tracks), a.library.Source)
	}
	return nil
}

func bufferOptions(conf config.Player) api.BufferOptions {
	opts := api.DefaultBufferOptions()
	// assume 320 kbps
	opts.InitialBytes = conf.HttpBufferingS * 320 * 1000 / 8
	opts.LimitBytes = conf.HttpBufferingLimitMem * 1024 * 1024
	return opts
}

func (a *app) initPlayer() error {
	output, err := player.NewSpeakerOutput(config.AudioBufferPeriod)
	if err != nil {
		return err
	}
	opener := player.NewStreamLoader(http.DefaultClient, bufferOptions(config.AppConfig.Player))
	a.player = player.NewPlayer(a.library.Tracks, output, opener, a.settings)
	return nil
}

func (a *app) initBackground() error {
	searcher, err := danbooru.NewDanbooru(&config.AppConfig.Background, nil)
	if err != nil {
		return err
	}
	loader := background.NewImageLoader(nil)
	display := background.NewFileDisplay(&config.AppConfig.Background)
	a.background = background.NewPipeline(searcher, loader, display, a.settings, a.library.Tags)
	logrus.Infof("Background frames are written to %s", config.AppConfig.Background.OutputFile)
	return nil
}

// connect wires status and change callbacks between components.
func (a *app) connect() {
	a.player.AddTrackChangedCallback(a.background.OnTrackChange)
	a.player.AddStatusCallback(playbackWatcher(a.background))
	if a.control != nil {
		a.player.AddStatusCallback(a.control.OnStatus)
		a.background.AddCallback(a.control.OnBackground)
	}
}

// playbackWatcher forwards playing and paused states to background. Loading and ended are
// passed between tracks and are ignored, the track change itself updates background.
func playbackWatcher(bg interface{ SetPlaying(playing bool) }) func(status models.AudioStatus) {
	return func(status models.AudioStatus) {
		if status.Action == models.AudioActionTimeUpdate {
			return
		}
		switch status.State {
		case models.StatePlaying:
			bg.SetPlaying(true)
		case models.StatePaused, models.StateIdle:
			bg.SetPlaying(false)
		}
	}
}

func (a *app) run() error {
	err := a.player.Start()
	if err != nil {
		return fmt.Errorf("start player: %v", err)
	}
	if a.control != nil {
		err = a.control.Start()
		if err != nil {
			a.stop()
			return err
		}
	}
	a.background.Reconfigure()
	if len(a.library.Tracks) > 0 {
		a.player.PlayCurrent()
	}

	logrus.Info("Application started. Press Ctrl+C to exit.")
	sig := <-catchSignals()
	logrus.Infof("Received signal: %s. Shutting down...", sig)
	a.stop()
	return nil
}

func (a *app) stop() {
	logrus.Info("Stopping application")
	if a.control != nil && a.control.IsRunning() {
		err := a.control.Stop()
		if err != nil {
			logrus.Errorf("stop control server: %v", err)
		}
	}
	a.background.Close()
	a.player.Stop()
	if a.player.IsRunning() {
		err := a.player.Task.Stop()
		if err != nil {
			logrus.Errorf("stop player: %v", err)
		}
	}
	if a.logfile != nil {
		a.logfile.Close()
	}
}

func catchSignals() chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c,
		syscall.SIGINT,
		syscall.SIGTERM)
	return c
}
