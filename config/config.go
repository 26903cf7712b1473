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

// Package config contains application-wide configurations and constants. Parts of configuration are user-editable
// and per-instance and needs to be persisted. Others are static and meant for tuning the application.
// It also contains the settings store, which persists user preferences changed at runtime.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/ssh/terminal"
)

// AppConfig is a configuration loaded during startup
var AppConfig *Config

type Config struct {
	Library    Library    `yaml:"library"`
	Player     Player     `yaml:"player"`
	Background Background `yaml:"background"`
	Control    Control    `yaml:"control"`
	ClientID   string     `yaml:"client_id"`
}

// Library configures where tracks and tag overrides are loaded from. Locations are tried in order,
// first one that can be read is used.
type Library struct {
	Manifests []string `yaml:"manifests"`
	TagMaps   []string `yaml:"tag_maps"`
}

type Player struct {
	LogFile          string `yaml:"log_file"`
	LogLevel         string `yaml:"log_level"`
	AudioBufferingMs int    `yaml:"audio_buffering_ms"`
	HttpBufferingS   int    `yaml:"http_buffering_s"`
	// memory limit in MiB
	HttpBufferingLimitMem int `yaml:"http_buffering_limit_mem"`
	// SettingsFile stores runtime preferences, see SettingsStore.
	SettingsFile string `yaml:"settings_file"`
}

// Background configures image api and where composited background frames are written.
type Background struct {
	ApiUrl string `yaml:"api_url"`
	Login  string `yaml:"login"`
	ApiKey string `yaml:"api_key"`
	// OutputFile receives jpeg frames of current background.
	OutputFile string `yaml:"output_file"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	FadeMs     int    `yaml:"fade_ms"`
	FadeFrames int    `yaml:"fade_frames"`
}

// Control configures websocket control server.
type Control struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

func (l *Library) sanitize() {
	if len(l.Manifests) == 0 {
		l.Manifests = []string{"assets/data/tracks.json", "tracks.json"}
	}
	if len(l.TagMaps) == 0 {
		l.TagMaps = []string{"assets/data/tags.json", "tags.json"}
	}
}

func (p *Player) sanitize() {
	if p.LogLevel == "" {
		p.LogLevel = logrus.InfoLevel.String()
	}
	if p.AudioBufferingMs == 0 {
		p.AudioBufferingMs = 150
	}
	if p.HttpBufferingS == 0 {
		p.HttpBufferingS = 5
	}
	if p.HttpBufferingLimitMem == 0 {
		p.HttpBufferingLimitMem = 20
	}
	if p.SettingsFile == "" {
		p.SettingsFile = path.Join(configDir(), "settings.json")
	}
}

func (b *Background) sanitize() {
	if b.ApiUrl == "" {
		b.ApiUrl = DefaultImageApi
	}
	b.ApiUrl = strings.TrimSuffix(b.ApiUrl, "/")
	if b.OutputFile == "" {
		baseCacheDir, err := os.UserCacheDir()
		if err != nil {
			baseCacheDir = os.TempDir()
		}
		b.OutputFile = path.Join(baseCacheDir, AppNameLower, "background.jpg")
	}
	if b.Width <= 0 {
		b.Width = 1920
	}
	if b.Height <= 0 {
		b.Height = 1080
	}
	if b.FadeMs <= 0 {
		b.FadeMs = int(BackgroundFadeDuration.Milliseconds())
	}
	if b.FadeFrames <= 0 {
		b.FadeFrames = 12
	}
}

func (c *Control) sanitize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8765"
	}
}

// FadeDuration returns cross-fade duration.
func (b *Background) FadeDuration() time.Duration {
	return time.Duration(b.FadeMs) * time.Millisecond
}

func (c *Config) sanitize() {
	c.Library.sanitize()
	c.Player.sanitize()
	c.Background.sanitize()
	c.Control.sanitize()
}

// initialize new config with some sensible values
func (c *Config) initNewConfig() {
	c.sanitize()
	c.Control.Enabled = true
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return path.Join(os.TempDir(), AppNameLower)
	}
	return path.Join(dir, AppNameLower)
}

// DefaultConfigFile returns path to default config file.
func DefaultConfigFile() string {
	return path.Join(configDir(), AppNameLower+".yaml")
}

// NewConfigFile creates an empty config file and its directory. Empty name uses default config file.
func NewConfigFile(name string) error {
	if name == "" {
		name = DefaultConfigFile()
	}
	err := os.MkdirAll(path.Dir(name), 0755)
	if err != nil {
		return fmt.Errorf("create config directory: %v", err)
	}
	file, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("create config file: %v", err)
	}
	viper.SetConfigFile(name)
	return file.Close()
}

// ReadUserInput reads value from stdin. Name is printed like 'Enter <name>. If mask is true, input is masked.
func ReadUserInput(name string, mask bool) (string, error) {
	fmt.Print("Enter ", name, ": ")
	var val string
	var err error
	if mask {
		// needs cast for windows
		raw, err := terminal.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return "", fmt.Errorf("failed to read user input: %v", err)
		}
		val = string(raw)
		fmt.Println()
	} else {
		reader := bufio.NewReader(os.Stdin)
		val, err = reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read user input: %v", err)
		}
	}
	val = strings.Trim(val, "\n\r")
	return val, nil
}

// ConfigFromViper reads full application configuration from viper.
func ConfigFromViper() error {
	AppConfig = &Config{
		Library: Library{
			Manifests: viper.GetStringSlice("library.manifests"),
			TagMaps:   viper.GetStringSlice("library.tag_maps"),
		},
		Player: Player{
			LogFile:               viper.GetString("player.log_file"),
			LogLevel:              viper.GetString("player.log_level"),
			AudioBufferingMs:      viper.GetInt("player.audio_buffering_ms"),
			HttpBufferingS:        viper.GetInt("player.http_buffering_s"),
			HttpBufferingLimitMem: viper.GetInt("player.http_buffering_limit_mem"),
			SettingsFile:          viper.GetString("player.settings_file"),
		},
		Background: Background{
			ApiUrl:     viper.GetString("background.api_url"),
			Login:      viper.GetString("background.login"),
			ApiKey:     viper.GetString("background.api_key"),
			OutputFile: viper.GetString("background.output_file"),
			Width:      viper.GetInt("background.width"),
			Height:     viper.GetInt("background.height"),
			FadeMs:     viper.GetInt("background.fade_ms"),
			FadeFrames: viper.GetInt("background.fade_frames"),
		},
		Control: Control{
			Enabled: viper.GetBool("control.enabled"),
			Listen:  viper.GetString("control.listen"),
		},
		ClientID: viper.GetString("client_id"),
	}

	if !viper.IsSet("control.enabled") {
		AppConfig.initNewConfig()
	} else {
		AppConfig.sanitize()
	}
	AudioBufferPeriod = time.Millisecond * time.Duration(AppConfig.Player.AudioBufferingMs)

	logrus.Debugf("Effective Config - Player LogLevel: %s", AppConfig.Player.LogLevel)
	logrus.Debugf("Effective Config - Background api: %s", AppConfig.Background.ApiUrl)
	return nil
}

func SaveConfig() error {
	UpdateViper()
	err := viper.WriteConfig()
	if err != nil {
		return fmt.Errorf("save config file: %v", err)
	}
	return nil
}

// set AppConfig. This is needed for testing.
func configFrom(conf *Config) {
	AppConfig = conf
}

func UpdateViper() {
	viper.Set("library.manifests", AppConfig.Library.Manifests)
	viper.Set("library.tag_maps", AppConfig.Library.TagMaps)

	viper.Set("player.log_file", AppConfig.Player.LogFile)
	viper.Set("player.log_level", AppConfig.Player.LogLevel)
	viper.Set("player.audio_buffering_ms", AppConfig.Player.AudioBufferingMs)
	viper.Set("player.http_buffering_s", AppConfig.Player.HttpBufferingS)
	viper.Set("player.http_buffering_limit_mem", AppConfig.Player.HttpBufferingLimitMem)
	viper.Set("player.settings_file", AppConfig.Player.SettingsFile)

	viper.Set("background.api_url", AppConfig.Background.ApiUrl)
	viper.Set("background.login", AppConfig.Background.Login)
	viper.Set("background.api_key", AppConfig.Background.ApiKey)
	viper.Set("background.output_file", AppConfig.Background.OutputFile)
	viper.Set("background.width", AppConfig.Background.Width)
	viper.Set("background.height", AppConfig.Background.Height)
	viper.Set("background.fade_ms", AppConfig.Background.FadeMs)
	viper.Set("background.fade_frames", AppConfig.Background.FadeFrames)

	viper.Set("control.enabled", AppConfig.Control.Enabled)
	viper.Set("control.listen", AppConfig.Control.Listen)
	viper.Set("client_id", AppConfig.ClientID)
}

// GetClientID retrieves the unique client ID for this instance.
// If an ID doesn't exist in the config, it is derived from machine id, or a new UUID if machine id
// is not available. New id is saved to config.
func GetClientID() (string, error) {
	if AppConfig.ClientID != "" {
		return AppConfig.ClientID, nil
	}

	id, err := machineid.ProtectedID(AppNameLower)
	if err != nil {
		logrus.Debugf("machine id not available: %v", err)
		newID, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("failed to generate client UUID: %w", err)
		}
		id = newID.String()
	} else if len(id) > 32 {
		id = id[:32]
	}

	AppConfig.ClientID = id
	logrus.Infof("Generated new Client ID: %s", AppConfig.ClientID)

	err = SaveConfig()
	if err != nil {
		// id is in memory, it will be saved on next successful save.
		logrus.Errorf("Failed to save config after generating Client ID: %v", err)
	}
	return AppConfig.ClientID, nil
}

// UserAgent returns user agent for http requests.
func UserAgent() string {
	ua := fmt.Sprintf("%s/%s", AppName, Version)
	if AppConfig != nil && AppConfig.ClientID != "" {
		ua += fmt.Sprintf(" (client %s)", AppConfig.ClientID)
	}
	return ua
}
