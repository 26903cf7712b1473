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

package control

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cast"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/models"
)

// Command is a request from client.
type Command struct {
	Command string          `json:"command"`
	Value   json.RawMessage `json:"value,omitempty"`
	// Id is echoed back in the reply, if set.
	Id string `json:"id,omitempty"`
}

// Message types sent to clients
const (
	MessageHello      = "hello"
	MessageStatus     = "status"
	MessageBackground = "background"
	MessageSettings   = "settings"
	MessageTracks     = "tracks"
	MessageOk         = "ok"
	MessageError      = "error"
)

// Message is sent to client, either as a reply to command or pushed on change.
type Message struct {
	Type       string              `json:"type"`
	Id         string              `json:"id,omitempty"`
	Session    string              `json:"session,omitempty"`
	Status     *models.AudioStatus `json:"status,omitempty"`
	Background string              `json:"background,omitempty"`
	Settings   *config.Settings    `json:"settings,omitempty"`
	Tracks     []*models.Track     `json:"tracks,omitempty"`
	Queue      []int               `json:"queue,omitempty"`
	Error      string              `json:"error,omitempty"`
}

var errNoValue = errors.New("value is required")

func decodeValue(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, errNoValue
	}
	var value interface{}
	err := json.Unmarshal(raw, &value)
	if err != nil {
		return nil, fmt.Errorf("decode value: %v", err)
	}
	return value, nil
}

func (c *Command) asFloat() (float64, error) {
	value, err := decodeValue(c.Value)
	if err != nil {
		return 0, err
	}
	return cast.ToFloat64E(value)
}

func (c *Command) asInt() (int, error) {
	value, err := decodeValue(c.Value)
	if err != nil {
		return 0, err
	}
	return cast.ToIntE(value)
}

func (c *Command) asBool() (bool, error) {
	value, err := decodeValue(c.Value)
	if err != nil {
		return false, err
	}
	return cast.ToBoolE(value)
}

func (c *Command) asString() (string, error) {
	value, err := decodeValue(c.Value)
	if err != nil {
		return "", err
	}
	return cast.ToStringE(value)
}

// hasValue returns true if command carries a value.
func (c *Command) hasValue() bool {
	return len(c.Value) > 0 && string(c.Value) != "null"
}
