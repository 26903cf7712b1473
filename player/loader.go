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

package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/api"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/interfaces"
	"tryffel.net/go/tunedeck/models"
)

// Stream is a decoded track that is ready to be played.
type Stream struct {
	Track    *models.Track
	Streamer beep.StreamSeekCloser
	Format   beep.Format
	// Source is the detected container format.
	Source interfaces.AudioFormat
}

// Duration returns total length of stream, or 0 if it's not known.
func (s *Stream) Duration() time.Duration {
	if s == nil || s.Streamer == nil {
		return 0
	}
	n := s.Streamer.Len()
	if n <= 0 {
		return 0
	}
	return s.Format.SampleRate.D(n)
}

// Position returns current position of the decoder.
func (s *Stream) Position() time.Duration {
	if s == nil || s.Streamer == nil {
		return 0
	}
	n := s.Streamer.Position()
	if n < 0 {
		return 0
	}
	return s.Format.SampleRate.D(n)
}

// Close closes decoder and its underlying reader. Closing nil stream is a no-op.
func (s *Stream) Close() error {
	if s == nil || s.Streamer == nil {
		return nil
	}
	err := s.Streamer.Close()
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("close stream: %v", err)
	}
	return nil
}

// Opener opens and decodes tracks.
type Opener interface {
	Open(ctx context.Context, track *models.Track) (*Stream, error)
}

// StreamLoader opens local files and remote http tracks. Remote tracks are buffered in the background
// with api.StreamBuffer.
type StreamLoader struct {
	client *http.Client
	opts   api.BufferOptions
}

// NewStreamLoader creates a new loader. If client is nil, http.DefaultClient is used.
func NewStreamLoader(client *http.Client, opts api.BufferOptions) *StreamLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &StreamLoader{
		client: client,
		opts:   opts,
	}
}

// Open opens track and decodes its header. Context only limits opening and initial buffering.
func (l *StreamLoader) Open(ctx context.Context, track *models.Track) (*Stream, error) {
	if track == nil {
		return nil, errors.New("no track")
	}
	format, formatErr := interfaces.LocatorToAudioFormat(track.File)

	var reader io.ReadCloser
	if track.IsRemote() {
		headers := map[string]string{"User-Agent": config.UserAgent()}
		buff, err := api.NewStreamDownload(ctx, track.File, headers, l.client, l.opts)
		if err != nil {
			return nil, fmt.Errorf("download track: %v", err)
		}
		if formatErr != nil {
			format, err = buff.AudioFormat()
			if err != nil {
				buff.Close()
				return nil, fmt.Errorf("detect audio format: %v", err)
			}
		}
		reader = buff
	} else {
		if formatErr != nil {
			return nil, formatErr
		}
		file, err := os.Open(track.File)
		if err != nil {
			return nil, fmt.Errorf("open track: %v", err)
		}
		reader = file
	}

	streamer, beepFormat, err := decode(reader, format)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("decode audio stream: %v", err)
	}
	logrus.Debugf("Opened %s (%s, %d Hz)", track.File, format, beepFormat.SampleRate.N(time.Second))
	return &Stream{
		Track:    track,
		Streamer: streamer,
		Format:   beepFormat,
		Source:   format,
	}, nil
}

func decode(reader io.ReadCloser, format interfaces.AudioFormat) (beep.StreamSeekCloser, beep.Format, error) {
	switch format {
	case interfaces.AudioFormatMp3:
		return mp3.Decode(reader)
	case interfaces.AudioFormatFlac:
		return flac.Decode(reader)
	case interfaces.AudioFormatWav:
		return wav.Decode(reader)
	case interfaces.AudioFormatOgg:
		return vorbis.Decode(reader)
	default:
		return nil, beep.Format{}, fmt.Errorf("unknown audio format: %s", format)
	}
}
