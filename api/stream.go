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

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/interfaces"
)

// StreamBuffer is a buffer that reads whole http body in the background and copies it to local buffer.
// Read blocks until there is data available or download has completed.
type StreamBuffer struct {
	lock    *sync.Mutex
	cond    *sync.Cond
	url     string
	client  *http.Client
	buff    *bytes.Buffer
	opts    BufferOptions
	resp    *http.Response
	cancel  context.CancelFunc
	done    bool
	err     error
	closed  bool
	written int64
}

func (s *StreamBuffer) Read(p []byte) (n int, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for s.buff.Len() == 0 && !s.done && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return 0, io.ErrClosedPipe
	}
	if s.buff.Len() == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	n, _ = s.buff.Read(p)
	// wake background reader waiting for free space
	s.cond.Broadcast()
	return n, nil
}

// Close stops background download and releases http response.
func (s *StreamBuffer) Close() error {
	logrus.Debug("Close stream download")
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Broadcast()
	s.lock.Unlock()

	s.cancel()
	if s.resp != nil && s.resp.Body != nil {
		return s.resp.Body.Close()
	}
	return nil
}

// Len returns number of buffered bytes not yet read.
func (s *StreamBuffer) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.buff.Len()
}

// Downloaded returns total bytes downloaded so far.
func (s *StreamBuffer) Downloaded() int64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.written
}

// Complete returns true if whole body has been downloaded.
func (s *StreamBuffer) Complete() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.done && s.err == nil
}

// AudioFormat returns format from response content type.
func (s *StreamBuffer) AudioFormat() (format interfaces.AudioFormat, err error) {
	if s.resp != nil {
		return interfaces.MimeToAudioFormat(s.resp.Header.Get("Content-Type"))
	}
	return interfaces.AudioFormatNil, errors.New("no http response")
}

// NewStreamDownload starts downloading url. It returns once opts.InitialBytes have been buffered,
// or whole body if it is smaller than that, and continues downloading in the background.
func NewStreamDownload(ctx context.Context, url string, headers map[string]string, client *http.Client,
	opts BufferOptions) (*StreamBuffer, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.InitialBytes <= 0 || opts.LimitBytes <= 0 {
		def := DefaultBufferOptions()
		if opts.InitialBytes <= 0 {
			opts.InitialBytes = def.InitialBytes
		}
		if opts.LimitBytes <= 0 {
			opts.LimitBytes = def.LimitBytes
		}
	}
	if opts.LimitBytes < opts.InitialBytes {
		opts.LimitBytes = opts.InitialBytes
	}

	// download outlives ctx, which only limits initial buffering
	downloadCtx, cancel := context.WithCancel(context.Background())
	stream := &StreamBuffer{
		lock:   &sync.Mutex{},
		url:    url,
		client: client,
		buff:   bytes.NewBuffer(make([]byte, 0, opts.InitialBytes)),
		opts:   opts,
		cancel: cancel,
	}
	stream.cond = sync.NewCond(stream.lock)

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("init http request: %v", err)
	}
	for k, v := range headers {
		req.Header.Add(k, v)
	}

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	stream.resp, err = client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("make http request: %v", err)
	}
	if stream.resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(stream.resp.Body, 512))
		stream.resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("http request error, statuscode: %d, body: %s", stream.resp.StatusCode, string(body))
	}

	for {
		if stream.Len() >= opts.InitialBytes {
			logrus.Debugf("Initial buffer target reached (%d bytes)", stream.Len())
			break
		}
		if stream.readData() {
			if stream.Len() == 0 {
				stream.Close()
				if ctx.Err() != nil {
					return nil, fmt.Errorf("initial buffering: %v", ctx.Err())
				}
				return nil, fmt.Errorf("initial buffer failed, no data read")
			}
			return stream, nil
		}
	}

	go stream.bufferBackground()
	return stream, nil
}

func (s *StreamBuffer) bufferBackground() {
	logrus.Debug("Start background stream buffering")
	for {
		s.lock.Lock()
		for s.buff.Len() >= s.opts.LimitBytes && !s.closed {
			logrus.Tracef("Buffer limit reached (%d / %d bytes)", s.buff.Len(), s.opts.LimitBytes)
			s.cond.Wait()
		}
		closed := s.closed
		s.lock.Unlock()
		if closed {
			break
		}
		if s.readData() {
			break
		}
	}
	logrus.Debug("Background stream buffering finished")
}

// readData reads a chunk from the response body into the buffer.
// Returns true if EOF is reached or an error occurs (signaling the caller to stop).
func (s *StreamBuffer) readData() bool {
	buf := make([]byte, 32*1024)
	n, readErr := s.resp.Body.Read(buf)

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.closed {
		return true
	}
	if n > 0 {
		s.buff.Write(buf[:n])
		s.written += int64(n)
		logrus.Tracef("Buffer: %d KiB", s.buff.Len()/1024)
	}
	if readErr != nil {
		s.done = true
		if readErr == io.EOF {
			logrus.Debug("EOF reached while reading stream body")
		} else {
			logrus.Errorf("Error reading stream body: %v", readErr)
			s.err = readErr
		}
	}
	s.cond.Broadcast()
	return s.done
}
