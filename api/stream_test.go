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
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tryffel.net/go/tunedeck/interfaces"
)

func TestNewStreamDownload_ReadsWholeBody(t *testing.T) {
	body := bytes.Repeat([]byte("0123456789abcdef"), 16*1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tunedeck-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(body)
	}))
	defer server.Close()

	stream, err := NewStreamDownload(context.Background(), server.URL+"/song.mp3",
		map[string]string{"User-Agent": "tunedeck-test"}, server.Client(),
		BufferOptions{InitialBytes: 64 * 1024, LimitBytes: 96 * 1024})
	require.NoError(t, err)
	defer stream.Close()

	format, err := stream.AudioFormat()
	require.NoError(t, err)
	assert.Equal(t, interfaces.AudioFormatMp3, format)

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.True(t, stream.Complete())
	assert.Equal(t, int64(len(body)), stream.Downloaded())
}

func TestNewStreamDownload_SmallBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	}))
	defer server.Close()

	stream, err := NewStreamDownload(context.Background(), server.URL, nil, server.Client(), DefaultBufferOptions())
	require.NoError(t, err)
	defer stream.Close()

	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "tiny", string(got))
}

func TestNewStreamDownload_HttpError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewStreamDownload(context.Background(), server.URL, nil, server.Client(), DefaultBufferOptions())
	assert.Error(t, err)
}

func TestStreamBuffer_ReadAfterClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{1}, 1024))
	}))
	defer server.Close()

	stream, err := NewStreamDownload(context.Background(), server.URL, nil, server.Client(), DefaultBufferOptions())
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())

	_, err = stream.Read(make([]byte, 10))
	assert.Error(t, err)
}
