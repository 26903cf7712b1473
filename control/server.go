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

// Package control exposes player, queue and background to external user interfaces over websocket.
// Clients send json commands and receive replies and pushed status and background updates.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"tryffel.net/go/tunedeck/config"
	"tryffel.net/go/tunedeck/interfaces"
	"tryffel.net/go/tunedeck/models"
	"tryffel.net/go/tunedeck/task"
)

const (
	writeTimeout = 5 * time.Second
	// send buffer per client, messages are dropped for clients that don't keep up
	sendBuffer = 32
	// time updates are pushed at most this often
	statusInterval = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Server is the control server.
type Server struct {
	task.Task

	player     interfaces.Player
	queue      interfaces.QueueController
	background interfaces.Background
	settings   *config.SettingsStore

	listen   string
	server   *http.Server
	listener net.Listener

	lock       sync.Mutex
	clients    map[string]*client
	lastStatus time.Time
}

// NewServer creates a new control server listening on address.
func NewServer(listen string, player interfaces.Player, queue interfaces.QueueController,
	background interfaces.Background, settings *config.SettingsStore) *Server {
	s := &Server{
		player:     player,
		queue:      queue,
		background: background,
		settings:   settings,
		listen:     listen,
		clients:    map[string]*client{},
	}
	s.Name = "Control"
	s.SetLoop(s.loop)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWs)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/background", s.handleBackground)
	mux.HandleFunc("/tracks", s.handleTracks)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start binds listen address and starts serving.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("listen control: %v", err)
	}
	s.listener = listener
	err = s.Task.Start()
	if err != nil {
		listener.Close()
		return err
	}
	logrus.Infof("Control server listening on %s", listener.Addr())
	return nil
}

// Addr returns address server is listening on.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.listen
	}
	return s.listener.Addr().String()
}

func (s *Server) loop() {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.server.Serve(s.listener)
	}()

	select {
	case <-s.StopChan():
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			logrus.Errorf("control server: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("shutdown control server: %v", err)
	}
	// hijacked websocket connections are not closed by shutdown
	s.lock.Lock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.lock.Unlock()
}

// OnStatus pushes player status to clients. Time updates are rate limited.
func (s *Server) OnStatus(status models.AudioStatus) {
	if status.Action == models.AudioActionTimeUpdate {
		s.lock.Lock()
		skip := time.Since(s.lastStatus) < statusInterval-time.Millisecond*50
		if !skip {
			s.lastStatus = time.Now()
		}
		s.lock.Unlock()
		if skip {
			return
		}
	}
	s.broadcast(&Message{Type: MessageStatus, Status: &status})
}

// OnBackground pushes new background url to clients.
func (s *Server) OnBackground(url string) {
	s.broadcast(&Message{Type: MessageBackground, Background: url})
}

// Clients returns number of connected clients.
func (s *Server) Clients() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.clients)
}

func (s *Server) broadcast(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Errorf("encode control message: %v", err)
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for id, c := range s.clients {
		select {
		case c.send <- data:
		default:
			logrus.Warningf("control client %s is too slow, dropping message", id)
		}
	}
}

func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warningf("websocket upgrade: %v", err)
		return
	}
	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	s.lock.Lock()
	s.clients[c.id] = c
	s.lock.Unlock()
	logrus.Infof("Control client %s connected from %s", c.id, r.RemoteAddr)

	done := make(chan struct{})
	go s.writeLoop(c, done)

	status := s.player.Status()
	settings := s.settings.Get()
	s.send(c, &Message{Type: MessageHello, Session: c.id, Status: &status, Settings: &settings,
		Background: s.background.CurrentURL()})

	s.readLoop(c)

	s.lock.Lock()
	delete(s.clients, c.id)
	s.lock.Unlock()
	c.close()
	<-done
	conn.Close()
	logrus.Infof("Control client %s disconnected", c.id)
}

func (s *Server) readLoop(c *client) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.Debugf("read control client %s: %v", c.id, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		cmd := Command{}
		err = json.Unmarshal(data, &cmd)
		if err != nil {
			s.send(c, &Message{Type: MessageError, Error: fmt.Sprintf("decode command: %v", err)})
			continue
		}
		s.send(c, s.Dispatch(cmd))
	}
}

func (s *Server) writeLoop(c *client, done chan struct{}) {
	defer close(done)
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			logrus.Debugf("write control client %s: %v", c.id, err)
			c.conn.Close()
			// drain until reader closes channel
			for range c.send {
			}
			return
		}
	}
}

func (s *Server) send(c *client, msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.Errorf("encode control message: %v", err)
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		logrus.Warningf("control client %s is too slow, dropping reply", c.id)
	}
}

func writeJson(w http.ResponseWriter, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		logrus.Errorf("write response: %v", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJson(w, s.player.Status())
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request) {
	writeJson(w, map[string]string{"url": s.background.CurrentURL()})
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	writeJson(w, map[string]interface{}{
		"tracks": s.queue.Tracks(),
		"queue":  s.queue.QueueOrder(),
	})
}
