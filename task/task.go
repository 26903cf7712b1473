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

// Package task provides a simple lifecycle for long-running background loops.
package task

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrRunning is returned when starting a task that is already running.
var ErrRunning = errors.New("task is already running")

// ErrNotRunning is returned when stopping a task that is not running.
var ErrNotRunning = errors.New("task is not running")

// Tasker can be started and stopped.
type Tasker interface {
	Start() error
	Stop() error
}

// Task runs loop in its own goroutine. Loop must return once StopChan is closed.
// Embed Task and call SetLoop before Start.
type Task struct {
	Name string

	lock     sync.Mutex
	running  bool
	loop     func()
	stopChan chan struct{}
	done     chan struct{}
}

// SetLoop sets the function to run.
func (t *Task) SetLoop(loop func()) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.loop = loop
}

// StopChan is closed when task is requested to stop.
func (t *Task) StopChan() <-chan struct{} {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.stopChan == nil {
		t.stopChan = make(chan struct{})
	}
	return t.stopChan
}

// IsRunning returns true if loop is running.
func (t *Task) IsRunning() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.running
}

// Start starts loop in background.
func (t *Task) Start() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.running {
		return ErrRunning
	}
	if t.loop == nil {
		return errors.New("task has no loop")
	}
	if t.stopChan == nil {
		t.stopChan = make(chan struct{})
	}
	t.done = make(chan struct{})
	t.running = true
	loop := t.loop
	done := t.done
	logrus.Debugf("start task %s", t.Name)
	go func() {
		defer close(done)
		loop()
	}()
	return nil
}

// Stop signals loop to stop and waits until it has returned.
func (t *Task) Stop() error {
	t.lock.Lock()
	if !t.running {
		t.lock.Unlock()
		return ErrNotRunning
	}
	close(t.stopChan)
	done := t.done
	t.lock.Unlock()

	<-done

	t.lock.Lock()
	t.running = false
	t.stopChan = nil
	t.lock.Unlock()
	logrus.Debugf("stopped task %s", t.Name)
	return nil
}
