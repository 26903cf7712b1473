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
	"math/rand"
	"sync"
	"time"

	"tryffel.net/go/tunedeck/models"
)

// Queue is the play order of the track list: a permutation of track indices [0, n) with a cursor
// pointing to current slot. When shuffle is disabled, order is identity. Empty queue ignores all
// navigation and returns ok=false.
type Queue struct {
	lock     sync.RWMutex
	size     int
	order    []int
	cursor   int
	shuffled bool
	repeat   models.RepeatMode
	// intn returns random int in [0, n)
	intn func(n int) int
}

// NewQueue creates a queue for track list of given size. Queue is not built until Rebuild is called.
func NewQueue(size int) *Queue {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	q := &Queue{
		size:  size,
		order: []int{},
		intn:  rng.Intn,
	}
	return q
}

// Resize changes track list size. Queue is emptied and must be rebuilt.
func (q *Queue) Resize(size int) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if size < 0 {
		size = 0
	}
	q.size = size
	q.order = []int{}
	q.cursor = 0
}

// Rebuild creates a new play order, shuffled or identity, and resets cursor to the first slot.
// It returns a copy of the new order.
func (q *Queue) Rebuild(shuffle bool) []int {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.rebuild(shuffle)
	return q.orderCopy()
}

// RebuildPreservingCurrent rebuilds the order and rotates it so that currently selected track
// stays current at the first slot. If there is no current track, this equals Rebuild.
func (q *Queue) RebuildPreservingCurrent(shuffle bool) []int {
	q.lock.Lock()
	defer q.lock.Unlock()

	current, ok := q.current()
	q.rebuild(shuffle)
	if !ok {
		return q.orderCopy()
	}
	pos := -1
	for i, index := range q.order {
		if index == current {
			pos = i
			break
		}
	}
	if pos > 0 {
		rotated := make([]int, 0, len(q.order))
		rotated = append(rotated, q.order[pos:]...)
		rotated = append(rotated, q.order[:pos]...)
		q.order = rotated
	}
	q.cursor = 0
	return q.orderCopy()
}

func (q *Queue) rebuild(shuffle bool) {
	order := make([]int, q.size)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		// fisher-yates
		for i := len(order) - 1; i > 0; i-- {
			j := q.intn(i + 1)
			order[i], order[j] = order[j], order[i]
		}
	}
	q.order = order
	q.cursor = 0
	q.shuffled = shuffle
}

// PeekNext returns track that would be played next without moving the cursor. With repeat one
// this is the current track, else next slot, wrapping at the end.
func (q *Queue) PeekNext() (int, bool) {
	q.lock.RLock()
	defer q.lock.RUnlock()
	if len(q.order) == 0 {
		return -1, false
	}
	if q.repeat == models.RepeatOne {
		return q.order[q.cursor], true
	}
	return q.order[(q.cursor+1)%len(q.order)], true
}

// Forward moves cursor to next slot, wrapping at the end, and returns the track at new slot.
func (q *Queue) Forward() (int, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.order) == 0 {
		return -1, false
	}
	q.cursor = (q.cursor + 1) % len(q.order)
	return q.order[q.cursor], true
}

// Retreat moves cursor to previous slot, wrapping at the start, and returns the track at new slot.
func (q *Queue) Retreat() (int, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if len(q.order) == 0 {
		return -1, false
	}
	q.cursor = (q.cursor - 1 + len(q.order)) % len(q.order)
	return q.order[q.cursor], true
}

// Select moves cursor to the slot that holds given track. It returns false if track is not in queue.
func (q *Queue) Select(track int) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	for i, index := range q.order {
		if index == track {
			q.cursor = i
			return true
		}
	}
	return false
}

// AtEnd returns true if cursor is at the last slot.
func (q *Queue) AtEnd() bool {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return len(q.order) > 0 && q.cursor == len(q.order)-1
}

// Current returns track at cursor.
func (q *Queue) Current() (int, bool) {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return q.current()
}

func (q *Queue) current() (int, bool) {
	if len(q.order) == 0 {
		return -1, false
	}
	return q.order[q.cursor], true
}

// Cursor returns current slot.
func (q *Queue) Cursor() int {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return q.cursor
}

// Order returns a copy of play order.
func (q *Queue) Order() []int {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return q.orderCopy()
}

func (q *Queue) orderCopy() []int {
	order := make([]int, len(q.order))
	copy(order, q.order)
	return order
}

// Len returns number of slots in queue.
func (q *Queue) Len() int {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return len(q.order)
}

func (q *Queue) SetRepeat(mode models.RepeatMode) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.repeat = mode
}

func (q *Queue) Repeat() models.RepeatMode {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return q.repeat
}

// Shuffled returns true if last rebuild was shuffled.
func (q *Queue) Shuffled() bool {
	q.lock.RLock()
	defer q.lock.RUnlock()
	return q.shuffled
}
