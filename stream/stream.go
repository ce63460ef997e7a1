// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stream defines the event-driven body stream consumed by parsing
// strategies.
//
// A [Stream] emits four events: [EventData] for every chunk, [EventEnd] once
// the body is exhausted, [EventError] when reading fails, and [EventAborted]
// when the client goes away. A stream starts paused; consumers attach their
// listeners first and then call Resume, so no chunk is emitted before every
// listener is in place.
//
// [Reader] adapts an [io.Reader] such as http.Request.Body to a Stream.
// [Emitter] is the listener registry shared by Reader and by test doubles.
package stream

import (
	"sync"
	"sync/atomic"
)

// Event identifies a stream event.
type Event uint8

// Stream events.
const (
	EventData Event = iota + 1
	EventEnd
	EventError
	EventAborted
)

// Events lists every stream event.
var Events = []Event{EventData, EventEnd, EventError, EventAborted}

// String returns the event name.
func (e Event) String() string {
	switch e {
	case EventData:
		return "data"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	case EventAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Handler receives a stream event. chunk is set for [EventData] and err for
// [EventError]; both are nil otherwise. A handler must not retain chunk.
type Handler func(chunk []byte, err error)

// ListenerID identifies an attached listener for removal.
type ListenerID uint64

// Stream is a pausable source of body events.
type Stream interface {
	// AddListener attaches h to ev and returns an id for RemoveListener.
	AddListener(ev Event, h Handler) ListenerID
	// RemoveListener detaches a listener and reports whether it was attached.
	RemoveListener(ev Event, id ListenerID) bool
	// ListenerCount returns the number of listeners attached to ev.
	ListenerCount(ev Event) int
	// IsPaused reports whether the stream is holding back events.
	IsPaused() bool
	// Pause stops the flow of events.
	Pause()
	// Resume starts or restarts the flow of events.
	Resume()
}

var nextListenerID atomic.Uint64

type listener struct {
	id ListenerID
	h  Handler
}

// Emitter is a listener registry. Its zero value is ready to use and it is
// safe for concurrent use. Handlers run on the emitting goroutine in
// attachment order.
type Emitter struct {
	mu        sync.Mutex
	listeners map[Event][]listener
}

// AddListener attaches h to ev.
func (e *Emitter) AddListener(ev Event, h Handler) ListenerID {
	id := ListenerID(nextListenerID.Add(1))

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[Event][]listener, len(Events))
	}
	e.listeners[ev] = append(e.listeners[ev], listener{id: id, h: h})

	return id
}

// RemoveListener detaches the listener with the given id from ev.
func (e *Emitter) RemoveListener(ev Event, id ListenerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ls := e.listeners[ev]
	for i, l := range ls {
		if l.id == id {
			// Copy so that an in-flight Emit keeps its own snapshot intact.
			next := make([]listener, 0, len(ls)-1)
			next = append(next, ls[:i]...)
			e.listeners[ev] = append(next, ls[i+1:]...)
			return true
		}
	}

	return false
}

// ListenerCount returns the number of listeners attached to ev.
func (e *Emitter) ListenerCount(ev Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.listeners[ev])
}

// Emit calls every listener attached to ev and returns how many were called.
// The listener set is captured before the first call, so handlers may detach
// themselves while being notified.
func (e *Emitter) Emit(ev Event, chunk []byte, err error) int {
	e.mu.Lock()
	ls := e.listeners[ev]
	e.mu.Unlock()

	for _, l := range ls {
		l.h(chunk, err)
	}

	return len(ls)
}
