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

package stream

import "sync"

// Step is one scripted event.
type Step struct {
	Event Event
	Chunk []byte
	Err   error
}

// Data scripts a data event.
func Data(chunk string) Step { return Step{Event: EventData, Chunk: []byte(chunk)} }

// End scripts an end event.
func End() Step { return Step{Event: EventEnd} }

// Fail scripts an error event.
func Fail(err error) Step { return Step{Event: EventError, Err: err} }

// Abort scripts an aborted event.
func Abort() Step { return Step{Event: EventAborted} }

// Script is a [Stream] that replays fixed steps. It starts paused and plays
// synchronously inside Resume, stopping early when a listener pauses it.
// It is meant for tests of stream consumers.
type Script struct {
	Emitter

	mu       sync.Mutex
	steps    []Step
	next     int
	paused   bool
	resumes  int
	atResume map[Event]int
	playing  bool
}

// NewScript creates a paused [Script].
func NewScript(steps ...Step) *Script {
	return &Script{steps: steps, paused: true}
}

// IsPaused reports whether the script is paused.
func (s *Script) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.paused
}

// Pause stops playback after the current step.
func (s *Script) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// Resume plays the remaining steps until the script ends or is paused.
func (s *Script) Resume() {
	s.mu.Lock()
	s.paused = false
	s.resumes++
	if s.atResume == nil {
		s.atResume = make(map[Event]int, len(Events))
		for _, ev := range Events {
			s.atResume[ev] = s.Emitter.ListenerCount(ev)
		}
	}
	if s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = true
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if s.paused || s.next >= len(s.steps) {
			s.playing = false
			s.mu.Unlock()
			return
		}
		step := s.steps[s.next]
		s.next++
		s.mu.Unlock()

		s.Emit(step.Event, step.Chunk, step.Err)
	}
}

// Resumes returns how many times Resume was called.
func (s *Script) Resumes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resumes
}

// ListenersAtFirstResume returns the listener count per event observed by
// the first Resume, or nil when the script was never resumed.
func (s *Script) ListenersAtFirstResume() map[Event]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.atResume
}

// Played returns the number of steps emitted so far.
func (s *Script) Played() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.next
}

// TotalListeners returns the number of listeners attached across all events.
func (s *Script) TotalListeners() int {
	n := 0
	for _, ev := range Events {
		n += s.ListenerCount(ev)
	}

	return n
}
