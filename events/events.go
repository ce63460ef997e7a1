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

// Package events provides named, prioritized event subscription.
//
// [Target] is the contract components subscribe against. [Bus] is an
// in-process implementation that runs handlers sequentially, highest
// priority first:
//
//	bus := events.NewBus()
//	bus.On("kernel.parse", handler, events.WithPriority(10))
//	err := bus.Emit(ctx, "kernel.parse", payload)
package events

import (
	"context"
	"reflect"
	"sort"
	"sync"
)

// Handler handles an emitted event.
//
// Handlers are identified by value for [Target.Off], so implementations
// should be comparable; pointer receivers are the usual choice.
type Handler interface {
	Handle(ctx context.Context, payload any) error
}

// HandlerFunc adapts a function to [Handler].
// Function values cannot be compared, so a HandlerFunc can never be removed
// with Off; use a pointer type when removal is needed.
type HandlerFunc func(ctx context.Context, payload any) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, payload any) error {
	return f(ctx, payload)
}

// Target is a source of named events.
type Target interface {
	// On subscribes h to the named event.
	On(name string, h Handler, opts ...ListenOption)
	// Off removes h from the named event and reports whether it was subscribed.
	Off(name string, h Handler) bool
}

// ListenOption configures a subscription.
type ListenOption func(*listenConfig)

type listenConfig struct {
	priority int
}

// WithPriority sets the subscription priority. Higher priorities run first;
// equal priorities run in subscription order. The default is 0.
func WithPriority(p int) ListenOption {
	return func(c *listenConfig) { c.priority = p }
}

type subscription struct {
	h        Handler
	priority int
	seq      uint64
}

// Bus is an in-process [Target]. It is safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscription
	seq  uint64
}

// NewBus creates an empty [Bus].
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// On subscribes h to the named event.
func (b *Bus) On(name string, h Handler, opts ...ListenOption) {
	cfg := listenConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	subs := append(b.subs[name], subscription{h: h, priority: cfg.priority, seq: b.seq})
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].priority != subs[j].priority {
			return subs[i].priority > subs[j].priority
		}
		return subs[i].seq < subs[j].seq
	})
	b.subs[name] = subs
}

// Off removes the first subscription of h to the named event.
func (b *Bus) Off(name string, h Handler) bool {
	if h == nil || !reflect.TypeOf(h).Comparable() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, s := range subs {
		if !reflect.TypeOf(s.h).Comparable() || s.h != h {
			continue
		}
		next := make([]subscription, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.subs, name)
		} else {
			b.subs[name] = next
		}
		return true
	}

	return false
}

// Count returns the number of handlers subscribed to the named event.
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs[name])
}

// Emit runs the handlers of the named event in priority order and stops at
// the first error, which it returns.
func (b *Bus) Emit(ctx context.Context, name string, payload any) error {
	b.mu.RLock()
	subs := b.subs[name]
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.h.Handle(ctx, payload); err != nil {
			return err
		}
	}

	return nil
}
