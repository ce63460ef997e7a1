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

import (
	"context"
	"errors"
	"io"
	"sync"
)

// DefaultChunkSize is the read buffer size used by [Reader].
const DefaultChunkSize = 32 * 1024

// ReaderOption configures a [Reader].
type ReaderOption func(*Reader)

// WithChunkSize sets the maximum size of a single data chunk.
// Non-positive values are ignored.
func WithChunkSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// Reader turns an [io.Reader] into a [Stream].
//
// A single goroutine reads the source and emits events in order. It is
// started by the first Resume and blocks while the stream is paused. When
// ctx is cancelled before the source is exhausted, Reader emits
// [EventAborted] instead of [EventEnd]; in net/http the request context is
// cancelled when the client disconnects.
//
// Every Reader ends with exactly one of [EventEnd], [EventError] or
// [EventAborted]. Call Close to release the goroutine when the body is
// abandoned while paused.
type Reader struct {
	Emitter

	ctx       context.Context
	src       io.Reader
	chunkSize int

	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	started bool
	closed  bool
	done    chan struct{}
}

// NewReader creates a paused [Reader] over src.
func NewReader(ctx context.Context, src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{
		ctx:       ctx,
		src:       src,
		chunkSize: DefaultChunkSize,
		paused:    true,
		done:      make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// IsPaused reports whether the reader is holding back events.
func (r *Reader) IsPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.paused
}

// Pause stops emitting after the chunk in flight.
func (r *Reader) Pause() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
}

// Resume starts the read loop on first use and lets it continue.
func (r *Reader) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.paused = false
	if !r.started {
		r.started = true
		go r.pump()
	}
	r.cond.Broadcast()
}

// Close stops the read loop without emitting further events.
// It does not close the underlying source.
func (r *Reader) Close() error {
	r.mu.Lock()
	r.closed = true
	started := r.started
	r.cond.Broadcast()
	r.mu.Unlock()

	if !started {
		r.finish()
	}

	return nil
}

// Done is closed once the read loop has exited.
func (r *Reader) Done() <-chan struct{} { return r.done }

func (r *Reader) finish() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// wait blocks while paused. It returns false when the reader was closed.
func (r *Reader) wait() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.paused && !r.closed && r.ctx.Err() == nil {
		r.cond.Wait()
	}

	return !r.closed
}

func (r *Reader) pump() {
	defer r.finish()

	stop := context.AfterFunc(r.ctx, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer stop()

	buf := make([]byte, r.chunkSize)
	for {
		if !r.wait() {
			return
		}
		if r.ctx.Err() != nil {
			r.Emit(EventAborted, nil, nil)
			return
		}

		n, err := r.src.Read(buf)
		if n > 0 {
			r.Emit(EventData, buf[:n], nil)
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			r.Emit(EventEnd, nil, nil)
		case r.ctx.Err() != nil:
			r.Emit(EventAborted, nil, nil)
		default:
			r.Emit(EventError, nil, err)
		}

		return
	}
}
