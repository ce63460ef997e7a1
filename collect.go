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

package bodyparser

import (
	"bytes"
	"context"
	"sync"

	"rivaas.dev/bodyparser/stream"
)

// Collector reads a whole body into memory under size constraints.
//
// It checks the declared Content-Length against the limit before reading,
// rejects bodies that are longer or shorter than declared, rejects bodies
// above the limit as soon as the offending chunk arrives, and reports client
// aborts. Every listener it attaches is removed before Parse returns.
//
// A Collector is immutable and safe for concurrent use.
type Collector struct {
	name     string
	output   OutputKind
	limit    int64
	hasLimit bool
}

// NewCollector creates a [Collector]. The default output is [OutputBytes]
// with no size limit.
func NewCollector(opts ...StrategyOption) (*Collector, error) {
	cfg, err := newStrategyConfig(nil, opts)
	if err != nil {
		return nil, err
	}

	return newCollector("raw", cfg), nil
}

// MustNewCollector is like [NewCollector] but panics on error.
func MustNewCollector(opts ...StrategyOption) *Collector {
	c, err := NewCollector(opts...)
	if err != nil {
		panic(err)
	}

	return c
}

func newCollector(name string, cfg *strategyConfig) *Collector {
	return &Collector{name: name, output: cfg.output, limit: cfg.limit, hasLimit: cfg.hasLimit}
}

// Name returns "raw", or "text" for collectors made by [NewText].
func (c *Collector) Name() string { return c.name }

// Output returns the configured output kind.
func (c *Collector) Output() OutputKind { return c.output }

// Limit returns the size limit and whether one is set.
func (c *Collector) Limit() (int64, bool) { return c.limit, c.hasLimit }

// Parse implements [Strategy]. The value is a []byte or a string depending
// on the output kind.
func (c *Collector) Parse(ctx context.Context, req *Request, body stream.Stream) (any, error) {
	data, err := c.Collect(ctx, req, body)
	if err != nil {
		return nil, err
	}
	if c.output == OutputString {
		return string(data), nil
	}

	return data, nil
}

// Collect reads the body and returns its bytes regardless of output kind.
func (c *Collector) Collect(ctx context.Context, req *Request, body stream.Stream) ([]byte, error) {
	if body == nil {
		return nil, ErrBodyNotStream
	}

	var declared int64
	if req != nil && req.ContentLength > 0 {
		declared = req.ContentLength
	}
	if c.hasLimit && declared > c.limit {
		return nil, &ContentTooLargeError{Limit: c.limit, Received: declared}
	}

	col := &collection{
		declared: declared,
		limit:    c.limit,
		hasLimit: c.hasLimit,
		track:    declared > 0 || c.hasLimit,
		done:     make(chan struct{}),
	}

	ids := [...]stream.ListenerID{
		body.AddListener(stream.EventData, col.onData),
		body.AddListener(stream.EventEnd, col.onEnd),
		body.AddListener(stream.EventError, col.onError),
		body.AddListener(stream.EventAborted, col.onAborted),
	}
	defer func() {
		for i, ev := range stream.Events {
			body.RemoveListener(ev, ids[i])
		}
	}()

	if body.IsPaused() {
		body.Resume()
	}

	select {
	case <-col.done:
	case <-ctx.Done():
		col.fail(ctx.Err())
	}

	data, err := col.result()
	if err != nil {
		body.Pause()
		return nil, err
	}

	return data, nil
}

// collection is the per-call state of a Collector.
type collection struct {
	declared int64
	limit    int64
	hasLimit bool
	track    bool

	mu      sync.Mutex
	buf     bytes.Buffer
	n       int64
	settled bool
	err     error
	done    chan struct{}
}

func (c *collection) onData(chunk []byte, _ error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settled {
		return
	}
	if c.track {
		next := c.n + int64(len(chunk))
		switch {
		case c.declared > 0 && next > c.declared:
			c.settleLocked(&BadRequestError{Declared: c.declared, Received: next})
			return
		case c.hasLimit && next > c.limit:
			c.settleLocked(&ContentTooLargeError{Limit: c.limit, Received: next})
			return
		}
		c.n = next
	}
	c.buf.Write(chunk)
}

func (c *collection) onEnd([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.settled {
		return
	}
	if actual := int64(c.buf.Len()); c.declared > 0 && actual != c.declared {
		c.settleLocked(&BadRequestError{Declared: c.declared, Received: actual})
		return
	}
	c.settleLocked(nil)
}

func (c *collection) onError(_ []byte, err error) {
	if err == nil {
		err = ErrStreamFailed
	}
	c.fail(err)
}

func (c *collection) onAborted([]byte, error) {
	c.fail(&RequestAbortedError{})
}

func (c *collection) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.settled {
		c.settleLocked(err)
	}
}

func (c *collection) settleLocked(err error) {
	c.settled = true
	c.err = err
	close(c.done)
}

func (c *collection) result() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}

	if c.buf.Len() == 0 {
		return []byte{}, nil
	}

	return c.buf.Bytes(), nil
}
