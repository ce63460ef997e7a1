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
	"context"
	"fmt"
	"strings"

	units "github.com/docker/go-units"

	"rivaas.dev/bodyparser/stream"
)

// ParseEvent is the event name the [Parser] subscribes to.
const ParseEvent = "kernel.parse"

// DefaultLimit is the size limit of text based strategies: 10 MiB.
const DefaultLimit int64 = 10 << 20

// Request is the request metadata a strategy needs.
type Request struct {
	// Method is the HTTP method, e.g. "POST".
	Method string

	// ContentType is the raw Content-Type header. Empty means absent.
	ContentType string

	// ContentLength is the declared body size. Zero or negative means the
	// size was not declared.
	ContentLength int64
}

// Event carries a request through parsing. Body holds a [stream.Stream]
// before parsing and the decoded value afterwards.
type Event struct {
	Request *Request
	Body    any
}

// Strategy decodes a request body.
//
// Implementations must not keep per-call state on the receiver: the same
// strategy serves any number of concurrent requests.
type Strategy interface {
	Parse(ctx context.Context, req *Request, body stream.Stream) (any, error)
}

// StrategyFunc adapts a function to [Strategy].
type StrategyFunc func(ctx context.Context, req *Request, body stream.Stream) (any, error)

// Parse calls f.
func (f StrategyFunc) Parse(ctx context.Context, req *Request, body stream.Stream) (any, error) {
	return f(ctx, req, body)
}

// OutputKind selects what a [Collector] returns.
type OutputKind string

const (
	// OutputBytes returns the body as []byte.
	OutputBytes OutputKind = "buffer"
	// OutputString returns the body as string.
	OutputString OutputKind = "string"
)

// StrategyOption configures the built-in strategies.
type StrategyOption func(*strategyConfig)

type strategyConfig struct {
	output   OutputKind
	limit    int64
	hasLimit bool
	limitErr error

	jsonNumber   bool
	strictFields bool
	validator    StructValidator
}

// WithOutput selects the output kind of a [Collector]. Strategies that
// decode the body ignore it.
func WithOutput(kind OutputKind) StrategyOption {
	return func(c *strategyConfig) { c.output = kind }
}

// WithLimit sets the maximum body size in bytes.
func WithLimit(n int64) StrategyOption {
	return func(c *strategyConfig) {
		if n < 0 {
			c.limitErr = fmt.Errorf("%w: %d", ErrInvalidLimit, n)
			return
		}
		c.limit = n
		c.hasLimit = true
		c.limitErr = nil
	}
}

// WithLimitString sets the maximum body size from a human readable value
// such as "100kb" or "10MiB". Units are powers of 1024.
func WithLimitString(s string) StrategyOption {
	return func(c *strategyConfig) {
		n, err := ParseSize(s)
		if err != nil {
			c.limitErr = err
			return
		}
		c.limit = n
		c.hasLimit = true
		c.limitErr = nil
	}
}

// WithoutLimit removes any size limit, including a strategy default.
func WithoutLimit() StrategyOption {
	return func(c *strategyConfig) {
		c.limit = 0
		c.hasLimit = false
		c.limitErr = nil
	}
}

// ParseSize parses a human readable byte size. Plain numbers are bytes;
// "kb", "mb", "gb" and their "KiB" forms are powers of 1024.
func ParseSize(s string) (int64, error) {
	n, err := units.RAMInBytes(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}

	return n, nil
}

func newStrategyConfig(defaults []StrategyOption, opts []StrategyOption) (*strategyConfig, error) {
	cfg := &strategyConfig{output: OutputBytes}
	for _, opt := range defaults {
		opt(cfg)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *strategyConfig) validate() error {
	if c.limitErr != nil {
		return c.limitErr
	}
	if c.output != OutputBytes && c.output != OutputString {
		return fmt.Errorf("%w: got %q", ErrStrategyType, c.output)
	}

	return nil
}
