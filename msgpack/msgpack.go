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

// Package msgpack provides a MessagePack body strategy for
// rivaas.dev/bodyparser, using github.com/vmihailenco/msgpack/v5 for
// decoding.
//
// Example:
//
//	type Message struct {
//	    ID      int64  `msgpack:"id"`
//	    Content string `msgpack:"content"`
//	}
//
//	p.MustSet(msgpack.MediaTypes[0], msgpack.MustNewTyped[Message](msgpack.WithDisallowUnknown()))
package msgpack

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"rivaas.dev/bodyparser"
)

// MediaTypes lists the media types [Register] binds.
var MediaTypes = []string{"application/msgpack", "application/x-msgpack", "application/vnd.msgpack"}

// Option configures the MessagePack strategy.
type Option func(*config)

type config struct {
	useJSONTag      bool
	disallowUnknown bool
	strategy        []bodyparser.StrategyOption
}

// WithJSONTag uses json struct tags for field names instead of msgpack tags.
func WithJSONTag() Option {
	return func(c *config) { c.useJSONTag = true }
}

// WithDisallowUnknown rejects map keys the target struct does not declare.
func WithDisallowUnknown() Option {
	return func(c *config) { c.disallowUnknown = true }
}

// WithStrategyOptions passes size options to the underlying collector.
func WithStrategyOptions(opts ...bodyparser.StrategyOption) Option {
	return func(c *config) { c.strategy = append(c.strategy, opts...) }
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// New creates a strategy decoding MessagePack into any. Maps with string
// keys become map[string]any.
func New(opts ...Option) (*bodyparser.Decoding, error) {
	cfg := applyOptions(opts)

	return bodyparser.NewDecoding("msgpack", func(data []byte) (any, error) {
		var v any
		if err := decode(data, &v, cfg); err != nil {
			return nil, err
		}

		return v, nil
	}, cfg.strategy...)
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *bodyparser.Decoding {
	d, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return d
}

// NewTyped creates a strategy decoding MessagePack into a T.
func NewTyped[T any](opts ...Option) (*bodyparser.Decoding, error) {
	cfg := applyOptions(opts)

	return bodyparser.NewDecoding("msgpack", func(data []byte) (any, error) {
		var v T
		if err := decode(data, &v, cfg); err != nil {
			return nil, err
		}

		return v, nil
	}, cfg.strategy...)
}

// MustNewTyped is like [NewTyped] but panics on error.
func MustNewTyped[T any](opts ...Option) *bodyparser.Decoding {
	d, err := NewTyped[T](opts...)
	if err != nil {
		panic(err)
	}

	return d
}

// Register binds [New] to every entry of [MediaTypes].
func Register(p *bodyparser.Parser, opts ...Option) error {
	s, err := New(opts...)
	if err != nil {
		return err
	}
	for _, mt := range MediaTypes {
		if _, err := p.Set(mt, s); err != nil {
			return err
		}
	}

	return nil
}

func decode(data []byte, out any, cfg *config) error {
	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	if cfg.useJSONTag {
		dec.SetCustomStructTag("json")
	}
	if cfg.disallowUnknown {
		dec.DisallowUnknownFields(true)
	}

	if err := dec.Decode(out); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("%d unexpected bytes after value", r.Len())
	}

	return nil
}
