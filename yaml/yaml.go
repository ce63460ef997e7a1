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

// Package yaml provides a YAML body strategy for rivaas.dev/bodyparser,
// using gopkg.in/yaml.v3 for decoding.
//
// Example:
//
//	p := bodyparser.MustNew()
//	if err := yaml.Register(p); err != nil {
//	    // handle error
//	}
//
//	// Or decode into a struct
//	p.MustSet("application/yaml", yaml.MustNewTyped[Config](yaml.WithStrict()))
package yaml

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"rivaas.dev/bodyparser"
)

// MediaTypes lists the media types [Register] binds.
var MediaTypes = []string{"application/yaml", "application/x-yaml", "text/yaml"}

// Option configures the YAML strategy.
type Option func(*config)

type config struct {
	strict   bool
	strategy []bodyparser.StrategyOption
}

// WithStrict rejects mapping keys the target struct does not declare.
// It only affects [NewTyped].
func WithStrict() Option {
	return func(c *config) { c.strict = true }
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

// New creates a strategy decoding the first YAML document into any.
// Mappings become map[string]any.
func New(opts ...Option) (*bodyparser.Decoding, error) {
	cfg := applyOptions(opts)

	return bodyparser.NewDecoding("yaml", func(data []byte) (any, error) {
		var v any
		if err := decode(data, &v, false); err != nil {
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

// NewTyped creates a strategy decoding YAML into a T.
func NewTyped[T any](opts ...Option) (*bodyparser.Decoding, error) {
	cfg := applyOptions(opts)

	return bodyparser.NewDecoding("yaml", func(data []byte) (any, error) {
		var v T
		if err := decode(data, &v, cfg.strict); err != nil {
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

func decode(data []byte, out any, strict bool) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(strict)

	err := dec.Decode(out)
	if errors.Is(err, io.EOF) {
		// An empty document decodes to the zero value.
		return nil
	}

	return err
}
