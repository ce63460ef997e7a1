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

// Package toml provides a TOML body strategy for rivaas.dev/bodyparser,
// using github.com/BurntSushi/toml for decoding.
package toml

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"rivaas.dev/bodyparser"
)

// MediaType is the media type [Register] binds.
const MediaType = "application/toml"

// Option configures the TOML strategy.
type Option func(*config)

type config struct {
	strict   bool
	strategy []bodyparser.StrategyOption
}

// WithStrict rejects keys the target struct does not declare.
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

// New creates a strategy decoding a TOML document into map[string]any.
func New(opts ...Option) (*bodyparser.Decoding, error) {
	cfg := applyOptions(opts)

	return bodyparser.NewDecoding("toml", func(data []byte) (any, error) {
		v := map[string]any{}
		if _, err := toml.Decode(string(data), &v); err != nil {
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

// NewTyped creates a strategy decoding TOML into a T.
func NewTyped[T any](opts ...Option) (*bodyparser.Decoding, error) {
	cfg := applyOptions(opts)

	return bodyparser.NewDecoding("toml", func(data []byte) (any, error) {
		var v T
		meta, err := toml.Decode(string(data), &v)
		if err != nil {
			return nil, err
		}
		if undecoded := meta.Undecoded(); cfg.strict && len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
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

// Register binds [New] to [MediaType].
func Register(p *bodyparser.Parser, opts ...Option) error {
	s, err := New(opts...)
	if err != nil {
		return err
	}
	_, err = p.Set(MediaType, s)

	return err
}
