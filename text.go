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
	"encoding/json"
	"errors"
	"io"

	"rivaas.dev/bodyparser/stream"
)

// NewText creates a strategy returning the body as a string. The limit
// defaults to [DefaultLimit]; pass [WithLimit] or [WithoutLimit] to change
// it. The output kind is always [OutputString].
func NewText(opts ...StrategyOption) (*Collector, error) {
	cfg, err := newStrategyConfig([]StrategyOption{WithLimit(DefaultLimit)}, opts)
	if err != nil {
		return nil, err
	}
	cfg.output = OutputString

	return newCollector("text", cfg), nil
}

// MustNewText is like [NewText] but panics on error.
func MustNewText(opts ...StrategyOption) *Collector {
	c, err := NewText(opts...)
	if err != nil {
		panic(err)
	}

	return c
}

var errTrailingData = errors.New("unexpected data after top-level value")

// DecodeFunc decodes a collected body.
type DecodeFunc func(data []byte) (any, error)

// Decoding collects a body with a [Collector] and then decodes it.
// Decode failures are returned as [*SyntaxError]; collection failures are
// returned unchanged.
type Decoding struct {
	format    string
	collector *Collector
	decode    DecodeFunc
}

// NewDecoding creates a decoding strategy for the named format. The limit
// defaults to [DefaultLimit].
func NewDecoding(format string, decode DecodeFunc, opts ...StrategyOption) (*Decoding, error) {
	if decode == nil {
		return nil, ErrNilStrategy
	}
	cfg, err := newStrategyConfig([]StrategyOption{WithLimit(DefaultLimit)}, opts)
	if err != nil {
		return nil, err
	}

	return &Decoding{format: format, collector: newCollector(format, cfg), decode: decode}, nil
}

// Name returns the format name used in errors and metrics.
func (d *Decoding) Name() string { return d.format }

// Limit returns the size limit and whether one is set.
func (d *Decoding) Limit() (int64, bool) { return d.collector.Limit() }

// Parse implements [Strategy].
func (d *Decoding) Parse(ctx context.Context, req *Request, body stream.Stream) (any, error) {
	data, err := d.collector.Collect(ctx, req, body)
	if err != nil {
		return nil, err
	}

	v, err := d.decode(data)
	if err != nil {
		return nil, &SyntaxError{Format: d.format, Err: err}
	}

	return v, nil
}

// NewJSON creates a strategy decoding JSON into any: objects become
// map[string]any, arrays []any and numbers float64 unless [WithJSONNumber]
// is set. The limit defaults to [DefaultLimit].
func NewJSON(opts ...StrategyOption) (*Decoding, error) {
	cfg, err := newStrategyConfig(nil, opts)
	if err != nil {
		return nil, err
	}
	useNumber := cfg.jsonNumber

	return NewDecoding("json", func(data []byte) (any, error) {
		return decodeJSON(data, useNumber)
	}, opts...)
}

// MustNewJSON is like [NewJSON] but panics on error.
func MustNewJSON(opts ...StrategyOption) *Decoding {
	d, err := NewJSON(opts...)
	if err != nil {
		panic(err)
	}

	return d
}

// WithJSONNumber makes JSON strategies decode numbers as [json.Number].
func WithJSONNumber() StrategyOption {
	return func(c *strategyConfig) { c.jsonNumber = true }
}

func decodeJSON(data []byte, useNumber bool) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if useNumber {
		dec.UseNumber()
	}

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}

	return v, nil
}
