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
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"rivaas.dev/bodyparser/stream"
)

// StructValidator validates a decoded value. *validator.Validate
// satisfies it.
type StructValidator interface {
	Struct(s any) error
}

// WithValidation validates typed values with a shared go-playground
// validator that reports fields by their json names.
func WithValidation() StrategyOption {
	return func(c *strategyConfig) { c.validator = defaultValidator() }
}

// WithValidator validates typed values with v.
func WithValidator(v StructValidator) StrategyOption {
	return func(c *strategyConfig) { c.validator = v }
}

// WithDisallowUnknownFields rejects JSON objects with fields the target
// type does not declare.
func WithDisallowUnknownFields() StrategyOption {
	return func(c *strategyConfig) { c.strictFields = true }
}

var defaultValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}

		return name
	})

	return v
})

// TypedJSON decodes a JSON body into a value of type T.
type TypedJSON[T any] struct {
	collector    *Collector
	validator    StructValidator
	strictFields bool
}

// NewTypedJSON creates a strategy decoding JSON into T. The limit defaults
// to [DefaultLimit]. Parse returns a T.
func NewTypedJSON[T any](opts ...StrategyOption) (*TypedJSON[T], error) {
	cfg, err := newStrategyConfig([]StrategyOption{WithLimit(DefaultLimit)}, opts)
	if err != nil {
		return nil, err
	}

	return &TypedJSON[T]{
		collector:    newCollector("json", cfg),
		validator:    cfg.validator,
		strictFields: cfg.strictFields,
	}, nil
}

// MustNewTypedJSON is like [NewTypedJSON] but panics on error.
func MustNewTypedJSON[T any](opts ...StrategyOption) *TypedJSON[T] {
	s, err := NewTypedJSON[T](opts...)
	if err != nil {
		panic(err)
	}

	return s
}

// Name returns "json".
func (s *TypedJSON[T]) Name() string { return "json" }

// Parse implements [Strategy].
func (s *TypedJSON[T]) Parse(ctx context.Context, req *Request, body stream.Stream) (any, error) {
	return s.Decode(ctx, req, body)
}

// Decode is Parse with a typed result.
func (s *TypedJSON[T]) Decode(ctx context.Context, req *Request, body stream.Stream) (T, error) {
	var zero T

	data, err := s.collector.Collect(ctx, req, body)
	if err != nil {
		return zero, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if s.strictFields {
		dec.DisallowUnknownFields()
	}

	var v T
	if err := dec.Decode(&v); err != nil {
		return zero, &SyntaxError{Format: "json", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return zero, &SyntaxError{Format: "json", Err: errTrailingData}
	}

	if s.validator != nil && isStruct(v) {
		if err := s.validator.Struct(v); err != nil {
			return zero, &ValidationError{Err: err}
		}
	}

	return v, nil
}

func isStruct(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}

	return rv.Kind() == reflect.Struct
}
