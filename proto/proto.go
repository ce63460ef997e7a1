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

// Package proto provides a Protocol Buffers body strategy for
// rivaas.dev/bodyparser, using google.golang.org/protobuf for decoding.
//
// Example:
//
//	// Assuming generated code for:
//	// message User {
//	//     string name = 1;
//	// }
//	p.MustSet("application/x-protobuf", proto.MustNew(&pb.User{}))
package proto

import (
	"errors"

	"google.golang.org/protobuf/proto"

	"rivaas.dev/bodyparser"
)

// MediaTypes lists the media types [Register] binds.
var MediaTypes = []string{"application/x-protobuf", "application/protobuf", "application/vnd.google.protobuf"}

// Message is an alias for proto.Message to simplify imports.
type Message = proto.Message

var errNilPrototype = errors.New("proto: prototype message is nil")

// Option configures the Protocol Buffers strategy.
type Option func(*config)

type config struct {
	unmarshal proto.UnmarshalOptions
	strategy  []bodyparser.StrategyOption
}

// WithDiscardUnknown ignores unknown fields instead of keeping them.
func WithDiscardUnknown() Option {
	return func(c *config) { c.unmarshal.DiscardUnknown = true }
}

// WithAllowPartial accepts messages with missing required fields.
func WithAllowPartial() Option {
	return func(c *config) { c.unmarshal.AllowPartial = true }
}

// WithRecursionLimit sets the maximum nesting depth.
func WithRecursionLimit(n int) Option {
	return func(c *config) { c.unmarshal.RecursionLimit = n }
}

// WithStrategyOptions passes size options to the underlying collector.
func WithStrategyOptions(opts ...bodyparser.StrategyOption) Option {
	return func(c *config) { c.strategy = append(c.strategy, opts...) }
}

// New creates a strategy decoding the wire format into a new message of
// the same type as prototype. Every Parse allocates its own message.
func New(prototype Message, opts ...Option) (*bodyparser.Decoding, error) {
	if prototype == nil {
		return nil, errNilPrototype
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	unmarshal := cfg.unmarshal
	msgType := prototype.ProtoReflect().Type()

	return bodyparser.NewDecoding("protobuf", func(data []byte) (any, error) {
		msg := msgType.New().Interface()
		if err := unmarshal.Unmarshal(data, msg); err != nil {
			return nil, err
		}

		return msg, nil
	}, cfg.strategy...)
}

// MustNew is like [New] but panics on error.
func MustNew(prototype Message, opts ...Option) *bodyparser.Decoding {
	d, err := New(prototype, opts...)
	if err != nil {
		panic(err)
	}

	return d
}

// Register binds [New] to every entry of [MediaTypes].
func Register(p *bodyparser.Parser, prototype Message, opts ...Option) error {
	s, err := New(prototype, opts...)
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
