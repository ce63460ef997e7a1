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

// Package logging builds the process [slog.Logger].
//
// Three handlers are available: JSON and text from log/slog, and a
// colored console handler backed by github.com/charmbracelet/log for
// local development. Sensitive attributes (password, token, secret,
// api_key, authorization) are redacted by every handler.
//
//	logger := logging.MustNew(
//	    logging.WithHandlerType(logging.JSONHandler),
//	    logging.WithLevel(logging.LevelDebug),
//	    logging.WithServiceName("bodyparserd"),
//	)
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// HandlerType selects the output format.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs human-readable colored logs.
	ConsoleHandler HandlerType = "console"
)

// Level is a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Static errors.
var (
	// ErrInvalidHandler is returned for an unknown [HandlerType].
	ErrInvalidHandler = errors.New("invalid log handler type")

	// ErrInvalidLevel is returned by [ParseLevel] for unknown names.
	ErrInvalidLevel = errors.New("invalid log level")
)

const redacted = "***REDACTED***"

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Option configures the logger.
type Option func(*config)

type config struct {
	handlerType    HandlerType
	output         io.Writer
	level          slog.Leveler
	addSource      bool
	serviceName    string
	serviceVersion string
	replaceAttr    func(groups []string, a slog.Attr) slog.Attr
}

// WithHandlerType selects the handler.
// Default: TextHandler
func WithHandlerType(t HandlerType) Option {
	return func(c *config) { c.handlerType = t }
}

// WithOutput sets the destination.
// Default: os.Stderr
func WithOutput(w io.Writer) Option {
	return func(c *config) { c.output = w }
}

// WithLevel sets the minimum level. Pass a *slog.LevelVar to change the
// level at runtime.
// Default: LevelInfo
func WithLevel(level slog.Leveler) Option {
	return func(c *config) { c.level = level }
}

// WithSource adds the caller's file and line.
func WithSource(enabled bool) Option {
	return func(c *config) { c.addSource = enabled }
}

// WithServiceName adds a "service" attribute to every record.
func WithServiceName(name string) Option {
	return func(c *config) { c.serviceName = name }
}

// WithServiceVersion adds a "version" attribute to every record.
func WithServiceVersion(version string) Option {
	return func(c *config) { c.serviceVersion = version }
}

// WithReplaceAttr rewrites attributes after redaction. It is ignored by
// the console handler.
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(c *config) { c.replaceAttr = fn }
}

// New creates a logger.
func New(opts ...Option) (*slog.Logger, error) {
	c := &config{
		handlerType: TextHandler,
		output:      os.Stderr,
		level:       LevelInfo,
	}
	for _, opt := range opts {
		opt(c)
	}

	handler, err := c.handler()
	if err != nil {
		return nil, err
	}

	logger := slog.New(handler)
	if c.serviceName != "" {
		logger = logger.With("service", c.serviceName)
	}
	if c.serviceVersion != "" {
		logger = logger.With("version", c.serviceVersion)
	}

	return logger, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *slog.Logger {
	logger, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}

	return logger
}

func (c *config) handler() (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level:       c.level,
		AddSource:   c.addSource,
		ReplaceAttr: c.buildReplaceAttr(),
	}

	switch c.handlerType {
	case JSONHandler:
		return slog.NewJSONHandler(c.output, opts), nil
	case TextHandler:
		return slog.NewTextHandler(c.output, opts), nil
	case ConsoleHandler:
		console := charmlog.NewWithOptions(c.output, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    c.addSource,
			Level:           charmlog.DebugLevel,
		})
		return &redactHandler{Handler: console, level: c.level}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidHandler, c.handlerType)
}

func (c *config) buildReplaceAttr() func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if isSensitive(a.Key) {
			return slog.String(a.Key, redacted)
		}
		if c.replaceAttr != nil {
			return c.replaceAttr(groups, a)
		}
		return a
	}
}

func isSensitive(key string) bool {
	switch strings.ToLower(key) {
	case "password", "token", "secret", "api_key", "authorization":
		return true
	}

	return false
}

// redactHandler redacts attributes for handlers without ReplaceAttr and
// follows a runtime level.
type redactHandler struct {
	slog.Handler
	level slog.Leveler
}

func (h *redactHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})

	return h.Handler.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redact(a)
	}

	return &redactHandler{Handler: h.Handler.WithAttrs(clean), level: h.level}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}

func redact(a slog.Attr) slog.Attr {
	if isSensitive(a.Key) {
		return slog.String(a.Key, redacted)
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]any, len(group))
		for i, g := range group {
			clean[i] = redact(g)
		}
		return slog.Group(a.Key, clean...)
	}

	return a
}
