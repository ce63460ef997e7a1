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

package httpbody

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"rivaas.dev/bodyparser/problem"
)

// ErrorHandler writes the response for a failed parse.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures the middleware.
type Option func(*config)

type config struct {
	errorHandler ErrorHandler
	logger       *slog.Logger
	skipPaths    map[string]bool
	inflate      bool
	requestID    func(r *http.Request) string
	chunkSize    int
}

func defaultConfig() *config {
	return &config{
		errorHandler: problem.Handler(problem.NewRFC9457("")),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		skipPaths:    make(map[string]bool),
		inflate:      true,
		requestID:    requestID,
	}
}

// requestID reuses X-Request-ID when the client sent one.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}

	return uuid.Must(uuid.NewV7()).String()
}

// WithErrorHandler replaces the default RFC 9457 error response.
//
// Example:
//
//	httpbody.New(p, httpbody.WithErrorHandler(problem.Handler(problem.NewSimple())))
func WithErrorHandler(h ErrorHandler) Option {
	return func(cfg *config) {
		if h != nil {
			cfg.errorHandler = h
		}
	}
}

// WithLogger sets the logger for failed parses. Failures are logged at
// Debug for client errors and Warn otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithSkipPaths sets request paths whose bodies are never parsed.
//
// Example:
//
//	httpbody.New(p, httpbody.WithSkipPaths("/upload/raw", "/metrics"))
func WithSkipPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, path := range paths {
			cfg.skipPaths[path] = true
		}
	}
}

// WithInflate controls Content-Encoding decoding. When disabled, encoded
// bodies are handed to the parser as they arrived.
// Default: true
func WithInflate(enabled bool) Option {
	return func(cfg *config) {
		cfg.inflate = enabled
	}
}

// WithChunkSize sets the read size of the body stream.
func WithChunkSize(n int) Option {
	return func(cfg *config) {
		cfg.chunkSize = n
	}
}
