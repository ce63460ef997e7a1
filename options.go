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
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Parser].
type Option func(*Parser)

// WithLogger sets the logger for registration and resolution messages.
// Parse errors are never logged. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDiagnostics sets a handler for diagnostic events.
func WithDiagnostics(h DiagnosticHandler) Option {
	return func(p *Parser) { p.diagnostics = h }
}

// WithMeterProvider records parse metrics with mp. The default is a no-op
// provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(p *Parser) {
		if mp != nil {
			p.meterProvider = mp
		}
	}
}

// WithTracerProvider records parse spans with tp. The default is a no-op
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Parser) {
		if tp != nil {
			p.tracerProvider = tp
		}
	}
}

// WithoutDefaults starts the parser with no registrations instead of the
// text/plain and application/json ones.
func WithoutDefaults() Option {
	return func(p *Parser) { p.seedDefaults = false }
}

// WithDefaultFormats also registers application/xml, text/xml and
// application/x-www-form-urlencoded.
func WithDefaultFormats() Option {
	return func(p *Parser) { p.seedFormats = true }
}

// WithStrategy registers s under key during construction. Keys follow the
// rules of [Parser.Set]; an invalid key makes [New] fail.
func WithStrategy(key any, s Strategy) Option {
	return func(p *Parser) {
		p.initial = append(p.initial, registration{key: key, strategy: s})
	}
}
