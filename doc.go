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

// Package bodyparser decodes request bodies by their declared Content-Type.
//
// A [Parser] maps content types to strategies. A [Strategy] consumes a
// [stream.Stream] under size and length constraints and returns the decoded
// value. The parser never writes a response: failures are typed errors that
// carry a status code ([*ContentTooLargeError], [*BadRequestError],
// [*RequestAbortedError], [*SyntaxError], [*ValidationError]).
//
// # Quick Start
//
//	p := bodyparser.MustNew() // text/plain and application/json
//
//	ev := &bodyparser.Event{
//	    Request: &bodyparser.Request{
//	        Method:        http.MethodPost,
//	        ContentType:   r.Header.Get("Content-Type"),
//	        ContentLength: max(r.ContentLength, 0),
//	    },
//	    Body: stream.NewReader(r.Context(), r.Body),
//	}
//	if err := p.Parse(r.Context(), ev); err != nil {
//	    http.Error(w, err.Error(), bodyparser.Status(err))
//	    return
//	}
//	// ev.Body now holds the decoded value
//
// The httpbody package wraps this in net/http middleware.
//
// # Registration Keys
//
// Keys are literal content types, parameterized content types, regular
// expressions or the catch-all "*":
//
//	p.MustSet("application/vnd.api+json", bodyparser.MustNewJSON())
//	p.MustSet("text/html; charset=utf-8", bodyparser.MustNewText())
//	p.MustSet(regexp.MustCompile(`^image/`), bodyparser.MustNewCollector(bodyparser.WithLimitString("8mb")))
//	p.MustSet("*", bodyparser.MustNewCollector())
//
// Resolution tries the content type index first, where the registration
// with the most satisfied parameters wins, then the patterns in
// registration order, then the catch-all. GET and HEAD requests, requests
// without a content type and requests nothing matches are left untouched.
//
// # Strategies
//
// [Collector] returns the raw body as []byte or string. [NewText], [NewJSON],
// [NewXML], [NewForm] and [NewTypedJSON] build on it, as do the yaml, toml,
// msgpack and proto subpackages. Every strategy shares the same limit,
// truncation, abort and listener cleanup behavior.
//
// # Event Targets
//
// A parser can run as a listener on the "kernel.parse" event of an
// [events.Target]:
//
//	bus := events.NewBus()
//	p.Subscribe(bus, 100)
//	err := bus.Emit(ctx, bodyparser.ParseEvent, ev)
//
// # Observability
//
// [WithLogger], [WithDiagnostics], [WithMeterProvider] and
// [WithTracerProvider] wire slog and OpenTelemetry. Metrics and spans are
// no-ops unless a provider is set.
package bodyparser
