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

// Package httpbody runs a [bodyparser.Parser] as net/http middleware.
//
// The middleware turns the request into a parse event, streams the body
// through the parser and stores the decoded value in the request context:
//
//	p := bodyparser.MustNew()
//	mux.Handle("/echo", httpbody.New(p)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    v, ok := httpbody.Value(r.Context())
//	    // ...
//	})))
//
// Requests the parser skips (GET, HEAD, no Content-Type, no matching
// strategy) reach the next handler with their body untouched. Failed parses
// are answered by the error handler, which defaults to RFC 9457 problem
// details.
package httpbody

import (
	"context"
	"io"
	"net/http"

	"rivaas.dev/bodyparser"
	"rivaas.dev/bodyparser/stream"
)

type contextKey struct{}

// Value returns the decoded body stored by the middleware.
func Value(ctx context.Context) (any, bool) {
	v, ok := ctx.Value(contextKey{}).(parsed)
	return v.value, ok
}

// parsed wraps the value so a decoded nil is still reported as present.
type parsed struct{ value any }

// New returns middleware parsing request bodies with p.
func New(p *bodyparser.Parser, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skipPaths[r.URL.Path] || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			value, ok, err := parse(r, p, cfg)
			if err != nil {
				logFailure(cfg, r, err)
				cfg.errorHandler(w, r, err)
				return
			}
			if ok {
				r = r.WithContext(context.WithValue(r.Context(), contextKey{}, parsed{value}))
				r.Body = http.NoBody
			}

			next.ServeHTTP(w, r)
		})
	}
}

// parse reports whether the body was consumed.
func parse(r *http.Request, p *bodyparser.Parser, cfg *config) (any, bool, error) {
	req := &bodyparser.Request{
		Method:        r.Method,
		ContentType:   r.Header.Get("Content-Type"),
		ContentLength: max(r.ContentLength, 0),
	}

	var src io.Reader = r.Body
	var dec *decoder
	if codings := contentEncodings(r.Header.Get("Content-Encoding")); cfg.inflate && len(codings) > 0 {
		dec = newDecoder(r.Body, codings)
		src = dec
		// The header counts encoded bytes.
		req.ContentLength = 0
	}

	var readerOpts []stream.ReaderOption
	if cfg.chunkSize > 0 {
		readerOpts = append(readerOpts, stream.WithChunkSize(cfg.chunkSize))
	}
	body := stream.NewReader(r.Context(), src, readerOpts...)
	defer func() {
		_ = body.Close()
		if dec == nil {
			return
		}
		// The read loop may be blocked in a stalled client's Read; the
		// decoder is closed once it exits.
		select {
		case <-body.Done():
			_ = dec.Close()
		default:
			go func() {
				<-body.Done()
				_ = dec.Close()
			}()
		}
	}()

	ev := &bodyparser.Event{Request: req, Body: body}
	if err := p.Parse(r.Context(), ev); err != nil {
		return nil, false, err
	}
	if ev.Body == any(body) {
		return nil, false, nil
	}

	return ev.Body, true, nil
}

func logFailure(cfg *config, r *http.Request, err error) {
	level := cfg.logger.Debug
	if bodyparser.Status(err) >= http.StatusInternalServerError {
		level = cfg.logger.Warn
	}

	level("request body rejected",
		"request_id", cfg.requestID(r),
		"method", r.Method,
		"path", r.URL.Path,
		"content_type", r.Header.Get("Content-Type"),
		"status", bodyparser.Status(err),
		"error", err,
	)
}
