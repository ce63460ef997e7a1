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
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"rivaas.dev/bodyparser/events"
	"rivaas.dev/bodyparser/mediatype"
	"rivaas.dev/bodyparser/stream"
)

// Media types registered by default.
const (
	MIMETextPlain = "text/plain"
	MIMEJSON      = "application/json"
	MIMEXML       = "application/xml"
	MIMETextXML   = "text/xml"
	MIMEForm      = "application/x-www-form-urlencoded"
)

type registration struct {
	key      any
	strategy Strategy
}

// Parser selects a [Strategy] for a request by its content type and runs it.
//
// Strategies are registered under a media type string, a *regexp.Regexp
// or the catch-all "*". Resolution tries the media type index first, where
// the most specific registration whose parameters are all satisfied wins,
// then patterns in registration order, then the catch-all.
//
// Registrations are not synchronized: configure the parser before serving
// requests. Parse is safe for concurrent use once configuration is done.
type Parser struct {
	types    *mediatype.Index[Strategy]
	patterns *PatternIndex
	listener *parseListener

	logger         *slog.Logger
	diagnostics    DiagnosticHandler
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	obs            *instruments

	seedDefaults bool
	seedFormats  bool
	initial      []registration
}

// New creates a [Parser] with text/plain and application/json registered.
func New(opts ...Option) (*Parser, error) {
	p := &Parser{
		types:          mediatype.NewIndex[Strategy](),
		patterns:       NewPatternIndex(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
		seedDefaults:   true,
	}
	p.listener = &parseListener{parser: p}

	for _, opt := range opts {
		opt(p)
	}

	obs, err := newInstruments(p.meterProvider, p.tracerProvider)
	if err != nil {
		return nil, err
	}
	p.obs = obs

	if err := p.seed(); err != nil {
		return nil, err
	}
	for _, r := range p.initial {
		if _, err := p.Set(r.key, r.strategy); err != nil {
			return nil, fmt.Errorf("register %v: %w", r.key, err)
		}
	}
	p.initial = nil

	return p, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Parser {
	p, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("bodyparser.MustNew: %v", err))
	}

	return p
}

func (p *Parser) seed() error {
	if p.seedDefaults {
		text, err := NewText()
		if err != nil {
			return err
		}
		js, err := NewJSON()
		if err != nil {
			return err
		}
		p.types.MustSet(MIMETextPlain, text)
		p.types.MustSet(MIMEJSON, js)
	}

	if p.seedFormats {
		xml, err := NewXML()
		if err != nil {
			return err
		}
		form, err := NewForm()
		if err != nil {
			return err
		}
		p.types.MustSet(MIMEXML, xml)
		p.types.MustSet(MIMETextXML, xml)
		p.types.MustSet(MIMEForm, form)
	}

	return nil
}

// Set registers s under key: a media type string, a *regexp.Regexp or "*".
// A registered key is overwritten.
func (p *Parser) Set(key any, s Strategy) (*Parser, error) {
	if s == nil {
		return p, ErrNilStrategy
	}

	switch k := key.(type) {
	case string:
		overwritten := p.types.Has(k)
		if _, err := p.types.Set(k, s); err != nil {
			return p, err
		}
		p.registered(k, overwritten)
	case *regexp.Regexp:
		if k == nil {
			return p, ErrKeyType
		}
		overwritten := p.patterns.Has(k)
		p.patterns.Set(k, s)
		p.registered(k.String(), overwritten)
	default:
		return p, fmt.Errorf("%w: got %T", ErrKeyType, key)
	}

	return p, nil
}

func (p *Parser) registered(key string, overwritten bool) {
	p.logger.Debug("strategy registered", "key", key, "overwritten", overwritten)
	if overwritten {
		p.emitDiagnostic(DiagStrategyOverwritten, "strategy registration replaced",
			map[string]any{"key": key})
	}
}

// MustSet is like [Parser.Set] but panics on error.
func (p *Parser) MustSet(key any, s Strategy) *Parser {
	if _, err := p.Set(key, s); err != nil {
		panic(err)
	}

	return p
}

// Get returns the strategy registered under key, or nil. String keys are
// compared structurally, so parameter order does not matter.
func (p *Parser) Get(key any) Strategy {
	switch k := key.(type) {
	case string:
		s, _ := p.types.Get(k)
		return s
	case *regexp.Regexp:
		s, _ := p.patterns.Get(k)
		return s
	default:
		return nil
	}
}

// Has reports whether key is registered.
func (p *Parser) Has(key any) bool {
	switch k := key.(type) {
	case string:
		return p.types.Has(k)
	case *regexp.Regexp:
		return p.patterns.Has(k)
	default:
		return false
	}
}

// Delete removes key and reports whether it was registered. String keys
// are removed literally.
func (p *Parser) Delete(key any) (bool, error) {
	var removed bool
	switch k := key.(type) {
	case string:
		removed = p.types.Delete(k)
	case *regexp.Regexp:
		removed = p.patterns.Delete(k)
	default:
		return false, fmt.Errorf("%w: got %T", ErrKeyType, key)
	}

	if removed {
		p.logger.Debug("strategy removed", "key", fmt.Sprint(key))
	}

	return removed, nil
}

// Clear removes every registration, including the catch-all.
func (p *Parser) Clear() {
	p.types.Clear()
	p.patterns.Clear()
}

// Keys returns the media type keys in registration order; the catch-all is
// reported as "*".
func (p *Parser) Keys() []string { return p.types.Keys() }

// Patterns returns the registered patterns in registration order.
func (p *Parser) Patterns() []*regexp.Regexp { return p.patterns.Patterns() }

// Resolve returns the strategy for contentType.
func (p *Parser) Resolve(contentType string) (Strategy, bool) {
	if s, ok := p.types.Find(contentType); ok {
		return s, true
	}
	if s, ok := p.patterns.Find(contentType); ok {
		return s, true
	}
	if s, ok := p.types.Get(mediatype.CatchAll); ok {
		p.emitDiagnostic(DiagCatchAllUsed, "no registration matched, using catch-all",
			map[string]any{"content_type": contentType})
		return s, true
	}

	return nil, false
}

// Parse decodes the body of ev. Bodies of GET and HEAD requests, requests
// without a content type and requests no strategy accepts are left as they
// are. On success ev.Body holds the decoded value; on failure the error is
// returned unchanged and ev.Body is not modified.
func (p *Parser) Parse(ctx context.Context, ev *Event) error {
	if ev == nil || ev.Request == nil {
		return fmt.Errorf("%w: missing request", ErrPayloadType)
	}
	req := ev.Request

	if skip := skipReason(req); skip != "" {
		p.skipped(req, skip)
		return nil
	}

	s, ok := p.Resolve(req.ContentType)
	if !ok {
		p.skipped(req, "no strategy")
		return nil
	}

	body, ok := ev.Body.(stream.Stream)
	if !ok || body == nil {
		return ErrBodyNotStream
	}

	name := strategyName(s)
	p.logger.Debug("parsing body", "content_type", req.ContentType, "strategy", name)

	ctx, finish := p.obs.start(ctx, req, name)
	v, err := s.Parse(ctx, req, body)
	finish(err)
	if err != nil {
		return err
	}
	ev.Body = v

	return nil
}

func skipReason(req *Request) string {
	switch {
	case strings.EqualFold(req.Method, http.MethodGet), strings.EqualFold(req.Method, http.MethodHead):
		return "method"
	case req.ContentType == "":
		return "no content type"
	default:
		return ""
	}
}

func (p *Parser) skipped(req *Request, reason string) {
	p.emitDiagnostic(DiagParseSkipped, "body left unparsed", map[string]any{
		"reason":       reason,
		"method":       req.Method,
		"content_type": req.ContentType,
	})
}

// Subscribe attaches the parser to the "kernel.parse" event of target.
// The payload must be an *Event. priority defaults to 0.
func (p *Parser) Subscribe(target events.Target, priority ...int) {
	var opts []events.ListenOption
	if len(priority) > 0 {
		opts = append(opts, events.WithPriority(priority[0]))
	}
	target.On(ParseEvent, p.listener, opts...)
}

// Unsubscribe detaches the parser from target and reports whether it was
// attached.
func (p *Parser) Unsubscribe(target events.Target) bool {
	return target.Off(ParseEvent, p.listener)
}

// parseListener is the parser's stable subscription identity.
type parseListener struct {
	parser *Parser
}

func (l *parseListener) Handle(ctx context.Context, payload any) error {
	ev, ok := payload.(*Event)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrPayloadType, payload)
	}

	return l.parser.Parse(ctx, ev)
}

type namer interface {
	Name() string
}

func strategyName(s Strategy) string {
	if n, ok := s.(namer); ok {
		return n.Name()
	}

	return fmt.Sprintf("%T", s)
}
