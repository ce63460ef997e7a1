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
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "rivaas.dev/bodyparser"

// Metric and span names.
const (
	MetricParseDuration = "bodyparser.parse.duration"
	MetricParseCount    = "bodyparser.parse.count"
	SpanParse           = "bodyparser.Parse"
)

// Parse outcomes reported in the "outcome" attribute.
const (
	OutcomeOK         = "ok"
	OutcomeAborted    = "aborted"
	OutcomeTooLarge   = "too_large"
	OutcomeBadRequest = "bad_request"
	OutcomeSyntax     = "syntax"
	OutcomeInvalid    = "invalid"
	OutcomeCanceled   = "canceled"
	OutcomeError      = "error"
)

type instruments struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
	count    metric.Int64Counter
}

func newInstruments(mp metric.MeterProvider, tp trace.TracerProvider) (*instruments, error) {
	meter := mp.Meter(instrumentationName)

	duration, err := meter.Float64Histogram(
		MetricParseDuration,
		metric.WithDescription("Duration of body parsing in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse duration histogram: %w", err)
	}

	count, err := meter.Int64Counter(
		MetricParseCount,
		metric.WithDescription("Total number of parsed bodies"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse count counter: %w", err)
	}

	return &instruments{
		tracer:   tp.Tracer(instrumentationName),
		duration: duration,
		count:    count,
	}, nil
}

// start opens the parse span. The returned function records the metrics
// and ends the span.
func (in *instruments) start(ctx context.Context, req *Request, strategy string) (context.Context, func(error)) {
	ctx, span := in.tracer.Start(ctx, SpanParse,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("bodyparser.strategy", strategy),
			attribute.String("http.request.header.content-type", req.ContentType),
			attribute.Int64("http.request.body.size", req.ContentLength),
		),
	)
	began := time.Now()

	return ctx, func(err error) {
		outcome := Outcome(err)
		attrs := metric.WithAttributes(
			attribute.String("strategy", strategy),
			attribute.String("outcome", outcome),
		)
		in.duration.Record(ctx, time.Since(began).Seconds(), attrs)
		in.count.Add(ctx, 1, attrs)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.End()
	}
}

// Outcome classifies a parse error for metrics and logs.
func Outcome(err error) string {
	var (
		syntax *SyntaxError
		valid  *ValidationError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrRequestAborted):
		return OutcomeAborted
	case errors.Is(err, ErrContentTooLarge):
		return OutcomeTooLarge
	case errors.Is(err, ErrBadRequest):
		return OutcomeBadRequest
	case errors.As(err, &syntax):
		return OutcomeSyntax
	case errors.As(err, &valid):
		return OutcomeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
