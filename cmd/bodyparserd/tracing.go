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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Trace exporters accepted by --traces.
const (
	tracesNone     = "none"
	tracesStdout   = "stdout"
	tracesOTLPHTTP = "otlp-http"
)

var errUnknownTraces = errors.New("unknown trace exporter")

// newTracerProvider builds the provider for the parse spans. stdout writes
// to w; otlp-http sends to endpoint (host:port) without TLS, or to the
// OTEL_EXPORTER_OTLP_* defaults when endpoint is empty.
func newTracerProvider(ctx context.Context, kind, endpoint string, w io.Writer) (trace.TracerProvider, func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter

	switch kind {
	case tracesNone, "":
		return tracenoop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	case tracesStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		exporter = exp
	case tracesOTLPHTTP:
		var opts []otlptracehttp.Option
		if endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, nil, fmt.Errorf("%w: %q", errUnknownTraces, kind)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "bodyparserd"),
			attribute.String("service.version", version),
		)),
	)

	return tp, tp.Shutdown, nil
}
