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
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"rivaas.dev/bodyparser"
	"rivaas.dev/bodyparser/config"
	"rivaas.dev/bodyparser/httpbody"
)

type server struct {
	handler  http.Handler
	parser   *bodyparser.Parser
	shutdown func(context.Context) error
}

// newServer wires the parser, the Prometheus exporter and the routes.
func newServer(settings *config.Settings, logger *slog.Logger, tp trace.TracerProvider) (*server, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	p, err := settings.Build(
		bodyparser.WithLogger(logger),
		bodyparser.WithMeterProvider(meterProvider),
		bodyparser.WithTracerProvider(tp),
		bodyparser.WithDiagnostics(bodyparser.DiagnosticHandlerFunc(func(e bodyparser.DiagnosticEvent) {
			logger.Debug(e.Message, "kind", e.Kind, "fields", e.Fields)
		})),
	)
	if err != nil {
		_ = meterProvider.Shutdown(context.Background())
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("POST /echo", httpbody.New(p, httpbody.WithLogger(logger))(http.HandlerFunc(echo)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	var h http.Handler = mux
	if settings.Server.H2C {
		h = h2c.NewHandler(h, &http2.Server{})
	}

	return &server{handler: h, parser: p, shutdown: meterProvider.Shutdown}, nil
}

type echoResponse struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func echo(w http.ResponseWriter, r *http.Request) {
	v, ok := httpbody.Value(r.Context())
	if !ok {
		http.Error(w, "no strategy for "+r.Header.Get("Content-Type"), http.StatusUnsupportedMediaType)
		return
	}

	resp := echoResponse{Type: fmt.Sprintf("%T", v), Value: v}
	if b, isBytes := v.([]byte); isBytes {
		resp.Value = string(b)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
