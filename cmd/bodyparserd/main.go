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

// Command bodyparserd is a demo server for rivaas.dev/bodyparser. It decodes
// POST /echo bodies with the configured strategies and answers with the
// decoded value.
//
//	bodyparserd serve --config bodyparser.yaml --addr :9090 --log-format console
//	bodyparserd serve --traces otlp-http --otlp-endpoint localhost:4318
//
// Every flag can also be set through the environment with the BODYPARSERD_
// prefix, e.g. BODYPARSERD_ADDR=:9090.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rivaas.dev/bodyparser/config"
	"rivaas.dev/bodyparser/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "bodyparserd",
		Short:         "Demo server for content-type driven body parsing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve /echo, /metrics and /healthz",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, v)
		},
	}

	flags := serve.Flags()
	flags.String("config", "", "path to a YAML, TOML or JSON configuration file")
	flags.String("addr", "", "listen address (overrides server.addr)")
	flags.String("log-format", "", "json, text or console (overrides log.format)")
	flags.String("log-level", "", "debug, info, warn or error (overrides log.level)")
	flags.Bool("h2c", false, "serve HTTP/2 without TLS (overrides server.h2c)")
	flags.String("traces", tracesNone, "trace exporter: none, stdout or otlp-http")
	flags.String("otlp-endpoint", "", "OTLP HTTP collector host:port")
	_ = v.BindPFlags(flags)

	v.SetEnvPrefix("BODYPARSERD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(serve, &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	})

	return root
}

// loadSettings reads the configuration file and applies flag and
// environment overrides.
func loadSettings(ctx context.Context, v *viper.Viper) (*config.Settings, error) {
	settings, err := config.Load(ctx, v.GetString("config"))
	if err != nil {
		return nil, err
	}

	if addr := v.GetString("addr"); addr != "" {
		settings.Server.Addr = addr
	}
	if format := v.GetString("log-format"); format != "" {
		settings.Log.Format = format
	}
	if level := v.GetString("log-level"); level != "" {
		settings.Log.Level = level
	}
	if v.IsSet("h2c") {
		settings.Server.H2C = v.GetBool("h2c")
	}

	return settings, nil
}

func runServe(ctx context.Context, v *viper.Viper) error {
	settings, err := loadSettings(ctx, v)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(settings.Log.Level)
	if err != nil {
		return err
	}
	logger, err := logging.New(
		logging.WithHandlerType(logging.HandlerType(settings.Log.Format)),
		logging.WithLevel(level),
		logging.WithServiceName("bodyparserd"),
		logging.WithServiceVersion(version),
	)
	if err != nil {
		return err
	}

	tp, shutdownTracing, err := newTracerProvider(ctx, v.GetString("traces"), v.GetString("otlp-endpoint"), os.Stdout)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	srv, err := newServer(settings, logger, tp)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown failed", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           srv.handler,
		ReadHeaderTimeout: settings.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", settings.Server.Addr, "h2c", settings.Server.H2C)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
