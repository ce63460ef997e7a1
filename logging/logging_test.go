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

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" INFO ", LevelInfo},
		{"", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	require.ErrorIs(t, err, ErrInvalidLevel)
}

func TestNew_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := MustNew(
		WithHandlerType(JSONHandler),
		WithOutput(&buf),
		WithServiceName("bodyparserd"),
		WithServiceVersion("v1.2.3"),
	)

	logger.Debug("hidden")
	logger.Info("parsed", "strategy", "json", "token", "abc123")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "parsed", entry["msg"])
	assert.Equal(t, "bodyparserd", entry["service"])
	assert.Equal(t, "v1.2.3", entry["version"])
	assert.Equal(t, "json", entry["strategy"])
	assert.Equal(t, "***REDACTED***", entry["token"])
}

func TestNew_TextReplaceAttr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := MustNew(
		WithOutput(&buf),
		WithReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}),
	)

	logger.Warn("rejected", "password", "hunter2", "status", 413)
	assert.Equal(t, "level=WARN msg=rejected password=***REDACTED*** status=413\n", buf.String())
}

func TestNew_ConsoleLevelVar(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	level := &slog.LevelVar{}
	level.Set(LevelWarn)

	logger := MustNew(WithHandlerType(ConsoleHandler), WithOutput(&buf), WithLevel(level))

	logger.Info("quiet")
	assert.Empty(t, buf.String())

	level.Set(LevelDebug)
	logger.With("authorization", "Bearer x").Debug("loud", slog.Group("req", "secret", "s3"))
	out := buf.String()
	assert.Contains(t, out, "loud")
	assert.NotContains(t, out, "Bearer x")
	assert.NotContains(t, out, "s3")
	assert.Contains(t, out, "***REDACTED***")
}

func TestNew_InvalidHandler(t *testing.T) {
	t.Parallel()

	_, err := New(WithHandlerType("xml"))
	require.ErrorIs(t, err, ErrInvalidHandler)
	assert.Panics(t, func() { MustNew(WithHandlerType("xml")) })
}
