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

package toml

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/bodyparser"
	"rivaas.dev/bodyparser/stream"
)

var req = &bodyparser.Request{Method: http.MethodPost, ContentType: MediaType}

const doc = `
title = "demo"

[server]
port = 8080
`

func TestNew(t *testing.T) {
	t.Parallel()

	v, err := bodyparser.TestParse(t, MustNew(), req, stream.Data(doc), stream.End())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"title":  "demo",
		"server": map[string]any{"port": int64(8080)},
	}, v)
}

func TestNew_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := bodyparser.TestParse(t, MustNew(), req, stream.Data("title = "), stream.End())

	var syntax *bodyparser.SyntaxError
	require.ErrorAs(t, err, &syntax)
	assert.Equal(t, "toml", syntax.Format)
}

type settings struct {
	Title string `toml:"title"`
}

func TestNewTyped(t *testing.T) {
	t.Parallel()

	v, err := bodyparser.TestParse(t, MustNewTyped[settings](), req, stream.Data(doc), stream.End())
	require.NoError(t, err)
	assert.Equal(t, settings{Title: "demo"}, v)

	_, err = bodyparser.TestParse(t, MustNewTyped[settings](WithStrict()), req, stream.Data(doc), stream.End())
	var syntax *bodyparser.SyntaxError
	require.ErrorAs(t, err, &syntax)
	assert.Contains(t, err.Error(), "server.port")
}

func TestRegister(t *testing.T) {
	t.Parallel()

	p := bodyparser.TestParser(t)
	require.NoError(t, Register(p, WithStrategyOptions(bodyparser.WithLimit(1))))

	ev, _ := bodyparser.TestEvent(t, MediaType, `a = 1`)
	err := p.Parse(context.Background(), ev)
	assert.Equal(t, &bodyparser.ContentTooLargeError{Limit: 1, Received: 5}, err)
}
