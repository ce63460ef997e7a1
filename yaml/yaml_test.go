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

package yaml

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/bodyparser"
	"rivaas.dev/bodyparser/stream"
)

var req = &bodyparser.Request{Method: http.MethodPost, ContentType: "application/yaml"}

func TestNew(t *testing.T) {
	t.Parallel()

	body := "name: api\nport: 8080\ntags:\n  - a\n  - b\n"
	v, err := bodyparser.TestParse(t, MustNew(), req, stream.Data(body), stream.End())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name": "api",
		"port": 8080,
		"tags": []any{"a", "b"},
	}, v)
	assert.Equal(t, "yaml", MustNew().Name())
}

func TestNew_Empty(t *testing.T) {
	t.Parallel()

	v, err := bodyparser.TestParse(t, MustNew(), req, stream.End())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNew_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := bodyparser.TestParse(t, MustNew(), req, stream.Data("a: [1, 2"), stream.End())

	var syntax *bodyparser.SyntaxError
	require.ErrorAs(t, err, &syntax)
	assert.Equal(t, "yaml", syntax.Format)
}

type service struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func TestNewTyped(t *testing.T) {
	t.Parallel()

	v, err := bodyparser.TestParse(t, MustNewTyped[service](), req,
		stream.Data("name: api\nport: 9000\nextra: true\n"), stream.End())
	require.NoError(t, err)
	assert.Equal(t, service{Name: "api", Port: 9000}, v)

	_, err = bodyparser.TestParse(t, MustNewTyped[service](WithStrict()), req,
		stream.Data("name: api\nextra: true\n"), stream.End())
	var syntax *bodyparser.SyntaxError
	require.ErrorAs(t, err, &syntax)
}

func TestNew_Limit(t *testing.T) {
	t.Parallel()

	s := MustNew(WithStrategyOptions(bodyparser.WithLimit(4)))
	_, err := bodyparser.TestParse(t, s, req, stream.Data("a: 1234"), stream.End())
	require.ErrorIs(t, err, bodyparser.ErrContentTooLarge)

	_, err = New(WithStrategyOptions(bodyparser.WithLimit(-1)))
	require.ErrorIs(t, err, bodyparser.ErrInvalidLimit)
}

func TestRegister(t *testing.T) {
	t.Parallel()

	p := bodyparser.TestParser(t)
	require.NoError(t, Register(p))
	for _, mt := range MediaTypes {
		assert.True(t, p.Has(mt), mt)
	}

	ev, _ := bodyparser.TestEvent(t, "application/x-yaml; charset=utf-8", "ok: true\n")
	require.NoError(t, p.Parse(context.Background(), ev))
	assert.Equal(t, map[string]any{"ok": true}, ev.Body)
}
