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

package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/bodyparser"
	"rivaas.dev/bodyparser/stream"
)

type detailedError struct{ details any }

func (e *detailedError) Error() string { return "detailed" }
func (e *detailedError) Details() any  { return e.details }

func TestRFC9457_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		formatter  *RFC9457
		err        error
		wantStatus int
		wantType   string
		wantTitle  string
		wantCode   any
	}{
		{
			name:       "plain error",
			formatter:  NewRFC9457("https://api.example.com/problems"),
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantType:   "about:blank",
			wantTitle:  "Internal Server Error",
		},
		{
			name:       "content too large",
			formatter:  NewRFC9457("https://api.example.com/problems/"),
			err:        &bodyparser.ContentTooLargeError{Limit: 3, Received: 4},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   "https://api.example.com/problems/content_too_large",
			wantTitle:  "Content Too Large",
			wantCode:   "content_too_large",
		},
		{
			name:       "aborted uses its own title",
			formatter:  NewRFC9457(""),
			err:        fmt.Errorf("parse: %w", &bodyparser.RequestAbortedError{}),
			wantStatus: bodyparser.StatusClientClosedRequest,
			wantType:   "request_aborted",
			wantTitle:  "Client Closed Request",
			wantCode:   "request_aborted",
		},
		{
			name:       "explicit status",
			formatter:  NewRFC9457(""),
			err:        WithStatus(nil, http.StatusUnsupportedMediaType),
			wantStatus: http.StatusUnsupportedMediaType,
			wantType:   "about:blank",
			wantTitle:  "Unsupported Media Type",
		},
		{
			name: "resolvers",
			formatter: &RFC9457{
				TypeResolver:   func(error) string { return "urn:custom" },
				StatusResolver: func(error) int { return http.StatusTeapot },
			},
			err:        &bodyparser.BadRequestError{Declared: 10, Received: 4},
			wantStatus: http.StatusTeapot,
			wantType:   "urn:custom",
			wantTitle:  "Bad Request",
			wantCode:   "length_mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/upload", nil)
			resp := tt.formatter.Format(req, tt.err)

			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, ContentTypeProblem, resp.ContentType)

			p, ok := resp.Body.(Detail)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, tt.wantTitle, p.Title)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.err.Error(), p.Detail)
			assert.Equal(t, "/upload", p.Instance)
			assert.Equal(t, tt.wantCode, p.Extensions["code"])
			assert.True(t, strings.HasPrefix(p.Extensions["error_id"].(string), "err-"))
		})
	}
}

func TestRFC9457_ErrorID(t *testing.T) {
	t.Parallel()

	f := &RFC9457{ErrorIDGenerator: func() string { return "fixed" }}
	resp := f.Format(nil, errors.New("x"))
	assert.Equal(t, "fixed", resp.Body.(Detail).Extensions["error_id"])
	assert.Empty(t, resp.Body.(Detail).Instance)

	f = &RFC9457{DisableErrorID: true}
	resp = f.Format(nil, errors.New("x"))
	assert.NotContains(t, resp.Body.(Detail).Extensions, "error_id")
}

func TestRFC9457_ValidationDetails(t *testing.T) {
	t.Parallel()

	type signup struct {
		Name string `json:"name" validate:"required"`
	}

	s := bodyparser.MustNewTypedJSON[signup](bodyparser.WithValidation())
	req := &bodyparser.Request{Method: http.MethodPost, ContentType: "application/json"}
	_, err := bodyparser.TestParse(t, s, req, stream.Data(`{}`), stream.End())
	require.Error(t, err)

	resp := NewRFC9457("").Format(nil, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)

	p := resp.Body.(Detail)
	assert.Equal(t, "validation_failed", p.Type)
	assert.Equal(t, "Unprocessable Entity", p.Title)
	assert.Equal(t, []bodyparser.FieldError{{Field: "signup.name", Tag: "required"}}, p.Extensions["errors"])
}

func TestDetail_MarshalJSON(t *testing.T) {
	t.Parallel()

	p := Detail{
		Type:     "about:blank",
		Title:    "Bad Request",
		Status:   400,
		Instance: "/x",
		Extensions: map[string]any{
			"status": 999,
			"code":   "length_mismatch",
		},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"type":     "about:blank",
		"title":    "Bad Request",
		"status":   float64(400),
		"instance": "/x",
		"code":     "length_mismatch",
	}, got)
}

func TestSimple_Format(t *testing.T) {
	t.Parallel()

	resp := NewSimple().Format(nil, &bodyparser.SyntaxError{Format: "json", Err: errors.New("unexpected EOF")})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, map[string]any{
		"error": "invalid json body: unexpected EOF",
		"code":  "invalid_json",
	}, resp.Body)

	resp = NewSimple().Format(nil, &detailedError{details: []string{"a"}})
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, []string{"a"}, resp.Body.(map[string]any)["details"])

	custom := &Simple{StatusResolver: func(error) int { return http.StatusConflict }}
	assert.Equal(t, http.StatusConflict, custom.Format(nil, errors.New("x")).Status)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", nil)
	Handler(NewSimple())(rec, req, &bodyparser.ContentTooLargeError{Limit: 1, Received: 2})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.JSONEq(t, `{"error":"content actual \"2\" size exceed the \"1\" limit","code":"content_too_large"}`, rec.Body.String())
}

func TestWrite_Headers(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := Write(rec, Response{
		Status:      http.StatusUnsupportedMediaType,
		ContentType: ContentTypeProblem,
		Body:        map[string]string{"k": "v"},
		Headers:     http.Header{"Accept-Encoding": {"gzip", "br"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"gzip", "br"}, rec.Header().Values("Accept-Encoding"))
	assert.JSONEq(t, `{"k":"v"}`, rec.Body.String())
}
