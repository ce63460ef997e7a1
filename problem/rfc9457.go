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
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContentTypeProblem is the RFC 9457 media type.
const ContentTypeProblem = "application/problem+json; charset=utf-8"

// RFC9457 formats errors as RFC 9457 problem details.
type RFC9457 struct {
	// BaseURL is prepended to error codes to build problem type URIs.
	BaseURL string

	// TypeResolver overrides the problem type URI.
	TypeResolver func(err error) string

	// StatusResolver overrides the status code.
	StatusResolver func(err error) int

	// ErrorIDGenerator generates the "error_id" extension. The default is a
	// random UUID.
	ErrorIDGenerator func() string

	// DisableErrorID omits the "error_id" extension.
	DisableErrorID bool
}

// NewRFC9457 creates an [RFC9457] formatter.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// Detail is an RFC 9457 problem detail.
type Detail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"-"`
}

var reservedMembers = map[string]bool{
	"type": true, "title": true, "status": true, "detail": true, "instance": true,
}

// MarshalJSON inlines the extensions. Extensions cannot replace the
// standard members.
func (p Detail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 5+len(p.Extensions))
	for k, v := range p.Extensions {
		if !reservedMembers[k] {
			m[k] = v
		}
	}
	m["type"] = p.Type
	m["title"] = p.Title
	m["status"] = p.Status
	if p.Detail != "" {
		m["detail"] = p.Detail
	}
	if p.Instance != "" {
		m["instance"] = p.Instance
	}

	return json.Marshal(m)
}

// Format implements [Formatter].
func (f *RFC9457) Format(req *http.Request, err error) Response {
	status := statusOf(f.StatusResolver, err)

	p := Detail{
		Type:       f.problemType(err),
		Title:      titleOf(err, status),
		Status:     status,
		Detail:     err.Error(),
		Extensions: make(map[string]any),
	}
	if req != nil && req.URL != nil {
		p.Instance = req.URL.Path
	}

	if !f.DisableErrorID {
		if f.ErrorIDGenerator != nil {
			p.Extensions["error_id"] = f.ErrorIDGenerator()
		} else {
			p.Extensions["error_id"] = "err-" + uuid.NewString()
		}
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		if d := detailed.Details(); d != nil {
			p.Extensions["errors"] = d
		}
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		p.Extensions["code"] = coded.Code()
	}

	return Response{Status: status, ContentType: ContentTypeProblem, Body: p}
}

func (f *RFC9457) problemType(err error) string {
	if f.TypeResolver != nil {
		return f.TypeResolver(err)
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		if f.BaseURL != "" {
			return f.BaseURL + "/" + coded.Code()
		}
		return coded.Code()
	}

	return "about:blank"
}
