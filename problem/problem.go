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

// Package problem turns body parsing errors into HTTP error responses.
//
// Formatters are framework-agnostic. Errors control their response through
// optional interfaces: [ErrorType] for the status code, [ErrorTitle] for
// the title, [ErrorCode] for a machine-readable code and [ErrorDetails] for
// structured details. Every error of rivaas.dev/bodyparser implements the
// first three, and validation errors also implement ErrorDetails.
//
//	formatter := problem.NewRFC9457("https://api.example.com/problems")
//	response := formatter.Format(req, err)
//	_ = problem.Write(w, response)
package problem

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Formatter converts an error into HTTP response components.
type Formatter interface {
	Format(req *http.Request, err error) Response
}

// Response is a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is marshaled to JSON by [Write].
	Body any

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType lets an error declare its HTTP status code.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorTitle lets an error declare its status text. It matters for codes
// net/http has no text for, such as 499.
type ErrorTitle interface {
	error
	Content() string
}

// ErrorDetails lets an error expose structured details.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode lets an error expose a machine-readable code.
type ErrorCode interface {
	error
	Code() string
}

// Write writes resp to w.
func Write(w http.ResponseWriter, resp Response) error {
	for k, vs := range resp.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(resp.Status)

	return json.NewEncoder(w).Encode(resp.Body)
}

// Handler returns an error handler that formats err with f and writes it.
func Handler(f Formatter) func(w http.ResponseWriter, r *http.Request, err error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		_ = Write(w, f.Format(r, err))
	}
}

func statusOf(resolver func(error) int, err error) int {
	if resolver != nil {
		return resolver(err)
	}

	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return http.StatusInternalServerError
}

func titleOf(err error, status int) string {
	var titled ErrorTitle
	if errors.As(err, &titled) {
		if t := titled.Content(); t != "" {
			return t
		}
	}
	if t := http.StatusText(status); t != "" {
		return t
	}

	return "Error"
}

// WithStatus wraps err with an explicit status code. A nil err uses the
// status text as its message.
//
//	return problem.WithStatus(err, http.StatusUnsupportedMediaType)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error { return e.err }

func (e *statusError) HTTPStatus() int { return e.status }
