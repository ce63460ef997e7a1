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
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"rivaas.dev/bodyparser/mediatype"
)

// StatusClientClosedRequest is the non-standard status used when the client
// disconnects before the body was read.
const StatusClientClosedRequest = 499

// Static errors for setup and parsing.
var (
	// ErrKeyType is returned when a registration key is neither a string nor
	// a *regexp.Regexp.
	ErrKeyType = errors.New("parser key should be a string or a *regexp.Regexp")

	// ErrEmptyKey is returned when registering the empty string.
	ErrEmptyKey = mediatype.ErrEmptyKey

	// ErrStrategyType is returned when a strategy is built with an output
	// kind other than OutputString or OutputBytes.
	ErrStrategyType = errors.New(`strategy output should be "string" or "buffer"`)

	// ErrNilStrategy is returned when registering a nil strategy.
	ErrNilStrategy = errors.New("strategy is nil")

	// ErrInvalidLimit is returned for negative or unparseable size limits.
	ErrInvalidLimit = errors.New("invalid size limit")

	// ErrBodyNotStream is returned when the event body is not a stream.Stream.
	ErrBodyNotStream = errors.New("event body is not a stream")

	// ErrPayloadType is returned when the parse listener receives a payload
	// that is not an *Event.
	ErrPayloadType = errors.New("parse event payload should be *bodyparser.Event")

	// ErrStreamFailed is reported when a stream emits an error event without
	// an error value.
	ErrStreamFailed = errors.New("stream failed")

	// Sentinels matched by the typed errors below through errors.Is.
	ErrRequestAborted  = errors.New("request was aborted")
	ErrBadRequest      = errors.New("content length mismatch")
	ErrContentTooLarge = errors.New("content too large")
)

// StatusError is implemented by every error produced while reading a body.
// It carries what a caller needs to build a response.
type StatusError interface {
	error
	// StatusCode returns the HTTP status code.
	StatusCode() int
	// Content returns the status text, e.g. "Bad Request".
	Content() string
}

// Status returns the status code carried by err, or 500 when err does not
// carry one.
func Status(err error) int {
	var se StatusError
	if errors.As(err, &se) {
		return se.StatusCode()
	}

	return http.StatusInternalServerError
}

// RequestAbortedError reports that the client went away mid-body.
type RequestAbortedError struct{}

func (e *RequestAbortedError) Error() string { return "request was aborted" }

// StatusCode returns 499.
func (e *RequestAbortedError) StatusCode() int { return StatusClientClosedRequest }

// HTTPStatus returns 499.
func (e *RequestAbortedError) HTTPStatus() int { return StatusClientClosedRequest }

// Content returns "Client Closed Request".
func (e *RequestAbortedError) Content() string { return "Client Closed Request" }

// Code returns "request_aborted".
func (e *RequestAbortedError) Code() string { return "request_aborted" }

// Is matches [ErrRequestAborted].
func (e *RequestAbortedError) Is(target error) bool { return target == ErrRequestAborted }

// BadRequestError reports a body whose size disagrees with its declared
// Content-Length, either because more bytes arrived or because the body
// ended early.
type BadRequestError struct {
	Declared int64
	Received int64
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf(`content actual "%d" size did not match to the declared "%d" size`,
		e.Received, e.Declared)
}

// StatusCode returns 400.
func (e *BadRequestError) StatusCode() int { return http.StatusBadRequest }

// HTTPStatus returns 400.
func (e *BadRequestError) HTTPStatus() int { return http.StatusBadRequest }

// Content returns "Bad Request".
func (e *BadRequestError) Content() string { return http.StatusText(http.StatusBadRequest) }

// Code returns "length_mismatch".
func (e *BadRequestError) Code() string { return "length_mismatch" }

// Is matches [ErrBadRequest].
func (e *BadRequestError) Is(target error) bool { return target == ErrBadRequest }

// ContentTooLargeError reports a body, declared or actual, above the limit.
type ContentTooLargeError struct {
	Limit    int64
	Received int64
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf(`content actual "%d" size exceed the "%d" limit`, e.Received, e.Limit)
}

// StatusCode returns 413.
func (e *ContentTooLargeError) StatusCode() int { return http.StatusRequestEntityTooLarge }

// HTTPStatus returns 413.
func (e *ContentTooLargeError) HTTPStatus() int { return http.StatusRequestEntityTooLarge }

// Content returns "Content Too Large".
func (e *ContentTooLargeError) Content() string { return "Content Too Large" }

// Code returns "content_too_large".
func (e *ContentTooLargeError) Code() string { return "content_too_large" }

// Is matches [ErrContentTooLarge].
func (e *ContentTooLargeError) Is(target error) bool { return target == ErrContentTooLarge }

// SyntaxError reports a body that was read completely but could not be
// decoded in the expected format.
type SyntaxError struct {
	Format string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid %s body: %v", e.Format, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// StatusCode returns 400.
func (e *SyntaxError) StatusCode() int { return http.StatusBadRequest }

// HTTPStatus returns 400.
func (e *SyntaxError) HTTPStatus() int { return http.StatusBadRequest }

// Content returns "Bad Request".
func (e *SyntaxError) Content() string { return http.StatusText(http.StatusBadRequest) }

// Code returns "invalid_" followed by the format name.
func (e *SyntaxError) Code() string { return "invalid_" + e.Format }

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// ValidationError reports a decoded body that failed validation.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// StatusCode returns 422.
func (e *ValidationError) StatusCode() int { return http.StatusUnprocessableEntity }

// HTTPStatus returns 422.
func (e *ValidationError) HTTPStatus() int { return http.StatusUnprocessableEntity }

// Content returns "Unprocessable Entity".
func (e *ValidationError) Content() string {
	return http.StatusText(http.StatusUnprocessableEntity)
}

// Code returns "validation_failed".
func (e *ValidationError) Code() string { return "validation_failed" }

// Details lists the failed rules when the validator reported them.
func (e *ValidationError) Details() any {
	var verrs validator.ValidationErrors
	if !errors.As(e.Err, &verrs) {
		return nil
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: fe.Namespace(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}

	return fields
}
