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

package config

import (
	"errors"
	"fmt"
)

// Static errors.
var (
	// ErrUnknownFormat is returned for files whose extension is not
	// .yaml, .yml, .toml or .json.
	ErrUnknownFormat = errors.New("unknown configuration format")

	// ErrUnknownStrategy is returned for a registration naming a strategy
	// that does not exist.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrRegistrationKey is returned when a registration sets both or
	// neither of type and pattern.
	ErrRegistrationKey = errors.New("registration needs exactly one of type or pattern")
)

// Error describes where loading or building failed.
type Error struct {
	Source    string // file path, "schema" or "registrations[i]"
	Field     string // optional
	Operation string // "read", "decode", "validate", "build"
	Err       error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s.%s during %s: %v",
			e.Source, e.Field, e.Operation, e.Err)
	}
	return fmt.Sprintf("config error in %s during %s: %v",
		e.Source, e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(source, operation string, err error) *Error {
	return &Error{Source: source, Operation: operation, Err: err}
}

func newFieldError(source, field, operation string, err error) *Error {
	return &Error{Source: source, Field: field, Operation: operation, Err: err}
}
