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
	"context"
	"net/http"
	"testing"

	"rivaas.dev/bodyparser/stream"
)

// TestParser creates a Parser for tests and fails t on error.
//
// Example:
//
//	func TestUpload(t *testing.T) {
//	    p := bodyparser.TestParser(t, bodyparser.WithDefaultFormats())
//	    // use p in test
//	}
func TestParser(t testing.TB, opts ...Option) *Parser {
	t.Helper()

	p, err := New(opts...)
	if err != nil {
		t.Fatalf("TestParser: failed to create parser: %v", err)
	}

	return p
}

// TestEvent creates a POST event whose body is a scripted stream emitting
// body as a single chunk. The declared length matches body.
//
// Example:
//
//	ev, script := bodyparser.TestEvent(t, "application/json", `{"a":1}`)
func TestEvent(t testing.TB, contentType, body string) (*Event, *stream.Script) {
	t.Helper()

	script := stream.NewScript(stream.Data(body), stream.End())
	ev := &Event{
		Request: &Request{
			Method:        http.MethodPost,
			ContentType:   contentType,
			ContentLength: int64(len(body)),
		},
		Body: script,
	}

	return ev, script
}

// TestParse runs s over a scripted stream replaying steps and fails t when
// listeners are left attached.
//
// Example:
//
//	v, err := bodyparser.TestParse(t, strategy, req, stream.Data("a"), stream.End())
func TestParse(t testing.TB, s Strategy, req *Request, steps ...stream.Step) (any, error) {
	t.Helper()

	script := stream.NewScript(steps...)
	v, err := s.Parse(context.Background(), req, script)
	if n := script.TotalListeners(); n != 0 {
		t.Fatalf("TestParse: %d listeners left attached", n)
	}

	return v, err
}
