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

// DiagnosticEvent is an informational event raised by the [Parser].
// Parsing behaves the same whether diagnostics are collected or not.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// DiagStrategyOverwritten is raised when Set replaces a registration.
	DiagStrategyOverwritten DiagnosticKind = "strategy_overwritten"
	// DiagParseSkipped is raised when Parse leaves the body untouched
	// because of the method, a missing content type or no matching strategy.
	DiagParseSkipped DiagnosticKind = "parse_skipped"
	// DiagCatchAllUsed is raised when only the catch-all matched.
	DiagCatchAllUsed DiagnosticKind = "catch_all_used"
)

// DiagnosticHandler receives diagnostic events from the parser.
//
// Example with logging:
//
//	handler := bodyparser.DiagnosticHandlerFunc(func(e bodyparser.DiagnosticEvent) {
//	    slog.Info(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	p := bodyparser.MustNew(bodyparser.WithDiagnostics(handler))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}

func (p *Parser) emitDiagnostic(kind DiagnosticKind, msg string, fields map[string]any) {
	if p.diagnostics == nil {
		return
	}
	p.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: msg, Fields: fields})
}
