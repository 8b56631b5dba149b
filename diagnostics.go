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

package dispatch

// DiagnosticEvent is an informational event raised while building the
// routing table or serving requests. Dispatch behaves identically whether
// or not events are collected.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// Startup diagnostics
	DiagRouteRegistered  DiagnosticKind = "route_registered"
	DiagDuplicateMapping DiagnosticKind = "route_duplicate_mapping"
	DiagTableFrozen      DiagnosticKind = "table_frozen"

	// Serving diagnostics
	DiagAfterCompletionFailed DiagnosticKind = "after_completion_failed"
	DiagResponseWriteFailed   DiagnosticKind = "response_write_failed"
	DiagH2CEnabled            DiagnosticKind = "h2c_enabled"
)

// DiagnosticHandler receives diagnostic events.
//
// Example:
//
//	handler := dispatch.DiagnosticHandlerFunc(func(e dispatch.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	table, err := dispatch.Build(entries, dispatch.WithTableDiagnostics(handler))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc adapts a function to [DiagnosticHandler].
type DiagnosticHandlerFunc func(DiagnosticEvent)

// OnDiagnostic implements [DiagnosticHandler].
func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}

func emitTo(h DiagnosticHandler, kind DiagnosticKind, msg string, fields map[string]any) {
	if h == nil {
		return
	}
	h.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: msg, Fields: fields})
}
