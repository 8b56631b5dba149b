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

import (
	"errors"
	"net/http"
)

// ServeHTTP adapts the dispatcher to net/http. The body is buffered up to
// the configured limit before dispatch. A panic escaping dispatch is
// answered with a plain 500.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("panic while serving request", "method", r.Method, "path", r.URL.Path, "panic", p)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}()

	req, err := NewRequest(r, d.maxBodyBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		d.logger.Debug("failed to buffer request", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(status), status)

		return
	}

	resp := d.Dispatch(req)
	if err := resp.WriteTo(w); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		d.logger.Debug("failed to write response", "path", req.Path(), "error", err)
		emitTo(d.diagnostics, DiagResponseWriteFailed, "failed to write response", map[string]any{
			"path":  req.Path(),
			"error": err.Error(),
		})
	}
}
