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

//go:build !integration

package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/route"
)

func newDispatcher(t *testing.T, seen *string, opts ...Option) *dispatch.Dispatcher {
	t.Helper()

	table, err := dispatch.Build([]dispatch.Entry{{
		Func: func(req *dispatch.Request) string {
			*seen = FromRequest(req)
			return "ok"
		},
		Route: route.Info{Path: "/id"},
	}})
	require.NoError(t, err)

	return dispatch.MustNew(table, dispatch.WithInterceptors(New(opts...)))
}

func do(d *dispatch.Dispatcher, header, value string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/id", nil)
	if header != "" {
		r.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	d.ServeHTTP(w, r)

	return w
}

func TestRequestID_GeneratesUUIDv7(t *testing.T) {
	t.Parallel()

	var seen string
	w := do(newDispatcher(t, &seen), "", "")

	id := w.Header().Get(DefaultHeader)
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Equal(t, id, seen)
}

func TestRequestID_ClientID(t *testing.T) {
	t.Parallel()

	var seen string
	w := do(newDispatcher(t, &seen), DefaultHeader, "client-123")
	assert.Equal(t, "client-123", w.Header().Get(DefaultHeader))
	assert.Equal(t, "client-123", seen)

	w = do(newDispatcher(t, &seen, WithAllowClientID(false)), DefaultHeader, "client-123")
	assert.NotEqual(t, "client-123", w.Header().Get(DefaultHeader))
}

func TestRequestID_Options(t *testing.T) {
	t.Parallel()

	var seen string
	w := do(newDispatcher(t, &seen, WithHeader("X-Correlation-ID"), WithGenerator(func() string { return "fixed" })), "", "")
	assert.Equal(t, "fixed", w.Header().Get("X-Correlation-ID"))
	assert.Empty(t, w.Header().Get(DefaultHeader))

	w = do(newDispatcher(t, &seen, WithULID()), "", "")
	_, err := ulid.Parse(w.Header().Get(DefaultHeader))
	require.NoError(t, err)
}

func TestGet_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Get(t.Context()))
}
