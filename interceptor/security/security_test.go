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

package security

import (
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/route"
)

func serve(t *testing.T, i *Interceptor, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	table, err := dispatch.Build([]dispatch.Entry{
		{Func: func() string { return "ok" }, Route: route.Info{Path: "/ok"}},
		{Func: func() error { return errors.New("broken") }, Route: route.Info{Path: "/broken"}},
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	dispatch.MustNew(table, dispatch.WithInterceptors(i)).ServeHTTP(w, req)

	return w
}

func TestSecurity_Defaults(t *testing.T) {
	t.Parallel()

	w := serve(t, New(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Empty(t, w.Header().Get("Permissions-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "plain HTTP")
}

func TestSecurity_HSTSOverTLS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{name: "default", want: "max-age=31536000; includeSubDomains"},
		{name: "production", opts: []Option{ProductionPreset()}, want: "max-age=31536000; includeSubDomains; preload"},
		{name: "disabled", opts: []Option{WithHSTS(0, false, false)}, want: ""},
		{name: "development", opts: []Option{DevelopmentPreset()}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/ok", nil)
			req.TLS = &tls.ConnectionState{}
			w := serve(t, New(tt.opts...), req)
			assert.Equal(t, tt.want, w.Header().Get("Strict-Transport-Security"))
		})
	}
}

func TestSecurity_ErrorResponsesKeepHeaders(t *testing.T) {
	t.Parallel()

	w := serve(t, New(), httptest.NewRequest(http.MethodGet, "/broken", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestSecurity_CustomOnly(t *testing.T) {
	t.Parallel()

	i := New(NoSecurityHeaders(), WithCustomHeader("X-Served-By", "dispatch"), WithFrameOptions("SAMEORIGIN"))

	assert.Equal(t, http.Header{
		"X-Served-By":     {"dispatch"},
		"X-Frame-Options": {"SAMEORIGIN"},
	}, i.Headers())

	w := serve(t, i, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, "dispatch", w.Header().Get("X-Served-By"))
	assert.Empty(t, w.Header().Get("Content-Security-Policy"))
}

func TestSecurity_Presets(t *testing.T) {
	t.Parallel()

	dev := New(DevelopmentPreset()).Headers()
	assert.Equal(t, "SAMEORIGIN", dev.Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer-when-downgrade", dev.Get("Referrer-Policy"))

	prod := New(ProductionPreset()).Headers()
	assert.Equal(t, "geolocation=(), microphone=(), camera=()", prod.Get("Permissions-Policy"))
}
