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

package security

import (
	"fmt"
	"net/http"

	"rivaas.dev/dispatch"
)

// Interceptor sets a fixed header set in PreHandle.
type Interceptor struct {
	dispatch.BaseInterceptor

	frameOptions          string
	contentTypeNosniff    bool
	xssProtection         string
	hstsMaxAge            int
	hstsIncludeSubdomains bool
	hstsPreload           bool
	contentSecurityPolicy string
	referrerPolicy        string
	permissionsPolicy     string
	customHeaders         map[string]string

	headers http.Header
	hsts    string
}

// New returns a security header interceptor with secure defaults.
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		frameOptions:          "DENY",
		contentTypeNosniff:    true,
		xssProtection:         "1; mode=block",
		hstsMaxAge:            31536000,
		hstsIncludeSubdomains: true,
		contentSecurityPolicy: "default-src 'self'",
		referrerPolicy:        "strict-origin-when-cross-origin",
		customHeaders:         make(map[string]string),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.build()

	return i
}

func (i *Interceptor) build() {
	h := http.Header{}
	set := func(name, value string) {
		if value != "" {
			h.Set(name, value)
		}
	}
	set("X-Frame-Options", i.frameOptions)
	if i.contentTypeNosniff {
		h.Set("X-Content-Type-Options", "nosniff")
	}
	set("X-XSS-Protection", i.xssProtection)
	set("Content-Security-Policy", i.contentSecurityPolicy)
	set("Referrer-Policy", i.referrerPolicy)
	set("Permissions-Policy", i.permissionsPolicy)
	for name, value := range i.customHeaders {
		h.Set(name, value)
	}
	i.headers = h

	if i.hstsMaxAge > 0 {
		i.hsts = fmt.Sprintf("max-age=%d", i.hstsMaxAge)
		if i.hstsIncludeSubdomains {
			i.hsts += "; includeSubDomains"
		}
		if i.hstsPreload {
			i.hsts += "; preload"
		}
	}
}

// Headers returns a copy of the headers set on every response. HSTS is
// not included since it depends on the connection.
func (i *Interceptor) Headers() http.Header { return i.headers.Clone() }

// PreHandle implements [dispatch.Interceptor].
func (i *Interceptor) PreHandle(req *dispatch.Request, resp *dispatch.Response, _ *dispatch.Binding) (bool, error) {
	dst := resp.Header()
	for name, values := range i.headers {
		dst[name] = append([]string(nil), values...)
	}
	// HSTS over plain HTTP is ignored by browsers.
	if i.hsts != "" && req.HTTPRequest().TLS != nil {
		dst.Set("Strict-Transport-Security", i.hsts)
	}

	return true, nil
}
