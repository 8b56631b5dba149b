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

// Option configures the interceptor.
type Option func(*Interceptor)

// WithFrameOptions sets X-Frame-Options. Empty disables the header.
func WithFrameOptions(value string) Option {
	return func(i *Interceptor) { i.frameOptions = value }
}

// WithContentTypeNosniff toggles X-Content-Type-Options: nosniff.
func WithContentTypeNosniff(enabled bool) Option {
	return func(i *Interceptor) { i.contentTypeNosniff = enabled }
}

// WithXSSProtection sets X-XSS-Protection. Empty disables the header.
func WithXSSProtection(value string) Option {
	return func(i *Interceptor) { i.xssProtection = value }
}

// WithHSTS configures Strict-Transport-Security. A maxAge of 0 disables it.
func WithHSTS(maxAge int, includeSubdomains, preload bool) Option {
	return func(i *Interceptor) {
		i.hstsMaxAge = maxAge
		i.hstsIncludeSubdomains = includeSubdomains
		i.hstsPreload = preload
	}
}

// WithContentSecurityPolicy sets Content-Security-Policy.
func WithContentSecurityPolicy(policy string) Option {
	return func(i *Interceptor) { i.contentSecurityPolicy = policy }
}

// WithReferrerPolicy sets Referrer-Policy.
func WithReferrerPolicy(policy string) Option {
	return func(i *Interceptor) { i.referrerPolicy = policy }
}

// WithPermissionsPolicy sets Permissions-Policy.
func WithPermissionsPolicy(policy string) Option {
	return func(i *Interceptor) { i.permissionsPolicy = policy }
}

// WithCustomHeader adds a header set on every response.
func WithCustomHeader(name, value string) Option {
	return func(i *Interceptor) { i.customHeaders[name] = value }
}

// NoSecurityHeaders clears every default. Combine it with the individual
// options to set only selected headers.
func NoSecurityHeaders() Option {
	return func(i *Interceptor) {
		i.frameOptions = ""
		i.contentTypeNosniff = false
		i.xssProtection = ""
		i.hstsMaxAge = 0
		i.hstsIncludeSubdomains = false
		i.hstsPreload = false
		i.contentSecurityPolicy = ""
		i.referrerPolicy = ""
		i.permissionsPolicy = ""
		i.customHeaders = make(map[string]string)
	}
}

// DevelopmentPreset relaxes framing and CSP and disables HSTS.
func DevelopmentPreset() Option {
	return func(i *Interceptor) {
		i.frameOptions = "SAMEORIGIN"
		i.contentTypeNosniff = true
		i.xssProtection = "1; mode=block"
		i.contentSecurityPolicy = "default-src 'self' 'unsafe-inline' 'unsafe-eval'; img-src 'self' data:;"
		i.referrerPolicy = "no-referrer-when-downgrade"
		i.hstsMaxAge = 0
		i.hstsIncludeSubdomains = false
		i.hstsPreload = false
	}
}

// ProductionPreset enables HSTS preload and a strict CSP.
func ProductionPreset() Option {
	return func(i *Interceptor) {
		i.frameOptions = "DENY"
		i.contentTypeNosniff = true
		i.xssProtection = "1; mode=block"
		i.hstsMaxAge = 31536000
		i.hstsIncludeSubdomains = true
		i.hstsPreload = true
		i.contentSecurityPolicy = "default-src 'self'"
		i.referrerPolicy = "strict-origin-when-cross-origin"
		i.permissionsPolicy = "geolocation=(), microphone=(), camera=()"
	}
}
