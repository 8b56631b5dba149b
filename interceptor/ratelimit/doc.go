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
// Package ratelimit provides a token bucket rate limiting interceptor.
//
// Each key, the client IP by default, owns a bucket refilled at
// RequestsPerSecond and holding at most Burst tokens. A request arriving at
// an empty bucket is answered with 429 Too Many Requests and a Retry-After
// header; the handler is not invoked.
//
//	d := dispatch.MustNew(table, dispatch.WithInterceptors(
//	    ratelimit.New(
//	        ratelimit.WithRequestsPerSecond(100),
//	        ratelimit.WithBurst(20),
//	        ratelimit.WithExcludePaths("/healthz"),
//	    ),
//	))
//
// A key function returning "" exempts the request. Buckets idle for longer
// than the limiter TTL are evicted lazily.
//
// Headers set on every limited request:
//
//   - X-RateLimit-Limit: the configured burst
//   - X-RateLimit-Remaining: whole tokens left after this request
package ratelimit
