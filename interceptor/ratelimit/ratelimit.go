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
package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/logging"
)

const (
	// DefaultRequestsPerSecond is the refill rate when none is configured.
	DefaultRequestsPerSecond = 100

	// DefaultLimiterTTL is how long an idle bucket is kept.
	DefaultLimiterTTL = 10 * time.Minute
)

// KeyFunc derives the bucket key of a request.
type KeyFunc func(req *dispatch.Request) string

// Handler writes the response of a rejected request.
type Handler func(req *dispatch.Request, resp *dispatch.Response)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Interceptor rejects requests exceeding the per-key rate.
type Interceptor struct {
	dispatch.BaseInterceptor

	rps          float64
	burst        int
	keyFunc      KeyFunc
	handler      Handler
	logger       *slog.Logger
	ttl          time.Duration
	excludePaths map[string]struct{}
	now          func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// New returns a rate limiting interceptor. Burst defaults to the rate
// rounded up.
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		rps:          DefaultRequestsPerSecond,
		keyFunc:      ClientIP,
		handler:      defaultHandler,
		logger:       logging.Nop(),
		ttl:          DefaultLimiterTTL,
		excludePaths: make(map[string]struct{}),
		now:          time.Now,
		buckets:      make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.burst <= 0 {
		i.burst = max(1, int(math.Ceil(i.rps)))
	}

	return i
}

// ClientIP keys requests by the host part of the peer address.
func ClientIP(req *dispatch.Request) string {
	addr := req.HTTPRequest().RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}

	return addr
}

func defaultHandler(_ *dispatch.Request, resp *dispatch.Response) {
	resp.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = resp.WriteString(http.StatusText(http.StatusTooManyRequests))
}

// Match implements [dispatch.Interceptor].
func (i *Interceptor) Match(req *dispatch.Request) bool {
	_, skip := i.excludePaths[req.Path()]
	return !skip
}

// PreHandle implements [dispatch.Interceptor].
func (i *Interceptor) PreHandle(req *dispatch.Request, resp *dispatch.Response, _ *dispatch.Binding) (bool, error) {
	key := i.keyFunc(req)
	if key == "" {
		return true, nil
	}

	now := i.now()
	limiter := i.limiter(key, now)
	allowed := limiter.AllowN(now, 1)

	h := resp.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(i.burst))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, int(limiter.TokensAt(now)))))
	if allowed {
		return true, nil
	}

	i.logger.WarnContext(req.Context(), "rate limit exceeded",
		"key", key,
		"method", req.Method(),
		"path", req.Path(),
	)
	h.Set("Retry-After", strconv.Itoa(i.retryAfter()))
	resp.SetStatus(http.StatusTooManyRequests)
	i.handler(req, resp)

	return false, nil
}

// retryAfter is the whole number of seconds until one token is available.
func (i *Interceptor) retryAfter() int {
	if i.rps <= 0 {
		return 1
	}

	return max(1, int(math.Ceil(1/i.rps)))
}

func (i *Interceptor) limiter(key string, now time.Time) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if now.Sub(i.lastSweep) >= i.ttl {
		for k, b := range i.buckets {
			if now.Sub(b.lastSeen) >= i.ttl {
				delete(i.buckets, k)
			}
		}
		i.lastSweep = now
	}

	b, ok := i.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(i.rps), i.burst)}
		i.buckets[key] = b
	}
	b.lastSeen = now

	return b.limiter
}

// Len reports the number of live buckets.
func (i *Interceptor) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	return len(i.buckets)
}
