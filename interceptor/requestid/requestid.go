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

package requestid

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"rivaas.dev/dispatch"
)

// DefaultHeader is the header carrying the request ID.
const DefaultHeader = "X-Request-ID"

type contextKey struct{}

// Option configures the interceptor.
type Option func(*Interceptor)

// WithHeader sets the header read from the request and written to the
// response.
func WithHeader(name string) Option {
	return func(i *Interceptor) {
		if name != "" {
			i.header = name
		}
	}
}

// WithGenerator sets the ID generator.
func WithGenerator(gen func() string) Option {
	return func(i *Interceptor) {
		if gen != nil {
			i.generate = gen
		}
	}
}

// WithULID generates 26-character ULIDs instead of UUID v7.
func WithULID() Option {
	return WithGenerator(generateULID)
}

// WithAllowClientID controls whether an ID sent by the client is reused.
// It is allowed by default.
func WithAllowClientID(allow bool) Option {
	return func(i *Interceptor) {
		i.allowClientID = allow
	}
}

// Interceptor assigns a request ID before the handler runs. The ID is
// written to the response header and stored in the request context.
type Interceptor struct {
	dispatch.BaseInterceptor

	header        string
	generate      func() string
	allowClientID bool
}

// New returns a request ID interceptor. IDs are UUID v7 by default.
//
// Example:
//
//	d := dispatch.MustNew(table, dispatch.WithInterceptors(
//	    requestid.New(requestid.WithHeader("X-Correlation-ID")),
//	))
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		header:        DefaultHeader,
		generate:      generateUUIDv7,
		allowClientID: true,
	}
	for _, opt := range opts {
		opt(i)
	}

	return i
}

// PreHandle implements [dispatch.Interceptor].
func (i *Interceptor) PreHandle(req *dispatch.Request, resp *dispatch.Response, _ *dispatch.Binding) (bool, error) {
	var id string
	if i.allowClientID {
		id = req.Header().Get(i.header)
	}
	if id == "" {
		id = i.generate()
	}

	resp.Header().Set(i.header, id)
	req.SetContext(context.WithValue(req.Context(), contextKey{}, id))

	return true, nil
}

// Get returns the request ID stored in ctx, or "".
func Get(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}

	return ""
}

// FromRequest returns the request ID assigned to req, or "".
func FromRequest(req *dispatch.Request) string {
	return Get(req.Context())
}

func generateUUIDv7() string {
	return uuid.Must(uuid.NewV7()).String()
}

var (
	ulidEntropy   = ulid.Monotonic(rand.Reader, 0)
	ulidEntropyMu sync.Mutex
)

func generateULID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
