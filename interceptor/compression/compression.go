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

package compression

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/logging"
)

const (
	encodingBrotli = "br"
	encodingGzip   = "gzip"
)

// Interceptor compresses response bodies.
type Interceptor struct {
	dispatch.BaseInterceptor

	logger              *slog.Logger
	gzipLevel           int
	brotliLevel         int
	minSize             int
	enableGzip          bool
	enableBrotli        bool
	excludePaths        map[string]bool
	excludeContentTypes []string

	gzipPool   sync.Pool
	brotliPool sync.Pool
}

// New returns a compression interceptor.
func New(opts ...Option) *Interceptor {
	i := &Interceptor{
		logger:       logging.Nop(),
		gzipLevel:    gzip.DefaultCompression,
		brotliLevel:  4,
		minSize:      DefaultMinSize,
		enableGzip:   true,
		enableBrotli: true,
		excludePaths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = logging.Nop()
	}

	level := i.gzipLevel
	i.gzipPool.New = func() any {
		w, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			w = gzip.NewWriter(io.Discard)
		}
		return w
	}
	brLevel := i.brotliLevel
	i.brotliPool.New = func() any {
		return brotli.NewWriterLevel(io.Discard, brLevel)
	}

	return i
}

// DefaultMinSize is the smallest body that is compressed.
const DefaultMinSize = 1024

// Match implements [dispatch.Interceptor].
func (i *Interceptor) Match(req *dispatch.Request) bool {
	return !i.excludePaths[req.Path()]
}

// AfterCompletion implements [dispatch.Interceptor].
func (i *Interceptor) AfterCompletion(req *dispatch.Request, resp *dispatch.Response, _ *dispatch.Binding, _ error) error {
	h := resp.Header()
	h.Add("Vary", "Accept-Encoding")

	body := resp.Body()
	if len(body) < i.minSize || h.Get("Content-Encoding") != "" ||
		skipStatus(resp.Status()) || i.skipContentType(h.Get("Content-Type")) {
		return nil
	}

	encoding := i.chooseEncoding(req.Header().Get("Accept-Encoding"))
	if encoding == "" {
		return nil
	}

	compressed, err := i.compress(encoding, body)
	if err != nil {
		return fmt.Errorf("%s compression failed: %w", encoding, err)
	}
	if len(compressed) >= len(body) {
		return nil
	}

	i.logger.Debug("response compressed",
		"path", req.Path(),
		"encoding", encoding,
		"from", len(body),
		"to", len(compressed),
	)
	resp.SetBody(compressed)
	h.Set("Content-Encoding", encoding)

	return nil
}

func (i *Interceptor) compress(encoding string, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(body) / 2)

	switch encoding {
	case encodingBrotli:
		w := i.brotliPool.Get().(*brotli.Writer)
		defer i.brotliPool.Put(w)
		w.Reset(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		w := i.gzipPool.Get().(*gzip.Writer)
		defer i.gzipPool.Put(w)
		w.Reset(&buf)
		if _, err := w.Write(body); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func skipStatus(code int) bool {
	return code == http.StatusNoContent ||
		code == http.StatusNotModified ||
		code == http.StatusPartialContent
}

func (i *Interceptor) skipContentType(ct string) bool {
	if ct == "" {
		return false
	}

	ct = strings.ToLower(ct)
	if strings.Contains(ct, "text/event-stream") ||
		strings.Contains(ct, "application/grpc") ||
		strings.Contains(ct, "application/octet-stream") {
		return true
	}
	for _, excluded := range i.excludeContentTypes {
		if strings.Contains(ct, excluded) {
			return true
		}
	}

	return false
}

// chooseEncoding picks an enabled encoding the client accepts, or "".
func (i *Interceptor) chooseEncoding(accept string) string {
	if accept == "" {
		return ""
	}

	accept = strings.ToLower(accept)
	brQ := qValue(accept, encodingBrotli)
	gzipQ := qValue(accept, encodingGzip)
	if wildcard := qValue(accept, "*"); wildcard >= 0 {
		if brQ < 0 {
			brQ = wildcard
		}
		if gzipQ < 0 {
			gzipQ = wildcard
		}
	}

	if i.enableBrotli && brQ > 0 && (brQ >= gzipQ || !i.enableGzip) {
		return encodingBrotli
	}
	if i.enableGzip && gzipQ > 0 {
		return encodingGzip
	}

	return ""
}

// qValue returns the quality of coding in an Accept-Encoding value: -1 when
// absent, 1 without a q parameter.
func qValue(accept, coding string) float64 {
	for part := range strings.SplitSeq(accept, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.TrimSpace(name) != coding {
			continue
		}

		q := 1.0
		for param := range strings.SplitSeq(params, ";") {
			v, ok := strings.CutPrefix(strings.TrimSpace(param), "q=")
			if !ok {
				continue
			}
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				q = parsed
			}
		}

		return q
	}

	return -1
}
