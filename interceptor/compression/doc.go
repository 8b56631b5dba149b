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

// Package compression provides an interceptor that compresses dispatched
// response bodies with Brotli or gzip, negotiated from Accept-Encoding
// with q-values. Brotli wins ties.
//
// Bodies are buffered by the dispatcher, so the whole body is compressed
// in AfterCompletion. Error responses are compressed too. A body is left
// as is when it is shorter than the minimum size, already encoded, of an
// excluded content type, or when compression does not make it smaller.
//
//	d := dispatch.MustNew(table, dispatch.WithInterceptors(
//	    compression.New(compression.WithMinSize(512)),
//	    requestid.New(),
//	))
package compression
