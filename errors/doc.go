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

// Package errors renders dispatch failures as HTTP error responses.
//
// A [Formatter] turns an error into a [Response] with status, content type,
// encoded body and extra headers. Three formats are provided:
//
//   - [Text]: the error message as text/plain (the dispatcher default)
//   - [Simple]: {"error": "...", "code": "...", "details": ...}
//   - [RFC9457]: application/problem+json problem details
//
// Errors control the rendering by implementing optional interfaces:
// [ErrorType] for the status code, [ErrorCode] for a machine-readable code,
// [ErrorDetails] for structured details and [ErrorHeaders] for extra headers.
//
//	f, err := errors.New(cfg.ErrorFormat, cfg.ProblemBaseURL)
//	resp := f.Format(req.Path(), dispatchErr)
package errors
