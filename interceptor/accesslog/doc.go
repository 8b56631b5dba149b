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

// Package accesslog provides an interceptor writing structured access logs
// with log/slog. Successful requests log at info, client errors and slow
// requests at warn, and server errors or handler failures at error.
//
// Requests that never reach an interceptor, such as unknown paths and
// method mismatches, are not logged.
package accesslog
