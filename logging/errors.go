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

package logging

import "errors"

var (
	// ErrNilOutput is returned by [New] when [WithOutput] was given a nil writer.
	ErrNilOutput = errors.New("output writer cannot be nil")

	// ErrInvalidHandler indicates an unsupported handler type.
	ErrInvalidHandler = errors.New("invalid handler type")

	// ErrLoggerShutdown is returned by a second call to [Logger.Shutdown].
	ErrLoggerShutdown = errors.New("logger is shut down")

	// ErrInvalidLevel is returned by [ParseLevel].
	ErrInvalidLevel = errors.New("invalid log level")

	// ErrCannotChangeLevel is returned by [Logger.SetLevel] on a logger built
	// with [WithCustomLogger].
	ErrCannotChangeLevel = errors.New("cannot change level on custom logger")
)
