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

package metrics

import (
	"context"

	"rivaas.dev/dispatch"
)

type metricsKey struct{}

// Interceptor records request metrics around handler invocation.
type Interceptor struct {
	dispatch.BaseInterceptor

	rec *Recorder
}

// Interceptor returns a [dispatch.Interceptor] recording into r.
func (r *Recorder) Interceptor() *Interceptor {
	return &Interceptor{rec: r}
}

// Match implements [dispatch.Interceptor]. Excluded paths do not match.
func (i *Interceptor) Match(req *dispatch.Request) bool {
	return !i.rec.shutdown.Load() && !i.rec.Excluded(req.Path())
}

// PreHandle implements [dispatch.Interceptor].
func (i *Interceptor) PreHandle(req *dispatch.Request, _ *dispatch.Response, _ *dispatch.Binding) (bool, error) {
	m := i.rec.begin(req.Context(), req.Path(), len(req.Body()))
	req.SetContext(context.WithValue(req.Context(), metricsKey{}, m))

	return true, nil
}

// AfterCompletion implements [dispatch.Interceptor].
func (i *Interceptor) AfterCompletion(req *dispatch.Request, resp *dispatch.Response, _ *dispatch.Binding, err error) error {
	m, ok := req.Context().Value(metricsKey{}).(*requestMetrics)
	if !ok {
		return nil
	}
	i.rec.finish(req.Context(), m, resp.Status(), len(resp.Body()), err != nil)

	return nil
}
