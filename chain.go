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

package dispatch

import (
	"fmt"
	"log/slog"
)

// ChainState is the lifecycle state of an [ExecutionChain].
type ChainState uint8

const (
	StateCreated ChainState = iota
	StatePreHandling
	StateShortCircuited
	StateHandling
	StatePostHandling
	StateCompleted
)

func (s ChainState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePreHandling:
		return "pre_handling"
	case StateShortCircuited:
		return "short_circuited"
	case StateHandling:
		return "handling"
	case StatePostHandling:
		return "post_handling"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ExecutionChain is the per-request pipeline: a binding plus the
// interceptors that matched the request. It is owned by one request.
type ExecutionChain struct {
	binding      *Binding
	interceptors []Interceptor

	// appliedIndex is the highest index whose PreHandle returned true.
	appliedIndex int
	state        ChainState
	completed    bool

	logger      *slog.Logger
	diagnostics DiagnosticHandler
}

// NewExecutionChain returns a chain for b with the given interceptors.
func NewExecutionChain(b *Binding, interceptors []Interceptor) *ExecutionChain {
	return &ExecutionChain{
		binding:      b,
		interceptors: interceptors,
		appliedIndex: -1,
		logger:       slog.New(slog.DiscardHandler),
	}
}

// Binding returns the handler binding.
func (c *ExecutionChain) Binding() *Binding { return c.binding }

// Interceptors returns the interceptors of the chain in execution order.
func (c *ExecutionChain) Interceptors() []Interceptor { return c.interceptors }

// State returns the current state.
func (c *ExecutionChain) State() ChainState { return c.state }

// AppliedIndex returns the highest index whose PreHandle returned true,
// or -1.
func (c *ExecutionChain) AppliedIndex() int { return c.appliedIndex }

// ApplyPreHandle runs PreHandle in order. When an interceptor returns
// false, AfterCompletion runs for the interceptors before it and false is
// returned. An error stops the loop and is returned as is; the caller runs
// [ExecutionChain.TriggerAfterCompletion] with it.
func (c *ExecutionChain) ApplyPreHandle(req *Request, resp *Response) (bool, error) {
	c.state = StatePreHandling

	for i, in := range c.interceptors {
		ok, err := c.preHandle(in, req, resp)
		if err != nil {
			return false, &InterceptorError{Phase: "preHandle", Err: err}
		}
		if !ok {
			c.state = StateShortCircuited
			c.TriggerAfterCompletion(req, resp, nil)

			return false, nil
		}
		c.appliedIndex = i
	}
	c.state = StateHandling

	return true, nil
}

func (c *ExecutionChain) preHandle(in Interceptor, req *Request, resp *Response) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			ok, err = false, panicError(p)
		}
	}()

	return in.PreHandle(req, resp, c.binding)
}

// ApplyPostHandle runs PostHandle in reverse order. The first error stops
// the loop.
func (c *ExecutionChain) ApplyPostHandle(req *Request, resp *Response) error {
	c.state = StatePostHandling

	for i := len(c.interceptors) - 1; i >= 0; i-- {
		if err := c.postHandle(c.interceptors[i], req, resp); err != nil {
			return &InterceptorError{Phase: "postHandle", Err: err}
		}
	}

	return nil
}

func (c *ExecutionChain) postHandle(in Interceptor, req *Request, resp *Response) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
	}()

	return in.PostHandle(req, resp, c.binding)
}

// TriggerAfterCompletion runs AfterCompletion in reverse order for every
// interceptor whose PreHandle returned true. Failures are logged and do not
// stop the remaining calls. Only the first call has an effect.
func (c *ExecutionChain) TriggerAfterCompletion(req *Request, resp *Response, cause error) {
	if c.completed {
		return
	}
	c.completed = true

	for i := c.appliedIndex; i >= 0; i-- {
		if err := c.afterCompletion(c.interceptors[i], req, resp, cause); err != nil {
			c.logger.Error("afterCompletion failed",
				"interceptor", fmt.Sprintf("%T", c.interceptors[i]),
				"path", req.Path(),
				"error", err,
			)
			emitTo(c.diagnostics, DiagAfterCompletionFailed, "interceptor afterCompletion failed", map[string]any{
				"interceptor": fmt.Sprintf("%T", c.interceptors[i]),
				"error":       err.Error(),
			})
		}
	}
	if c.state != StateShortCircuited {
		c.state = StateCompleted
	}
}

func (c *ExecutionChain) afterCompletion(in Interceptor, req *Request, resp *Response, cause error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
	}()

	return in.AfterCompletion(req, resp, c.binding, cause)
}
