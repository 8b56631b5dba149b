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

// Package dispatch is an HTTP request-dispatch core. It routes a buffered
// request to a registered handler binding, runs the binding through an
// ordered interceptor pipeline, resolves the handler arguments from the
// request, invokes it and turns its result into a response.
//
// # Routing table
//
// Handlers are registered once at startup from a list of [Entry] values,
// usually produced by types implementing [RouteProvider]. Type-level and
// handler-level [route.Info] are combined by concatenating their paths and
// uniting their methods. Paths match exactly; an empty method set accepts
// every method. Registering a different handler under an existing path
// fails with [*AmbiguousMappingError]. [Build] freezes the table, after
// which it is read without locks.
//
//	type HelloController struct{}
//
//	func (c *HelloController) Index() map[string]string {
//	    return map[string]string{"name": "wjw"}
//	}
//
//	func (c *HelloController) Routes() []dispatch.Entry {
//	    typeRoute := route.Info{Path: "/hello"}
//	    return []dispatch.Entry{{
//	        Method:    "Index",
//	        TypeRoute: typeRoute,
//	        Route:     route.Info{Path: "/index", Methods: []route.Method{route.POST}, ResponseBody: true},
//	    }}
//	}
//
//	table, err := dispatch.Build(dispatch.Collect(&HelloController{}))
//
// # Interceptors
//
// An [Interceptor] selected by its Match method sees PreHandle in
// registration order and PostHandle in reverse order. AfterCompletion runs
// in reverse order for every interceptor whose PreHandle returned true,
// whether the request succeeded, short-circuited or failed.
//
// # Arguments and results
//
// Handler parameters are resolved by an ordered list of [ArgumentResolver]
// values; the built-ins supply the request itself and named query or form
// parameters converted to the declared type. Results are rendered by an
// ordered list of [ReturnValueHandler] values: structured results go
// through a [codec.Codec], text results are written verbatim.
//
// # Serving
//
// [Dispatcher] implements http.Handler. [Server] wraps http.Server with
// timeouts, optional h2c and graceful shutdown.
package dispatch
