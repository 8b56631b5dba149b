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

package main

import (
	"log/slog"
	"net/http"
	"time"

	"rivaas.dev/dispatch"
	"rivaas.dev/dispatch/route"
)

var (
	_ dispatch.RouteProvider = (*HelloController)(nil)
	_ dispatch.RouteProvider = IndexController{}
)

// HelloController serves the /hello example endpoints.
type HelloController struct {
	logger *slog.Logger
}

// Routes implements [dispatch.RouteProvider].
func (c *HelloController) Routes() []dispatch.Entry {
	typeRoute := route.Info{Path: "/hello"}

	return []dispatch.Entry{
		{
			Method:    "TestGet",
			TypeRoute: typeRoute,
			Route:     route.Info{Path: "/testGet", Methods: []route.Method{route.GET}, ResponseBody: true},
			Params:    []string{"", "strParam", "intParam", "floatParam", "doubleParam", "dateParam"},
		},
		{
			Method:    "TestPost",
			TypeRoute: typeRoute,
			Route:     route.Info{Path: "/testPost", Methods: []route.Method{route.POST}},
		},
		{
			Method:    "TestJSON",
			TypeRoute: typeRoute,
			Route:     route.Info{Path: "/testJson", ResponseBody: true},
		},
	}
}

// TestGet echoes the request parameters.
//
//	GET /hello/testGet?strParam=test&intParam=1&floatParam=2&doubleParam=3&dateParam=2021-01-01
func (c *HelloController) TestGet(req *dispatch.Request, strParam string, intParam *int, floatParam *float32, doubleParam *float64, dateParam *time.Time) map[string][]string {
	c.logger.Debug("testGet",
		"strParam", strParam,
		"intParam", deref(intParam),
		"floatParam", deref(floatParam),
		"doubleParam", deref(doubleParam),
		"dateParam", deref(dateParam),
	)

	return req.Parameters()
}

// TestPost answers a fixed text body.
func (c *HelloController) TestPost(*dispatch.Request) string {
	return "123"
}

// TestJSON answers an empty JSON object for any method.
func (c *HelloController) TestJSON(r *http.Request) map[string]any {
	c.logger.Debug("testJson", "method", r.Method)

	return map[string]any{}
}

// IndexController serves POST /hello/index.
type IndexController struct{}

// Routes implements [dispatch.RouteProvider].
func (IndexController) Routes() []dispatch.Entry {
	return []dispatch.Entry{{
		Method:    "Index",
		TypeRoute: route.Info{Path: "/hello", Methods: []route.Method{route.GET, route.POST}},
		Route:     route.Info{Path: "/index", Methods: []route.Method{route.POST}, ResponseBody: true},
	}}
}

// Index greets the author.
func (IndexController) Index() map[string]string {
	return map[string]string{"name": "wjw"}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}

	return *p
}
