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

// Package config loads dispatch server configuration from files and
// environment variables.
//
// Sources are merged in order, later sources overriding earlier ones, and
// all keys are case-insensitive. File formats are detected from the
// extension: YAML (.yaml, .yml), TOML (.toml) and JSON (.json).
//
// # Quick Start
//
//	settings, err := config.LoadSettings(ctx, "dispatchd.yaml", config.DefaultEnvPrefix)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(settings.Server.Address())
//
// # Binding
//
// [WithBinding] decodes the merged values onto a struct. Fields are matched
// by the "config" tag, zero fields take the value of their "default" tag,
// and "validate" tags are checked with go-playground/validator:
//
//	type Server struct {
//	    Addr        string        `config:"addr" default:":8080" validate:"required"`
//	    ReadTimeout time.Duration `config:"readtimeout" default:"10s"`
//	}
//
// # Environment Variables
//
// With prefix "DISPATCH_", DISPATCH_SERVER_READTIMEOUT=3s sets
// server.readtimeout. Underscores separate nesting levels, so keys bound
// from the environment must not contain underscores themselves.
package config
