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
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

var (
	errInvalidBool    = errors.New("invalid boolean value")
	errUnparsableTime = errors.New("unable to parse time")
	errUnsupported    = errors.New("unsupported type")
)

// timeLayouts are tried in order when converting to time.Time.
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.DateOnly,
	time.DateTime,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC822Z,
	time.RFC850,
	"2006-01-02T15:04:05",
}

// isSimpleType reports whether a single string value converts to t.
func isSimpleType(t reflect.Type) bool {
	switch t {
	case timeType, durationType:
		return true
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}

	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// convertString converts value to a new value of type t. Special types
// come first, then encoding.TextUnmarshaler, then basic kinds.
func convertString(value string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	switch t {
	case timeType:
		tm, err := parseTime(value)
		if err != nil {
			return out, err
		}
		out.Set(reflect.ValueOf(tm))

		return out, nil
	case durationType:
		d, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return out, fmt.Errorf("invalid duration: %w", err)
		}
		out.SetInt(int64(d))

		return out, nil
	}

	if u, ok := out.Addr().Interface().(encoding.TextUnmarshaler); ok {
		return out, u.UnmarshalText([]byte(value))
	}

	switch t.Kind() {
	case reflect.String:
		out.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, t.Bits())
		if err != nil {
			return out, fmt.Errorf("invalid integer: %w", err)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimSpace(value), 10, t.Bits())
		if err != nil {
			return out, fmt.Errorf("invalid unsigned integer: %w", err)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), t.Bits())
		if err != nil {
			return out, fmt.Errorf("invalid float: %w", err)
		}
		out.SetFloat(f)
	case reflect.Bool:
		b, err := parseBoolGenerous(value)
		if err != nil {
			return out, err
		}
		out.SetBool(b)
	default:
		return out, fmt.Errorf("%w: %s", errUnsupported, t)
	}

	return out, nil
}

// parseBoolGenerous accepts true/false, 1/0, yes/no, on/off, t/f and y/n,
// case-insensitively.
func parseBoolGenerous(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on", "t", "y":
		return true, nil
	case "false", "0", "no", "off", "f", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", errInvalidBool, s)
	}
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w %q", errUnparsableTime, value)
}
