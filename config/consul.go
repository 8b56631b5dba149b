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

package config

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/consul/api"
)

// ConsulKV is the subset of the Consul KV API used by the Consul source.
type ConsulKV interface {
	Get(key string, q *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error)
}

// consulSource reads one key from the Consul KV store. The value format is
// detected from the key extension. A missing key contributes nothing.
type consulSource struct {
	kv        ConsulKV
	key       string
	decode    decodeFunc
	lastIndex atomic.Uint64
}

func (s *consulSource) Load(ctx context.Context) (map[string]any, error) {
	pair, meta, err := s.kv.Get(s.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get consul key %q: %w", s.key, err)
	}
	if meta != nil {
		s.lastIndex.Store(meta.LastIndex)
	}

	values := map[string]any{}
	if pair == nil || len(pair.Value) == 0 {
		return values, nil
	}
	if err := s.decode(pair.Value, &values); err != nil {
		return nil, fmt.Errorf("failed to decode consul key %q: %w", s.key, err)
	}

	return values, nil
}

// WithConsul appends a source reading key from the Consul agent at addr.
// An empty addr uses CONSUL_HTTP_ADDR and the other standard Consul
// environment variables. The format is detected from the key extension.
func WithConsul(addr, key string) Option {
	return func(c *Config) error {
		cfg := api.DefaultConfig()
		if addr != "" {
			cfg.Address = addr
		}
		client, err := api.NewClient(cfg)
		if err != nil {
			return NewError("consul-source", "connect", err)
		}

		return WithConsulKV(client.KV(), key)(c)
	}
}

// WithConsulKV is like [WithConsul] with a caller-provided KV client.
func WithConsulKV(kv ConsulKV, key string) Option {
	return func(c *Config) error {
		if kv == nil {
			return NewError("consul-source", "add", errors.New("consul KV is nil"))
		}
		dec, err := decoderFor(key)
		if err != nil {
			return NewError("consul-source", "detect-format", err)
		}
		c.sources = append(c.sources, &consulSource{kv: kv, key: key, decode: dec})

		return nil
	}
}
