// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package redis

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"registry/modules/db"

	"github.com/redis/rueidis"
)

var (
	_ db.KV = (*RedisKV)(nil)

	//go:embed atomic_set.lua
	atomicSetLua string

	// Lua script for AtomicSet:
	//
	//   - KEYS[1]  = full key
	//   - ARGV[1]  = serialized value
	//   - ARGV[2]  = TTL in seconds (string; 0 or empty = no TTL)
	//
	// Atomically:
	//
	//	prev = GET key
	//	SET key value [EX ttl]
	//	return prev
	//
	// Single round-trip, atomic read-modify-write.
	luaAtomicSet = rueidis.NewLuaScript(atomicSetLua)
)

// RedisKV is a Rueidis-backed implementation of db.KV with key prefixing
// (env scoping) and AtomicSet via Lua (GET + SET in one script).
type RedisKV struct {
	client rueidis.Client

	// prefix is optional and should already end with ":" if non-empty.
	prefix string
}

// RedisKVOption configures RedisKV.
type RedisKVOption func(*RedisKV)

// WithKeyPrefix scopes all keys under a prefix (env, service, etc).
// Example: WithKeyPrefix("registry:dev") → key "document" stored as "registry:dev:document".
func WithKeyPrefix(prefix string) RedisKVOption {
	return func(k *RedisKV) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" && !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		k.prefix = prefix
	}
}

// NewRedisKV constructs a RedisKV on top of an existing rueidis.Client.
//
// The same client can be shared across multiple RedisKV instances (different prefixes).
func NewRedisKV(client rueidis.Client, opts ...RedisKVOption) *RedisKV {
	kv := &RedisKV{
		client: client,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	return kv
}

// key builds the namespaced key.
func (k *RedisKV) key(raw string) string {
	if k.prefix == "" {
		return raw
	}
	return k.prefix + raw
}

// AtomicGet implements db.KV.AtomicGet.
//
//   - Returns []byte (as `any`) on success
//   - Returns (nil, nil) if the key does not exist
func (k *RedisKV) AtomicGet(ctx context.Context, key string) (any, error) {
	fullKey := k.key(key)

	res := k.client.Do(ctx, k.client.B().Get().Key(fullKey).Build())

	bs, err := res.AsBytes()
	if err != nil {
		if re, ok := rueidis.IsRedisErr(err); ok && re.IsNil() {
			// Key missing – treat as nil value.
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: AtomicGet %q failed: %w", key, err)
	}

	return bs, nil
}

// AtomicSet implements db.KV.AtomicSet. Returns the previous value as
// []byte, or nil if there was none.
func (k *RedisKV) AtomicSet(ctx context.Context, key string, value any) (any, error) {
	fullKey := k.key(key)

	serialized, err := db.EncodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("redis kv: encode value for key %q: %w", key, err)
	}

	res := luaAtomicSet.Exec(ctx, k.client, []string{fullKey}, []string{rueidis.BinaryString(serialized), ""})
	bs, err := res.AsBytes()
	if err != nil {
		if re, ok := rueidis.IsRedisErr(err); ok && re.IsNil() {
			// No previous value.
			return nil, nil
		}
		return nil, fmt.Errorf("redis kv: AtomicSet %q failed: %w", key, err)
	}

	return bs, nil
}

// HealthCheck is a small helper to be used by readiness/liveness probes.
func (k *RedisKV) HealthCheck(ctx context.Context) error {
	return k.client.Do(ctx, k.client.B().Ping().Build()).Error()
}
