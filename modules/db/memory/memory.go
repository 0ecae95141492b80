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
package memory

import (
	"context"
	"sync"

	"registry/modules/db"
)

var _ db.KV = (*MemoryKV)(nil)

// MemoryKV is an in-process implementation of db.KV used for tests and for
// ephemeral runs where nothing should survive a restart. It also supports
// fault injection so persistence failure paths can be exercised without a
// real backend.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte

	getErr error
	setErr error
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

// FailGets makes every subsequent AtomicGet return err (nil clears the fault).
func (m *MemoryKV) FailGets(err error) *MemoryKV {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
	return m
}

// FailSets makes every subsequent AtomicSet return err (nil clears the fault).
func (m *MemoryKV) FailSets(err error) *MemoryKV {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
	return m
}

func (m *MemoryKV) AtomicGet(_ context.Context, key string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	bs, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(bs))
	copy(cp, bs)
	return cp, nil
}

func (m *MemoryKV) AtomicSet(_ context.Context, key string, value any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return nil, m.setErr
	}
	bs, err := db.EncodeValue(value)
	if err != nil {
		return nil, err
	}
	prev, ok := m.values[key]
	m.values[key] = bs
	if !ok {
		return nil, nil
	}
	return prev, nil
}
