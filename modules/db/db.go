// Copyright 2025 Nhat-Nguyen Nguyen
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

package db

import (
	"context"
	"errors"
)

var (
	// ErrQuotaExceeded is returned by AtomicSet when a size-bounded backend
	// cannot accept the value without breaching its configured quota.
	ErrQuotaExceeded = errors.New("kv: storage quota exceeded")

	// ErrMalformedValue is returned by typed wrappers when the stored bytes
	// cannot be decoded. Callers that treat an unreadable value as absent
	// (rather than failing) match on this sentinel.
	ErrMalformedValue = errors.New("kv: malformed stored value")
)

type (
	// KV is a minimal key-value port. Implementations must make both
	// operations atomic with respect to each other: AtomicSet returns the
	// previous value (or nil) as observed at the instant of the write.
	//
	// Values returned by AtomicGet/AtomicSet are raw []byte so higher-level
	// wrappers can decode (JSON, signed envelopes, etc).
	KV interface {
		AtomicGet(context.Context, string) (any, error)
		AtomicSet(context.Context, string, any) (any, error)
	}
)
