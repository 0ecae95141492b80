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

package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"registry/core/registry/domain"
	"registry/modules/db"
	"registry/modules/hmac"
	"registry/modules/telemetry"
	"registry/modules/worker"
)

// DefaultPhotoBudget is the per-photo size cap applied when persisting.
// Photos whose encoded form exceeds it are dropped from the document (the
// in-memory copy stays intact); the record itself is always written.
const DefaultPhotoBudget = 150 << 10 // 150 KiB

// Store is the domain.DocumentStore implementation over a db.KV backend.
//
// The whole registry is one value under one key. With a signer configured,
// the document is sealed: the stored value is "payload.signature", and a
// document that fails verification at load is treated as empty rather than
// trusted.
type Store struct {
	kv      db.KV
	json    db.JSONKV[document]
	key     string
	signer  *hmac.HMACSigner
	metrics *telemetry.RegistryMetrics

	// photoBudget is the compression threshold in bytes of encoded photo.
	photoBudget int
}

type StoreOption func(*Store)

// WithSigner seals the persisted document with s. Nil disables sealing.
func WithSigner(s *hmac.HMACSigner) StoreOption {
	return func(st *Store) { st.signer = s }
}

func WithStoreMetrics(m *telemetry.RegistryMetrics) StoreOption {
	return func(st *Store) { st.metrics = m }
}

// WithPhotoBudget overrides the per-photo persistence cap.
func WithPhotoBudget(bytes int) StoreOption {
	return func(st *Store) {
		if bytes > 0 {
			st.photoBudget = bytes
		}
	}
}

func NewStore(kv db.KV, key string, opts ...StoreOption) *Store {
	st := &Store{
		kv:          kv,
		json:        db.NewJSONKV[document](kv),
		key:         key,
		photoBudget: DefaultPhotoBudget,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Save writes the snapshot through the backend, applying the photo
// compression policy on the way out.
func (st *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	doc := st.project(ctx, snap)

	if st.signer == nil {
		if _, err := st.json.Set(ctx, st.key, doc); err != nil {
			// decoding the previous value is best-effort; the write itself
			// succeeded if the error is only about the old bytes
			if errors.Is(err, db.ErrMalformedValue) {
				return nil
			}
			return fmt.Errorf("persistence: save: %w", err)
		}
		return nil
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("persistence: encode: %w", err)
	}
	token, err := st.signer.Sign(payload)
	if err != nil {
		return fmt.Errorf("persistence: seal: %w", err)
	}
	if _, err := st.kv.AtomicSet(ctx, st.key, token); err != nil {
		return fmt.Errorf("persistence: save: %w", err)
	}
	return nil
}

// Load reads the document back into a snapshot. A missing document is the
// empty state; so is a malformed or tampered one, logged but never fatal.
func (st *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	empty := domain.Snapshot{Profiles: map[string]domain.ProfileRecord{}}

	var doc *document
	if st.signer == nil {
		d, err := st.json.Get(ctx, st.key)
		if errors.Is(err, db.ErrMalformedValue) {
			slog.WarnContext(ctx, "stored registry document is malformed, starting empty", slog.Any("error", err))
			return empty, nil
		}
		if err != nil {
			return empty, fmt.Errorf("persistence: load: %w", err)
		}
		doc = d
	} else {
		raw, err := st.kv.AtomicGet(ctx, st.key)
		if err != nil {
			return empty, fmt.Errorf("persistence: load: %w", err)
		}
		if raw == nil {
			return empty, nil
		}
		bs, ok := raw.([]byte)
		if !ok {
			return empty, fmt.Errorf("persistence: load: expected []byte, got %T", raw)
		}
		payload, err := st.signer.Verify(string(bs))
		if err != nil {
			slog.WarnContext(ctx, "stored registry document failed seal verification, starting empty")
			return empty, nil
		}
		var d document
		if err := json.Unmarshal(payload, &d); err != nil {
			slog.WarnContext(ctx, "sealed registry document is malformed, starting empty", slog.Any("error", err))
			return empty, nil
		}
		doc = &d
	}

	if doc == nil {
		return empty, nil
	}

	snap := domain.Snapshot{
		NextIDHint: doc.NextIDHint,
		Profiles:   make(map[string]domain.ProfileRecord, len(doc.Profiles)),
	}
	for id, p := range doc.Profiles {
		snap.Profiles[id] = p.toRecord()
	}
	return snap, nil
}

// project builds the wire document from a snapshot. Records are projected by
// a small worker pool since the hot cost is copying multi-hundred-KiB photo
// strings for large registries.
func (st *Store) project(ctx context.Context, snap domain.Snapshot) document {
	doc := document{
		NextIDHint: snap.NextIDHint,
		Profiles:   make(map[string]persistedProfile, len(snap.Profiles)),
	}

	jobs := make(chan domain.ProfileRecord, len(snap.Profiles))
	for _, rec := range snap.Profiles {
		jobs <- rec
	}
	close(jobs)

	var mu sync.Mutex
	worker.BlockingPool(ctx, runtime.NumCPU(), jobs, func(ctx context.Context, rec domain.ProfileRecord) {
		p := st.projectProfile(ctx, rec)
		mu.Lock()
		doc.Profiles[p.ID] = p
		mu.Unlock()
	})
	return doc
}

func (st *Store) projectProfile(ctx context.Context, rec domain.ProfileRecord) persistedProfile {
	p := persistedProfile{
		ID:        rec.ID,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Email:     rec.Email,
		Programme: rec.Programme,
		Year:      rec.Year,
		Interests: rec.Interests,
		CreatedAt: rec.CreatedAt,
	}
	switch {
	case rec.PhotoURL == "":
		// stored as photoUrl null, no marker: there simply is no photo
	case len(rec.PhotoURL) > st.photoBudget:
		p.PhotoOmitted = true
		st.metrics.PhotoDropped(ctx)
		slog.DebugContext(ctx, "photo dropped from persisted document",
			slog.String("id", rec.ID), slog.Int("bytes", len(rec.PhotoURL)))
	default:
		url := rec.PhotoURL
		p.PhotoURL = &url
	}
	return p
}
