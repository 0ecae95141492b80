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

package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"registry/modules/clock"
	"registry/modules/debounce"
	"registry/modules/telemetry"

	"github.com/gofrs/uuid/v5"
)

// Application owns the in-memory profile store and all mutations of it.
//
// Mutations are serialized by a capacity-1 gate: while one submission is in
// flight (including its photo encode), a second create/update/delete is
// rejected with ErrBusy rather than queued. Reads take the shared lock and
// never wait on the gate.
type Application struct {
	store   DocumentStore
	encoder PhotoEncoder
	clock   clock.Clock
	metrics *telemetry.RegistryMetrics

	gate chan struct{}

	mu         sync.RWMutex
	profiles   map[string]ProfileRecord
	nextIDHint int

	// editing-mode state machine: at most one record at a time.
	editingID        string
	pendingRemovalID string

	// formGen increments on every form reset (edit begin/cancel, removal).
	// A submission snapshots it before the photo encode and re-checks it
	// after, so a late-arriving encode result never writes stale data.
	formGen uint64

	status   Status
	criteria Criteria
	search   *debounce.Debouncer[Criteria]
}

type AppOption func(*Application)

// WithMetrics attaches registry instrumentation; nil is fine.
func WithMetrics(m *telemetry.RegistryMetrics) AppOption {
	return func(app *Application) { app.metrics = m }
}

// WithSearchQuietPeriod overrides the search debounce interval.
func WithSearchQuietPeriod(d time.Duration) AppOption {
	return func(app *Application) {
		app.search.Close()
		app.search = debounce.New(d, app.applyCriteria)
	}
}

func NewApp(store DocumentStore, encoder PhotoEncoder, clk clock.Clock, opts ...AppOption) *Application {
	app := &Application{
		store:    store,
		encoder:  encoder,
		clock:    clk,
		gate:     make(chan struct{}, 1),
		profiles: make(map[string]ProfileRecord),
	}
	app.search = debounce.New(0, app.applyCriteria)
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Bootstrap loads the persisted document into memory. An unreadable or
// absent document yields the empty state; Bootstrap only fails on transport
// errors the store considers retryable.
func (app *Application) Bootstrap(ctx context.Context) error {
	snap, err := app.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	app.mu.Lock()
	app.profiles = snap.Profiles
	if app.profiles == nil {
		app.profiles = make(map[string]ProfileRecord)
	}
	app.nextIDHint = snap.NextIDHint
	app.mu.Unlock()

	slog.InfoContext(ctx, "registry loaded", slog.Int("profiles", len(snap.Profiles)))
	app.setStatus(StatusInfo, fmt.Sprintf("loaded %d profile(s)", len(snap.Profiles)))
	return nil
}

// Close releases the debounce timer.
func (app *Application) Close() {
	app.search.Close()
}

// --- busy gate ----

func (app *Application) tryAcquire() bool {
	select {
	case app.gate <- struct{}{}:
		return true
	default:
		return false
	}
}

func (app *Application) release() { <-app.gate }

// --- status line ----

func (app *Application) setStatus(level StatusLevel, msg string) {
	app.mu.Lock()
	app.status = Status{Level: level, Message: msg, At: app.clock.Now()}
	app.mu.Unlock()
}

// Status returns the outcome of the last operation.
func (app *Application) Status() Status {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.status
}

// EditingID returns the id currently loaded into the form, or "".
func (app *Application) EditingID() string {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.editingID
}

// PendingRemovalID returns the id awaiting removal confirmation, or "".
func (app *Application) PendingRemovalID() string {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.pendingRemovalID
}

// --- reads ----

// Profile returns one record by id.
func (app *Application) Profile(id string) (*ProfileRecord, error) {
	app.mu.RLock()
	defer app.mu.RUnlock()
	rec, ok := app.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &rec, nil
}

// Records returns all live records ordered by id ascending. Ids are
// time-ordered, so this is creation order.
func (app *Application) Records() []ProfileRecord {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.recordsLocked()
}

func (app *Application) recordsLocked() []ProfileRecord {
	out := make([]ProfileRecord, 0, len(app.profiles))
	for _, rec := range app.profiles {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- search session ----

// SetSearchCriteria schedules a criteria change. Changes are debounced:
// rapid keystrokes collapse into one evaluation of the latest criteria.
func (app *Application) SetSearchCriteria(c Criteria) {
	app.search.Submit(c.Normalize())
}

// ClearSearch cancels any pending debounce and resets to "show everything"
// immediately.
func (app *Application) ClearSearch() {
	app.search.Cancel()
	app.applyCriteria(Criteria{}.Normalize())
}

func (app *Application) applyCriteria(c Criteria) {
	app.mu.Lock()
	app.criteria = c
	app.mu.Unlock()
}

// SearchCriteria returns the criteria currently applied (post-debounce).
func (app *Application) SearchCriteria() Criteria {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.criteria
}

// Search evaluates criteria against the live records. A nil criteria uses
// the session's current (debounced) criteria.
func (app *Application) Search(c *Criteria) []Match {
	app.mu.RLock()
	records := app.recordsLocked()
	crit := app.criteria
	app.mu.RUnlock()
	if c != nil {
		crit = c.Normalize()
	}
	return EvaluateSearch(records, crit)
}

// View renders the current match set for both surfaces.
func (app *Application) View(c *Criteria) View {
	return Present(app.Search(c))
}

// --- shared mutation helpers ----

// emailInUse builds a normalized-email membership check over the live
// records, excluding excludeID (the record being edited).
func (app *Application) emailInUse(excludeID string) func(string) bool {
	used := make(map[string]struct{}, len(app.profiles))
	for id, rec := range app.profiles {
		if id == excludeID {
			continue
		}
		used[NormalizeEmail(rec.Email)] = struct{}{}
	}
	return func(normalized string) bool {
		_, ok := used[normalized]
		return ok
	}
}

// mintID issues a fresh, time-ordered identifier. Ids are never reused:
// UUIDv7 embeds the mint timestamp, so a deleted id cannot come back.
func (app *Application) mintID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("mint id: %w", err)
	}
	return id.String(), nil
}

// snapshotLocked captures the persistence projection. Callers hold mu.
func (app *Application) snapshotLocked() Snapshot {
	profiles := make(map[string]ProfileRecord, len(app.profiles))
	for id, rec := range app.profiles {
		profiles[id] = rec
	}
	return Snapshot{NextIDHint: app.nextIDHint, Profiles: profiles}
}

// persist writes the current snapshot through the document store. A write
// failure is non-fatal: the in-memory mutation stands, the status line
// reports degraded durability, and the failure is counted.
func (app *Application) persist(ctx context.Context, successMsg string) {
	app.mu.RLock()
	snap := app.snapshotLocked()
	app.mu.RUnlock()

	if err := app.store.Save(ctx, snap); err != nil {
		app.metrics.SaveFailed(ctx)
		slog.WarnContext(ctx, "registry document save failed, in-memory state remains authoritative",
			slog.Any("error", err))
		app.setStatus(StatusError, successMsg+", but saving failed: changes may not survive a restart")
		return
	}
	app.setStatus(StatusSuccess, successMsg)
}
