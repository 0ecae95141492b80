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
)

// Removal is a two-step protocol: RequestRemoval marks the record and asks
// for confirmation, ConfirmRemoval performs the delete. A request for a
// second record supersedes the first; CancelRemoval clears the mark.

func (app *Application) RequestRemoval(id string) (*ProfileRecord, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	rec, ok := app.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	app.pendingRemovalID = id
	app.status = Status{
		Level:   StatusInfo,
		Message: fmt.Sprintf("confirm removal of %s %s", rec.FirstName, rec.LastName),
		At:      app.clock.Now(),
	}
	return &rec, nil
}

func (app *Application) CancelRemoval() {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.pendingRemovalID = ""
	app.status = Status{Level: StatusInfo, Message: "removal cancelled", At: app.clock.Now()}
}

// ConfirmRemoval deletes the record whose removal was requested. The id must
// match the pending request; confirming without a matching request fails
// with ErrNoPendingRemoval. Removing the record also abandons any edit of
// it and invalidates in-flight submissions.
func (app *Application) ConfirmRemoval(ctx context.Context, id string) error {
	if !app.tryAcquire() {
		return ErrBusy
	}
	defer app.release()

	app.mu.Lock()
	if app.pendingRemovalID != id {
		app.mu.Unlock()
		return ErrNoPendingRemoval
	}
	rec, ok := app.profiles[id]
	if !ok {
		app.pendingRemovalID = ""
		app.mu.Unlock()
		return ErrProfileNotFound
	}
	delete(app.profiles, id)
	app.pendingRemovalID = ""
	if app.editingID == id {
		app.editingID = ""
	}
	app.formGen++
	app.mu.Unlock()

	app.metrics.ProfileDeleted(ctx)
	slog.DebugContext(ctx, "removed profile", slog.String("id", id))
	app.persist(ctx, fmt.Sprintf("profile for %s %s removed", rec.FirstName, rec.LastName))
	return nil
}
