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

// BeginEdit loads a record into the form and enters editing mode for its id.
// Starting an edit while another is in progress implicitly abandons the
// prior one; the store is untouched either way. Any pending submission is
// invalidated by bumping the form generation.
func (app *Application) BeginEdit(id string) (*ProfileRecord, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	rec, ok := app.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	app.editingID = id
	app.formGen++
	app.status = Status{
		Level:   StatusInfo,
		Message: fmt.Sprintf("editing %s %s", rec.FirstName, rec.LastName),
		At:      app.clock.Now(),
	}
	return &rec, nil
}

// CancelEdit leaves editing mode without saving.
func (app *Application) CancelEdit() {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.editingID = ""
	app.formGen++
	app.status = Status{Level: StatusInfo, Message: "edit cancelled", At: app.clock.Now()}
}

// UpdateProfile overwrites the fields of the record being edited. The id is
// preserved, and so is the existing photo unless the submission attaches a
// replacement or asks for it to be cleared. A successful save exits editing
// mode.
func (app *Application) UpdateProfile(ctx context.Context, id string, sub Submission) (*ProfileRecord, error) {
	if !app.tryAcquire() {
		return nil, ErrBusy
	}
	defer app.release()

	app.mu.RLock()
	editing := app.editingID
	gen := app.formGen
	taken := app.emailInUse(id)
	existing, ok := app.profiles[id]
	app.mu.RUnlock()

	if !ok {
		return nil, ErrProfileNotFound
	}
	if editing != id {
		return nil, ErrNotEditing
	}

	sub.Interests = CleanInterests(sub.Interests)
	if errs := Validate(sub, taken); len(errs) > 0 {
		app.setStatus(StatusError, "please fix the highlighted fields")
		return nil, &ValidationError{Fields: errs}
	}

	photoURL, verr, err := app.encodePhoto(ctx, sub.Photo)
	if verr != nil {
		app.setStatus(StatusError, "please fix the highlighted fields")
		return nil, verr
	}
	if err != nil {
		return nil, err
	}

	app.mu.Lock()
	if app.formGen != gen {
		app.mu.Unlock()
		slog.InfoContext(ctx, "submission discarded after form reset", slog.String("id", id))
		return nil, ErrStaleSubmission
	}
	rec := ProfileRecord{
		ID:        id,
		FirstName: sub.FirstName,
		LastName:  sub.LastName,
		Email:     sub.Email,
		Programme: sub.Programme,
		Year:      sub.Year,
		Interests: sub.Interests,
		PhotoURL:  existing.PhotoURL,
		CreatedAt: existing.CreatedAt,
	}
	switch {
	case sub.Photo != nil:
		rec.PhotoURL = photoURL
	case sub.ClearPhoto:
		rec.PhotoURL = ""
	}
	app.profiles[id] = rec
	app.editingID = ""
	app.formGen++
	app.mu.Unlock()

	slog.DebugContext(ctx, "updated profile", slog.String("id", id))
	app.persist(ctx, fmt.Sprintf("profile for %s %s updated", rec.FirstName, rec.LastName))
	return &rec, nil
}
