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
	"errors"
	"fmt"
	"log/slog"
)

// CreateProfile validates a submission, encodes its photo if one is
// attached, and inserts a new record under a freshly minted id.
//
// The form generation is snapshotted before the encode and re-checked under
// the write lock afterwards: if an edit began or was cancelled while the
// encode was pending, the result is stale and the insert is abandoned.
func (app *Application) CreateProfile(ctx context.Context, sub Submission) (*ProfileRecord, error) {
	if !app.tryAcquire() {
		return nil, ErrBusy
	}
	defer app.release()

	app.mu.RLock()
	gen := app.formGen
	taken := app.emailInUse("")
	app.mu.RUnlock()

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

	id, err := app.mintID()
	if err != nil {
		slog.ErrorContext(ctx, "unexpected error", slog.Any("error", err))
		return nil, ErrUnhandled
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
		PhotoURL:  photoURL,
		CreatedAt: app.clock.Now(),
	}
	app.profiles[id] = rec
	app.nextIDHint++
	app.mu.Unlock()

	app.metrics.ProfileCreated(ctx)
	slog.DebugContext(ctx, "created profile", slog.String("id", id))
	app.persist(ctx, fmt.Sprintf("profile for %s %s created", rec.FirstName, rec.LastName))
	return &rec, nil
}

// encodePhoto runs the encoder for an attached upload. verr carries the
// per-field rejection (size, type, unreadable bytes); err is an unexpected
// failure.
func (app *Application) encodePhoto(ctx context.Context, p *PhotoUpload) (url string, verr *ValidationError, err error) {
	if p == nil {
		return "", nil, nil
	}
	url, err = app.encoder.Encode(ctx, p)
	switch {
	case err == nil:
		return url, nil, nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "", nil, err
	}

	code := FieldReadError
	switch {
	case errors.Is(err, ErrPhotoTooLarge):
		code = FieldTooLarge
	case errors.Is(err, ErrPhotoUnsupported):
		code = FieldUnsupportedType
	default:
		slog.WarnContext(ctx, "photo encode failed", slog.Any("error", err))
	}
	return "", &ValidationError{Fields: FieldErrors{"photo": code}}, nil
}
