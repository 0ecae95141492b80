package domain

import (
	"io"
	"time"
)

// Limits enforced on profile submissions.
const (
	MaxInterests  = 3
	MaxPhotoBytes = 2 << 20 // 2 MiB
)

type (
	// ProfileRecord is the domain model used by the application layer.
	// Email is stored and displayed literally; the normalized form exists
	// only as a comparison key (see NormalizeEmail).
	ProfileRecord struct {
		ID        string    `json:"id"`
		FirstName string    `json:"firstName"`
		LastName  string    `json:"lastName"`
		Email     string    `json:"email"`
		Programme string    `json:"programme"`
		Year      string    `json:"year"`
		Interests []string  `json:"interests"`
		PhotoURL  string    `json:"photoUrl,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// PhotoUpload is a not-yet-encoded image attached to a submission.
	// Size and DeclaredType come from the transport (multipart headers);
	// the encoder re-checks both against the actual bytes.
	PhotoUpload struct {
		Filename     string
		DeclaredType string
		Size         int64
		Reader       io.Reader
	}

	// Submission carries the raw form values of a create or edit. A nil
	// Photo means "no new photo": on edit the existing one is carried over
	// unless ClearPhoto is set.
	Submission struct {
		FirstName  string
		LastName   string
		Email      string
		Programme  string
		Year       string
		Interests  []string
		Photo      *PhotoUpload
		ClearPhoto bool
	}

	// Snapshot is the persistence-facing projection of the store: the whole
	// registry as one document.
	Snapshot struct {
		NextIDHint int
		Profiles   map[string]ProfileRecord
	}
)

// StatusLevel classifies the outcome reported on the status line.
type StatusLevel string

const (
	StatusInfo    StatusLevel = "info"
	StatusSuccess StatusLevel = "success"
	StatusError   StatusLevel = "error"
)

// Status is the single user-visible line reporting the outcome of the last
// operation.
type Status struct {
	Level   StatusLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}
