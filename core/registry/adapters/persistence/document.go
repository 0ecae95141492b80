package persistence

import (
	"time"

	"registry/core/registry/domain"
)

// document is the wire shape of the persisted registry: one JSON object
// under one key, holding every profile plus the id counter hint.
type document struct {
	NextIDHint int                         `json:"nextIdHint"`
	Profiles   map[string]persistedProfile `json:"profiles"`
}

// persistedProfile mirrors domain.ProfileRecord with one difference: a photo
// above the compression threshold is stored as photoUrl null with the
// _photoOmitted marker, so the record survives even when its image does not.
type persistedProfile struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Programme    string    `json:"programme"`
	Year         string    `json:"year"`
	Interests    []string  `json:"interests"`
	PhotoURL     *string   `json:"photoUrl"`
	PhotoOmitted bool      `json:"_photoOmitted,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// toRecord maps the wire shape back to the domain model. An omitted or null
// photo loads as "no photo"; the presenter falls back to the initials
// placeholder.
func (p persistedProfile) toRecord() domain.ProfileRecord {
	rec := domain.ProfileRecord{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Programme: p.Programme,
		Year:      p.Year,
		Interests: p.Interests,
		CreatedAt: p.CreatedAt,
	}
	if p.PhotoURL != nil && !p.PhotoOmitted {
		rec.PhotoURL = *p.PhotoURL
	}
	return rec
}
