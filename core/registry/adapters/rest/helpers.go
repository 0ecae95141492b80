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

package rest

import (
	"errors"
	"net/http"

	"registry/core/registry/domain"
	"registry/modules/api/registryapi"
	"registry/modules/middleware/problem"

	"github.com/oapi-codegen/nullable"
	"github.com/oapi-codegen/runtime/types"
)

// multipartMemory caps the in-memory portion of a parsed form; larger photo
// parts spill to temp files.
const multipartMemory = 4 << 20

// parseSubmission reads the multipart form into a domain submission. The
// returned cleanup closes the photo part (if any) and must run after the
// domain call completes.
func parseSubmission(r *http.Request) (domain.Submission, func(), error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return domain.Submission{}, func() {}, err
	}
	sub := domain.Submission{
		FirstName:  r.FormValue("firstName"),
		LastName:   r.FormValue("lastName"),
		Email:      r.FormValue("email"),
		Programme:  r.FormValue("programme"),
		Year:       r.FormValue("year"),
		Interests:  domain.SplitInterests(r.FormValue("interests")),
		ClearPhoto: r.FormValue("clearPhoto") == "true",
	}

	file, header, err := r.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return sub, func() {}, nil
	case err != nil:
		return domain.Submission{}, func() {}, err
	}

	sub.Photo = &domain.PhotoUpload{
		Filename:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
		Reader:       file,
	}
	return sub, func() { _ = file.Close() }, nil
}

// mapProfile converts the domain record to its API projection.
func mapProfile(rec domain.ProfileRecord, hl map[domain.SearchField][]domain.Span) registryapi.Profile {
	p := registryapi.Profile{
		Id:        rec.ID,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Email:     types.Email(rec.Email),
		Programme: rec.Programme,
		Year:      rec.Year,
		Interests: rec.Interests,
		CreatedAt: &rec.CreatedAt,
	}
	if rec.PhotoURL == "" {
		p.PhotoUrl = nullable.NewNullNullable[string]()
	} else {
		p.PhotoUrl = nullable.NewNullableWithValue(rec.PhotoURL)
	}
	if len(hl) > 0 {
		p.Highlights = make(map[string][]registryapi.Span, len(hl))
		for field, spans := range hl {
			out := make([]registryapi.Span, len(spans))
			for i, s := range spans {
				out[i] = registryapi.Span{Start: s.Start, End: s.End}
			}
			p.Highlights[string(field)] = out
		}
	}
	return p
}

// problemFromDomainError maps domain failures onto RFC7807 problems. A
// validation failure lists every violated field in invalidParams; a
// duplicate email is a conflict, not a schema problem.
func problemFromDomainError(err error) *problem.Problem {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		status, title := http.StatusUnprocessableEntity, "Unprocessable Entity"
		if errors.Is(err, domain.ErrDuplicateProfile) {
			status, title = http.StatusConflict, "Conflict"
		}
		opts := []problem.Option{
			problem.WithStatus(status),
			problem.WithTitle(title),
			problem.WithDetail("submission failed validation"),
		}
		for field, code := range verr.Fields {
			opts = append(opts, problem.WithInvalidParam(field, string(code)))
		}
		return problem.New(opts...)
	}

	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		return problem.NotFound("profile not found")
	case errors.Is(err, domain.ErrBusy):
		return problem.Conflict("another submission is still in progress")
	case errors.Is(err, domain.ErrNotEditing):
		return problem.Conflict("no edit in progress for this profile")
	case errors.Is(err, domain.ErrNoPendingRemoval):
		return problem.Conflict("no removal pending for this profile")
	case errors.Is(err, domain.ErrStaleSubmission):
		return problem.Conflict("submission was superseded by a form reset")
	}
	return problem.Internal("unhandled error")
}
