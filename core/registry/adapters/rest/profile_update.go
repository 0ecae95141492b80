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
	"log/slog"
	"net/http"

	"registry/modules/api/registryapi"
	"registry/modules/api/serde"
	"registry/modules/middleware/problem"
)

// BeginEdit loads a record into the form and enters editing mode.
func (s *RegistryAPI) BeginEdit(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.BeginEdit(r.PathValue("id"))
	if err != nil {
		problem.Write(w, problemFromDomainError(err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, registryapi.SuccessProfile{
		Data: mapProfile(*rec, nil),
	})
}

// CancelEdit leaves editing mode without saving; always succeeds.
func (s *RegistryAPI) CancelEdit(w http.ResponseWriter, r *http.Request) {
	s.app.CancelEdit()
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProfile handles the edit form submission for the record being
// edited. A submission without a new photo carries the stored one over;
// clearPhoto=true drops it.
func (s *RegistryAPI) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sub, cleanup, err := parseSubmission(r)
	if err != nil {
		problem.Write(w, problem.BadRequest("malformed form submission"))
		return
	}
	defer cleanup()

	rec, err := s.app.UpdateProfile(r.Context(), r.PathValue("id"), sub)
	if err != nil {
		slog.DebugContext(r.Context(), "domain error", slog.Any("error", err))
		problem.Write(w, problemFromDomainError(err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, registryapi.SuccessProfile{
		Data: mapProfile(*rec, nil),
	})
}
