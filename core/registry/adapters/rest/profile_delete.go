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

// RequestRemoval marks a record for removal and echoes it back so the client
// can render the confirmation prompt.
func (s *RegistryAPI) RequestRemoval(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.RequestRemoval(r.PathValue("id"))
	if err != nil {
		problem.Write(w, problemFromDomainError(err))
		return
	}
	serde.WriteJSON(w, http.StatusOK, registryapi.SuccessProfile{
		Data: mapProfile(*rec, nil),
	})
}

// ConfirmRemoval deletes the record whose removal was previously requested.
// Confirming an id with no pending request is a conflict.
func (s *RegistryAPI) ConfirmRemoval(w http.ResponseWriter, r *http.Request) {
	if err := s.app.ConfirmRemoval(r.Context(), r.PathValue("id")); err != nil {
		slog.DebugContext(r.Context(), "domain error", slog.Any("error", err))
		problem.Write(w, problemFromDomainError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelRemoval clears any pending removal; always succeeds.
func (s *RegistryAPI) CancelRemoval(w http.ResponseWriter, r *http.Request) {
	s.app.CancelRemoval()
	w.WriteHeader(http.StatusNoContent)
}
