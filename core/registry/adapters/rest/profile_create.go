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
	"fmt"
	"log/slog"
	"net/http"

	"registry/modules/api/registryapi"
	"registry/modules/api/serde"
	"registry/modules/middleware/problem"
)

// CreateProfile handles a new-profile form submission.
// 201 with Location on success, 422 per violated field, 409 for a duplicate
// email or when another submission holds the gate.
func (s *RegistryAPI) CreateProfile(w http.ResponseWriter, r *http.Request) {
	sub, cleanup, err := parseSubmission(r)
	if err != nil {
		problem.Write(w, problem.BadRequest("malformed form submission"))
		return
	}
	defer cleanup()

	rec, err := s.app.CreateProfile(r.Context(), sub)
	if err != nil {
		slog.DebugContext(r.Context(), "domain error", slog.Any("error", err))
		problem.Write(w, problemFromDomainError(err))
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/profiles/%s", rec.ID))
	serde.WriteJSON(w, http.StatusCreated, registryapi.SuccessProfile{
		Data: mapProfile(*rec, nil),
	})
}
