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
	"context"
	"embed"
	"log/slog"
	"net/http"

	"registry/core/registry/domain"
	"registry/modules/middleware"
	"registry/modules/middleware/problem"
	"registry/modules/server"
)

//go:embed registry-api.yaml
var specFS embed.FS

// RegistryAPI is the REST adapter: it translates the form-style HTTP surface
// into domain operations and domain errors into RFC7807 problems.
type RegistryAPI struct {
	app *domain.Application
}

func NewRegistryService(app *domain.Application) *RegistryAPI {
	return &RegistryAPI{app: app}
}

var _ server.RegistrableService = (*RegistryAPI)(nil)

func (s *RegistryAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/profiles", s.CreateProfile)
	mux.HandleFunc("GET /v1/profiles", s.ListProfiles)
	mux.HandleFunc("PUT /v1/profiles/{id}", s.UpdateProfile)

	mux.HandleFunc("POST /v1/profiles/{id}/edit", s.BeginEdit)
	mux.HandleFunc("POST /v1/registry/edit/cancel", s.CancelEdit)

	mux.HandleFunc("POST /v1/profiles/{id}/removal", s.RequestRemoval)
	mux.HandleFunc("POST /v1/profiles/{id}/removal/confirm", s.ConfirmRemoval)
	mux.HandleFunc("POST /v1/registry/removal/cancel", s.CancelRemoval)

	mux.HandleFunc("POST /v1/registry/search", s.SetSearch)
	mux.HandleFunc("POST /v1/registry/search/clear", s.ClearSearch)
	mux.HandleFunc("GET /v1/registry/view", s.View)
	mux.HandleFunc("GET /v1/registry/status", s.Status)

	mux.HandleFunc("GET /healthz", s.Healthz)
}

// Middlewares returns the request validation chain every route runs behind.
func (s *RegistryAPI) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.OpenAPIValidation(specFS, "registry-api.yaml", s.validationError, s.specLoadError),
	}
}

func (s *RegistryAPI) validationError(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, status int) {
	opts := []problem.Option{
		problem.WithStatus(status),
		problem.WithDetail("request validation failed"),
		problem.WithInstance(r.URL.Path),
	}
	for _, ve := range middleware.ExtractValidationErrors(err) {
		opts = append(opts, problem.WithInvalidParam(ve.Field, middleware.SafeReason(ve.Reason)))
	}
	problem.Write(w, problem.New(opts...))
}

func (s *RegistryAPI) specLoadError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "api description failed to load", slog.Any("error", err))
	problem.Write(w, problem.Internal("service misconfigured"))
}

// Healthz reports liveness; 204 means the process is serving.
func (s *RegistryAPI) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
