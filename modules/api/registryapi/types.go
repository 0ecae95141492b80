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

// Package registryapi holds the wire models of the registry HTTP API.
package registryapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	"github.com/oapi-codegen/runtime/types"
)

type (
	// Span is a half-open [start, end) byte range of a query occurrence,
	// used by clients to render highlights.
	Span struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}

	// Profile is the API projection of one record. PhotoUrl is tri-state:
	// absent (not serialized), explicit null (no photo), or a data URI.
	Profile struct {
		Id         string                    `json:"id"`
		FirstName  string                    `json:"firstName"`
		LastName   string                    `json:"lastName"`
		Email      types.Email               `json:"email"`
		Programme  string                    `json:"programme"`
		Year       string                    `json:"year"`
		Interests  []string                  `json:"interests"`
		PhotoUrl   nullable.Nullable[string] `json:"photoUrl,omitempty"`
		CreatedAt  *time.Time                `json:"createdAt,omitempty"`
		Highlights map[string][]Span         `json:"highlights,omitempty"`
	}

	SuccessProfile struct {
		Data Profile `json:"data"`
	}

	ProfileList struct {
		Data  []Profile `json:"data"`
		Count int       `json:"count"`
	}

	// SearchRequest updates the session's debounced search criteria.
	SearchRequest struct {
		Query string `json:"query"`
		Field string `json:"field,omitempty"`
		Sort  string `json:"sort,omitempty"`
	}

	// Status mirrors the single status line of the registry.
	Status struct {
		Level   string    `json:"level"`
		Message string    `json:"message"`
		At      time.Time `json:"at"`
	}

	// RegistryStatus reports the status line plus the transient UI state
	// machine: which record is loaded for editing and which one awaits
	// removal confirmation.
	RegistryStatus struct {
		Status           Status  `json:"status"`
		EditingId        *string `json:"editingId,omitempty"`
		PendingRemovalId *string `json:"pendingRemovalId,omitempty"`
	}
)
