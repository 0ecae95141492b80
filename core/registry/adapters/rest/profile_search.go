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
	"net/http"
	"net/url"

	"registry/core/registry/domain"
	"registry/modules/api/registryapi"
	"registry/modules/api/serde"
	"registry/modules/middleware/problem"
)

// criteriaFromQuery parses ?query=&field=&sort=. The second return is false
// when no search parameter is present at all, in which case callers fall
// back to the session's debounced criteria.
func criteriaFromQuery(q url.Values) (domain.Criteria, bool, *problem.Problem) {
	if !q.Has("query") && !q.Has("field") && !q.Has("sort") {
		return domain.Criteria{}, false, nil
	}
	c := domain.Criteria{
		Query: q.Get("query"),
		Field: domain.SearchField(q.Get("field")),
		Sort:  domain.SortKey(q.Get("sort")),
	}
	if c.Field != "" && !domain.ValidField(c.Field) {
		return c, true, problem.BadRequest("unknown search field", problem.WithInvalidParam("field", "unknown value"))
	}
	if c.Sort != "" && !domain.ValidSort(c.Sort) {
		return c, true, problem.BadRequest("unknown sort key", problem.WithInvalidParam("sort", "unknown value"))
	}
	return c.Normalize(), true, nil
}

// ListProfiles returns the filtered, ordered entries with highlight spans.
func (s *RegistryAPI) ListProfiles(w http.ResponseWriter, r *http.Request) {
	c, explicit, prob := criteriaFromQuery(r.URL.Query())
	if prob != nil {
		problem.Write(w, prob)
		return
	}
	var crit *domain.Criteria
	if explicit {
		crit = &c
	}

	matches := s.app.Search(crit)
	out := registryapi.ProfileList{
		Data:  make([]registryapi.Profile, 0, len(matches)),
		Count: len(matches),
	}
	for _, m := range matches {
		out.Data = append(out.Data, mapProfile(m.Record, m.Highlights))
	}
	serde.WriteJSON(w, http.StatusOK, out)
}

// View returns the full render model: the same matches projected as cards
// and table rows, with placeholders for photoless records.
func (s *RegistryAPI) View(w http.ResponseWriter, r *http.Request) {
	c, explicit, prob := criteriaFromQuery(r.URL.Query())
	if prob != nil {
		problem.Write(w, prob)
		return
	}
	var crit *domain.Criteria
	if explicit {
		crit = &c
	}
	serde.WriteJSON(w, http.StatusOK, s.app.View(crit))
}

// SetSearch updates the session's search criteria through the debouncer:
// rapid successive calls collapse into one evaluation of the latest
// criteria. 202 because the criteria take effect after the quiet period.
func (s *RegistryAPI) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req registryapi.SearchRequest
	if err := serde.ParseJsonBody(r.Body, &req); err != nil {
		problem.Write(w, problem.BadRequest("malformed search request"))
		return
	}
	c := domain.Criteria{
		Query: req.Query,
		Field: domain.SearchField(req.Field),
		Sort:  domain.SortKey(req.Sort),
	}
	if c.Field != "" && !domain.ValidField(c.Field) {
		problem.Write(w, problem.BadRequest("unknown search field", problem.WithInvalidParam("field", "unknown value")))
		return
	}
	if c.Sort != "" && !domain.ValidSort(c.Sort) {
		problem.Write(w, problem.BadRequest("unknown sort key", problem.WithInvalidParam("sort", "unknown value")))
		return
	}
	s.app.SetSearchCriteria(c)
	w.WriteHeader(http.StatusAccepted)
}

// ClearSearch drops any pending debounce and resets to the full set.
func (s *RegistryAPI) ClearSearch(w http.ResponseWriter, r *http.Request) {
	s.app.ClearSearch()
	w.WriteHeader(http.StatusNoContent)
}
