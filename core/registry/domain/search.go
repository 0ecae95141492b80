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
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SearchField selects which record field a query runs against.
type SearchField string

const (
	FieldAll       SearchField = "all"
	FieldFirstName SearchField = "firstName"
	FieldLastName  SearchField = "lastName"
	FieldEmail     SearchField = "email"
	FieldProgramme SearchField = "programme"
	FieldYear      SearchField = "year"
	FieldInterests SearchField = "interests"
)

// namedFields is the expansion of FieldAll, in display order.
var namedFields = []SearchField{
	FieldFirstName, FieldLastName, FieldEmail,
	FieldProgramme, FieldYear, FieldInterests,
}

// SortKey orders search results.
type SortKey string

const (
	SortIDAsc    SortKey = "id_asc"
	SortIDDesc   SortKey = "id_desc"
	SortNameAsc  SortKey = "name_asc"
	SortNameDesc SortKey = "name_desc"
	SortYearAsc  SortKey = "year_asc"
	SortYearDesc SortKey = "year_desc"
)

type (
	// Criteria is one search request: free-text query, target field, order.
	// Zero value means "everything, insertion order by id".
	Criteria struct {
		Query string      `json:"query"`
		Field SearchField `json:"field"`
		Sort  SortKey     `json:"sort"`
	}

	// Span is a half-open [Start, End) byte range of a query occurrence
	// inside a field's text, for highlighting.
	Span struct {
		Start int `json:"start"`
		End   int `json:"end"`
	}

	// Match pairs a record with the occurrence spans per field that matched.
	Match struct {
		Record     ProfileRecord
		Highlights map[SearchField][]Span
	}
)

// Normalize fills in the defaults for omitted criteria parts.
func (c Criteria) Normalize() Criteria {
	if c.Field == "" {
		c.Field = FieldAll
	}
	if c.Sort == "" {
		c.Sort = SortIDAsc
	}
	return c
}

// ValidField reports whether f names a searchable field.
func ValidField(f SearchField) bool {
	if f == FieldAll {
		return true
	}
	for _, n := range namedFields {
		if n == f {
			return true
		}
	}
	return false
}

// ValidSort reports whether k is a known sort key.
func ValidSort(k SortKey) bool {
	switch k {
	case SortIDAsc, SortIDDesc, SortNameAsc, SortNameDesc, SortYearAsc, SortYearDesc:
		return true
	}
	return false
}

// FieldText extracts the searchable text of one field.
func FieldText(rec ProfileRecord, f SearchField) string {
	switch f {
	case FieldFirstName:
		return rec.FirstName
	case FieldLastName:
		return rec.LastName
	case FieldEmail:
		return rec.Email
	case FieldProgramme:
		return rec.Programme
	case FieldYear:
		return rec.Year
	case FieldInterests:
		return strings.Join(rec.Interests, ", ")
	}
	return ""
}

// EvaluateSearch filters and orders records. The query matches as a
// case-insensitive literal substring: metacharacters are escaped before the
// pattern is compiled, so "c++" finds "C++". An empty query matches every
// record with no highlights.
func EvaluateSearch(records []ProfileRecord, c Criteria) []Match {
	c = c.Normalize()

	var re *regexp.Regexp
	if c.Query != "" {
		re = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(c.Query))
	}

	fields := namedFields
	if c.Field != FieldAll {
		fields = []SearchField{c.Field}
	}

	matches := make([]Match, 0, len(records))
	for _, rec := range records {
		if re == nil {
			matches = append(matches, Match{Record: rec})
			continue
		}
		var hl map[SearchField][]Span
		for _, f := range fields {
			locs := re.FindAllStringIndex(FieldText(rec, f), -1)
			if len(locs) == 0 {
				continue
			}
			if hl == nil {
				hl = make(map[SearchField][]Span, len(fields))
			}
			spans := make([]Span, len(locs))
			for i, l := range locs {
				spans[i] = Span{Start: l[0], End: l[1]}
			}
			hl[f] = spans
		}
		if hl != nil {
			matches = append(matches, Match{Record: rec, Highlights: hl})
		}
	}

	sortMatches(matches, c.Sort)
	return matches
}

func sortMatches(matches []Match, key SortKey) {
	less := func(a, b ProfileRecord) bool { return a.ID < b.ID }
	switch key {
	case SortIDDesc:
		less = func(a, b ProfileRecord) bool { return a.ID > b.ID }
	case SortNameAsc:
		less = func(a, b ProfileRecord) bool { return compareName(a, b) < 0 }
	case SortNameDesc:
		less = func(a, b ProfileRecord) bool { return compareName(a, b) > 0 }
	case SortYearAsc:
		less = func(a, b ProfileRecord) bool { return compareYear(a, b) < 0 }
	case SortYearDesc:
		less = func(a, b ProfileRecord) bool { return compareYear(a, b) > 0 }
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return less(matches[i].Record, matches[j].Record)
	})
}

func compareName(a, b ProfileRecord) int {
	if c := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName))
}

// compareYear orders numerically where possible. Numeric years come before
// free-form values like "Exchange"; free-form values compare as strings.
func compareYear(a, b ProfileRecord) int {
	ai, aerr := strconv.Atoi(strings.TrimSpace(a.Year))
	bi, berr := strconv.Atoi(strings.TrimSpace(b.Year))
	switch {
	case aerr == nil && berr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		if c := strings.Compare(a.Year, b.Year); c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID, b.ID)
}
