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
	"strings"
)

// Conservative address check: local-part characters, a domain, and a TLD of
// at least two letters. Not RFC 5322; deliberate.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// AllowedPhotoTypes are the only MIME types a photo upload may declare.
var AllowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Validate checks a submission against the field rules. Every rule is
// evaluated, nothing short-circuits, so the result names all violated fields
// at once. isEmailTaken receives the normalized email and answers whether any
// other live record already uses it; the caller is responsible for excluding
// the record being edited.
//
// Validate never mutates anything; it only reports.
func Validate(sub Submission, isEmailTaken func(normalized string) bool) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(sub.FirstName) == "" {
		errs["firstName"] = FieldRequired
	}
	if strings.TrimSpace(sub.LastName) == "" {
		errs["lastName"] = FieldRequired
	}

	email := strings.TrimSpace(sub.Email)
	switch {
	case email == "":
		errs["email"] = FieldRequired
	case !emailPattern.MatchString(email):
		errs["email"] = FieldInvalidFormat
	case isEmailTaken != nil && isEmailTaken(NormalizeEmail(email)):
		errs["email"] = FieldDuplicate
	}

	if strings.TrimSpace(sub.Programme) == "" {
		errs["programme"] = FieldRequired
	}
	if strings.TrimSpace(sub.Year) == "" {
		errs["year"] = FieldRequired
	}

	if len(CleanInterests(sub.Interests)) > MaxInterests {
		errs["interests"] = FieldTooMany
	}

	if p := sub.Photo; p != nil {
		if p.Size > MaxPhotoBytes {
			errs["photo"] = FieldTooLarge
		} else if !AllowedPhotoTypes[p.DeclaredType] {
			errs["photo"] = FieldUnsupportedType
		}
	}

	return errs
}

// CleanInterests trims each tag and drops blanks, preserving order. It does
// not cap the count; that is the validator's call.
func CleanInterests(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitInterests parses the comma-separated form value into clean tags.
func SplitInterests(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return CleanInterests(strings.Split(raw, ","))
}
