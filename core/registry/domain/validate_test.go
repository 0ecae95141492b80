package domain

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     gofakeit.Email(),
		Programme: "CS",
		Year:      "2",
		Interests: []string{"math", "chess"},
	}
}

func noEmailTaken(string) bool { return false }

func TestValidateAcceptsWellFormedSubmission(t *testing.T) {
	errs := Validate(validSubmission(), noEmailTaken)
	assert.Empty(t, errs)
}

func TestValidateReportsEveryViolatedField(t *testing.T) {
	sub := Submission{
		FirstName: "   ",
		LastName:  "",
		Email:     "not-an-email",
		Programme: "",
		Year:      " ",
		Interests: []string{"a", "b", "c", "d"},
	}
	errs := Validate(sub, noEmailTaken)

	// no short-circuit: every field shows up at once
	require.Len(t, errs, 6)
	assert.Equal(t, FieldRequired, errs["firstName"])
	assert.Equal(t, FieldRequired, errs["lastName"])
	assert.Equal(t, FieldInvalidFormat, errs["email"])
	assert.Equal(t, FieldRequired, errs["programme"])
	assert.Equal(t, FieldRequired, errs["year"])
	assert.Equal(t, FieldTooMany, errs["interests"])
}

func TestValidateEmailRules(t *testing.T) {
	cases := []struct {
		email string
		want  FieldErrorCode
	}{
		{"", FieldRequired},
		{"plain", FieldInvalidFormat},
		{"a@b", FieldInvalidFormat},
		{"a@b.c", FieldInvalidFormat}, // single-letter TLD
		{"spaces in@local.part", FieldInvalidFormat},
		{"ada@example.org", ""},
		{"first.last+tag@sub.example.co", ""},
	}
	for _, c := range cases {
		sub := validSubmission()
		sub.Email = c.email
		errs := Validate(sub, noEmailTaken)
		if c.want == "" {
			assert.NotContains(t, errs, "email", "email %q", c.email)
		} else {
			assert.Equal(t, c.want, errs["email"], "email %q", c.email)
		}
	}
}

func TestValidateDuplicateUsesNormalizedEmail(t *testing.T) {
	taken := map[string]bool{"adalovelace@gmail.com": true}
	sub := validSubmission()
	sub.Email = "Ada.Lovelace+x@gmail.com"

	errs := Validate(sub, func(normalized string) bool { return taken[normalized] })
	assert.Equal(t, FieldDuplicate, errs["email"])
}

func TestValidateInterestsCountAfterCleaning(t *testing.T) {
	sub := validSubmission()
	sub.Interests = []string{" a ", "", "b", "  ", "c"}
	assert.Empty(t, Validate(sub, noEmailTaken))

	sub.Interests = []string{"a", "b", "c", "d"}
	errs := Validate(sub, noEmailTaken)
	assert.Equal(t, FieldTooMany, errs["interests"])
}

func TestValidatePhotoRules(t *testing.T) {
	sub := validSubmission()
	sub.Photo = &PhotoUpload{
		Filename:     "big.jpg",
		DeclaredType: "image/jpeg",
		Size:         3 << 20,
		Reader:       strings.NewReader(""),
	}
	errs := Validate(sub, noEmailTaken)
	assert.Equal(t, FieldTooLarge, errs["photo"])

	sub.Photo = &PhotoUpload{
		Filename:     "notes.gif",
		DeclaredType: "image/gif",
		Size:         10 << 10,
		Reader:       strings.NewReader(""),
	}
	errs = Validate(sub, noEmailTaken)
	assert.Equal(t, FieldUnsupportedType, errs["photo"])

	sub.Photo = &PhotoUpload{
		Filename:     "ok.png",
		DeclaredType: "image/png",
		Size:         10 << 10,
		Reader:       strings.NewReader(""),
	}
	assert.Empty(t, Validate(sub, noEmailTaken))
}

func TestSplitInterests(t *testing.T) {
	assert.Nil(t, SplitInterests("  "))
	assert.Equal(t, []string{"math", "chess"}, SplitInterests(" math , chess "))
	assert.Equal(t, []string{"a", "b", "c", "d"}, SplitInterests("a,b,c,d"))
	assert.Equal(t, []string{"solo"}, SplitInterests("solo,,,"))
}

func TestValidationErrorUnwrapsSentinels(t *testing.T) {
	err := &ValidationError{Fields: FieldErrors{"email": FieldDuplicate}}
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.ErrorIs(t, err, ErrDuplicateProfile)

	err = &ValidationError{Fields: FieldErrors{"firstName": FieldRequired}}
	assert.ErrorIs(t, err, ErrInvalidData)
	assert.NotErrorIs(t, err, ErrDuplicateProfile)
}
