package domain

import (
	"hash/fnv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type (
	// View is the render model both surfaces are built from: the same match
	// set projected as cards and as table rows.
	View struct {
		Cards []Card `json:"cards"`
		Rows  []Row  `json:"rows"`
	}

	// Placeholder stands in for a missing photo: the person's initials on a
	// deterministic background colour.
	Placeholder struct {
		Initials string `json:"initials"`
		Color    string `json:"color"`
	}

	Card struct {
		ID          string                 `json:"id"`
		FullName    string                 `json:"fullName"`
		Email       string                 `json:"email"`
		Programme   string                 `json:"programme"`
		Year        string                 `json:"year"`
		Interests   []string               `json:"interests"`
		PhotoURL    string                 `json:"photoUrl,omitempty"`
		Placeholder *Placeholder           `json:"placeholder,omitempty"`
		Highlights  map[SearchField][]Span `json:"highlights,omitempty"`
	}

	Row struct {
		ID         string                 `json:"id"`
		FirstName  string                 `json:"firstName"`
		LastName   string                 `json:"lastName"`
		Email      string                 `json:"email"`
		Programme  string                 `json:"programme"`
		Year       string                 `json:"year"`
		Interests  string                 `json:"interests"`
		Highlights map[SearchField][]Span `json:"highlights,omitempty"`
	}
)

var placeholderPalette = []string{
	"#2563eb", "#7c3aed", "#db2777", "#ea580c",
	"#16a34a", "#0d9488", "#4f46e5", "#b91c1c",
}

// Present projects matches into the view model. Cards and rows are built
// from the same slice, so the two surfaces can never disagree on membership
// or order.
func Present(matches []Match) View {
	v := View{
		Cards: make([]Card, 0, len(matches)),
		Rows:  make([]Row, 0, len(matches)),
	}
	for _, m := range matches {
		rec := m.Record
		card := Card{
			ID:         rec.ID,
			FullName:   strings.TrimSpace(rec.FirstName + " " + rec.LastName),
			Email:      rec.Email,
			Programme:  rec.Programme,
			Year:       rec.Year,
			Interests:  rec.Interests,
			PhotoURL:   rec.PhotoURL,
			Highlights: m.Highlights,
		}
		if rec.PhotoURL == "" {
			p := PlaceholderFor(rec)
			card.Placeholder = &p
		}
		v.Cards = append(v.Cards, card)
		v.Rows = append(v.Rows, Row{
			ID:         rec.ID,
			FirstName:  rec.FirstName,
			LastName:   rec.LastName,
			Email:      rec.Email,
			Programme:  rec.Programme,
			Year:       rec.Year,
			Interests:  strings.Join(rec.Interests, ", "),
			Highlights: m.Highlights,
		})
	}
	return v
}

// PlaceholderFor derives the initials avatar for a record without a photo.
// The colour is a stable function of the record id, so a profile keeps its
// colour across re-renders and restarts.
func PlaceholderFor(rec ProfileRecord) Placeholder {
	return Placeholder{
		Initials: initials(rec.FirstName, rec.LastName),
		Color:    placeholderPalette[colorIndex(rec.ID)],
	}
}

func initials(first, last string) string {
	var b strings.Builder
	for _, s := range []string{first, last} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		b.WriteRune(unicode.ToUpper(r))
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

func colorIndex(id string) int {
	h := fnv.New32a()
	h.Write([]byte(id))
	return int(h.Sum32() % uint32(len(placeholderPalette)))
}
