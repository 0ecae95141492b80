package domain

import "strings"

// NormalizeEmail derives the comparison key used for duplicate detection.
// The stored and displayed email is always the literal user input; only the
// key is folded.
//
// Folding rules: lowercase the whole address and cut the local part at the
// first '+', since subaddress tags route to the same inbox on every common
// provider. Dot removal is Gmail-only (gmail.com and googlemail.com): dots
// are significant in local parts elsewhere.
func NormalizeEmail(email string) string {
	s := strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return s
	}
	local, dom := s[:at], s[at+1:]
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	if dom == "gmail.com" || dom == "googlemail.com" {
		local = strings.ReplaceAll(local, ".", "")
	}
	return local + "@" + dom
}
