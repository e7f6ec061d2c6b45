package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// SplitDisplayName splits a display name on whitespace: the first token is the
// first name and the remaining tokens, joined by a single space, the last name.
// An empty display name falls back to the local part of the email.
func SplitDisplayName(displayName, email string) (firstName, lastName string) {
	parts := strings.Fields(displayName)
	if len(parts) == 0 {
		return EmailLocalPart(email), ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// EmailLocalPart returns everything before the last '@'.
func EmailLocalPart(email string) string {
	if i := strings.LastIndex(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// EmailInDomain reports whether email ends with "@domain", ignoring case.
func EmailInDomain(email, domain string) bool {
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain == "" || email == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+strings.ToLower(domain))
}

// NormalizeEmail lower-cases and trims an address before it is stored or compared.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Slugify turns a title into a lower-case, dash separated url segment.
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}
