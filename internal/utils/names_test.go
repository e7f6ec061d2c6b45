package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitDisplayName(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		email       string
		wantFirst   string
		wantLast    string
	}{
		{"two tokens", "Jane Doe", "jane@boffin.lk", "Jane", "Doe"},
		{"three tokens", "Ana Maria Silva", "ana@boffin.lk", "Ana", "Maria Silva"},
		{"single token", "Madonna", "m@boffin.lk", "Madonna", ""},
		{"extra whitespace", "  Jane \t  van   Doe ", "jane@boffin.lk", "Jane", "van Doe"},
		{"empty name uses email", "", "jane.doe@boffin.lk", "jane.doe", ""},
		{"whitespace only uses email", "   ", "x@boffin.lk", "x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitDisplayName(tt.displayName, tt.email)
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
		})
	}
}

func TestEmailInDomain(t *testing.T) {
	tests := []struct {
		email  string
		domain string
		want   bool
	}{
		{"admin@boffin.lk", "boffin.lk", true},
		{"Admin@BOFFIN.LK", "boffin.lk", true},
		{"admin@boffin.lk", "@boffin.lk", true},
		{"admin@gmail.com", "boffin.lk", false},
		{"admin@notboffin.lk", "boffin.lk", false},
		{"admin@boffin.lk.evil.com", "boffin.lk", false},
		{"admin@it.boffin.lk", "boffin.lk", false},
		{"", "boffin.lk", false},
		{"admin@boffin.lk", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.email+"/"+tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, EmailInDomain(tt.email, tt.domain))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "intro-to-go", Slugify("Intro to Go"))
	assert.Equal(t, "c-programming-101", Slugify("  C++ Programming: 101! "))
	assert.Equal(t, "", Slugify("!!!"))
}
