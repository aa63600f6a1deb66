package uri

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeForSearch(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/concept/en/dog", "/concept/en/dog"},
		{"a-b+c", `a\-b\+c`},
		{"x&&y||z!", `x\&\&y\|\|z\!`},
		{"(a){b}[c]", `\(a\)\{b\}\[c\]`},
		{`^"~*?:`, `\^\"\~\*\?\:`},
		{`back\slash`, `back\\slash`},
		{"has space", `has\ space`},
		{`/assertion/["/relation/IsA","/concept/en/dog"]`, `/assertion/\[\"/relation/IsA\",\"/concept/en/dog\"\]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeForSearch(tt.in), "EscapeForSearch(%q)", tt.in)
	}
}

func TestUnescapeSearch_InvertsEscape(t *testing.T) {
	inputs := []string{
		"/concept/en/dog",
		`/assertion/["/relation/IsA","/concept/en/dog","/concept/en/animal"]`,
		`weird\key with: every-thing+ (all) {of} [it] ^"~*?`,
		"web_concept/http://dbpedia.org/page/Berlin",
	}
	for _, in := range inputs {
		assert.Equal(t, in, UnescapeSearch(EscapeForSearch(in)))
	}
}

func TestWildcardToGlob(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/concept/en/*", "/concept/en/*"},
		{"/concept/??/dog", "/concept/??/dog"},
		{`/concept/en/a\*b`, "/concept/en/a[*]b"},
		{`/assertion/\[*`, "/assertion/[[]*"},
		{"/concept/en/[x]", "/concept/en/[[]x]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WildcardToGlob(tt.in), "WildcardToGlob(%q)", tt.in)
	}
}

func TestWildcardToRegexp(t *testing.T) {
	re := regexp.MustCompile(WildcardToRegexp("/concept/en/d?g*"))
	assert.True(t, re.MatchString("/concept/en/dog"))
	assert.True(t, re.MatchString("/concept/en/dig/toy"))
	assert.False(t, re.MatchString("/concept/fr/dog"))
	assert.False(t, re.MatchString("x/concept/en/dog"))

	literal := regexp.MustCompile(WildcardToRegexp(`/assertion/\[*`))
	assert.True(t, literal.MatchString(`/assertion/["/relation/IsA"]`))
	assert.False(t, literal.MatchString("/assertion/x"))
}
