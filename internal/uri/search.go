package uri

import (
	"regexp"
	"strings"
)

var luceneUnsafe = regexp.MustCompile(`([-+&|!(){}\[\]^"~*?\\: ])`)

// EscapeForSearch prefixes every character reserved by the Lucene query
// syntax with a backslash. Use it for exact-match index lookups only;
// wildcard patterns are supplied by the caller in native syntax.
func EscapeForSearch(text string) string {
	return luceneUnsafe.ReplaceAllString(text, `\${1}`)
}

// UnescapeSearch reverses EscapeForSearch. Backends that compare keys by
// equality instead of through a Lucene index use it to recover the key.
func UnescapeSearch(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	escaped := false
	for _, r := range text {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// WildcardToGlob translates a Lucene wildcard pattern (* and ?, with
// backslash escapes) into an SQLite GLOB pattern.
func WildcardToGlob(pattern string) string {
	var b strings.Builder
	walkWildcard(pattern, func(r rune, wild bool) {
		switch {
		case wild:
			b.WriteRune(r)
		case r == '*' || r == '?' || r == '[':
			b.WriteByte('[')
			b.WriteRune(r)
			b.WriteByte(']')
		default:
			b.WriteRune(r)
		}
	})
	return b.String()
}

// WildcardToRegexp translates a Lucene wildcard pattern into an anchored
// regular expression, as accepted by Cypher's =~ operator.
func WildcardToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("^")
	walkWildcard(pattern, func(r rune, wild bool) {
		switch {
		case wild && r == '*':
			b.WriteString(".*")
		case wild && r == '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	})
	b.WriteString("$")
	return b.String()
}

// walkWildcard calls fn for every rune of pattern, reporting whether the
// rune is an unescaped wildcard.
func walkWildcard(pattern string, fn func(r rune, wild bool)) {
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			fn(r, false)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*' || r == '?':
			fn(r, true)
		default:
			fn(r, false)
		}
	}
	if escaped {
		fn('\\', false)
	}
}
