package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// groovyString quotes s as a single-quoted Groovy literal, which Groovy
// never interpolates.
func groovyString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// groovyMap renders props as a Groovy map literal with keys in sorted
// order. Strings are written as JSON strings (UTF-8 kept verbatim) with $
// escaped, since double-quoted Groovy strings interpolate.
func groovyMap(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "[:]", nil
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		key, err := groovyValue(k)
		if err != nil {
			return "", err
		}
		val, err := groovyValue(props[k])
		if err != nil {
			return "", fmt.Errorf("property %q: %w", k, err)
		}
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(val)
	}
	b.WriteByte(']')
	return b.String(), nil
}

// groovyValue renders a scalar or list. Numbers and booleans use their
// JSON form, which Groovy reads unchanged.
func groovyValue(v any) (string, error) {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, item := range list {
			s, err := groovyValue(item)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
	if _, ok := v.(map[string]any); ok {
		return "", fmt.Errorf("nested maps are not supported")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	if _, ok := v.(string); ok {
		out = strings.ReplaceAll(out, "$", `\$`)
	}
	return out, nil
}
