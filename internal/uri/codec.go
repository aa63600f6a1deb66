package uri

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MalformedError reports a list segment that is not a JSON array of strings.
type MalformedError struct {
	Input string
	Err   error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed uri list %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("malformed uri list %q", e.Input)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Normalize produces the canonical form of a URI: NFC-normalized, trimmed of
// surrounding whitespace, with internal spaces replaced by underscores.
//
// URL-quoting is not applied here; transports take care of that.
func Normalize(u string) string {
	u = norm.NFC.String(u)
	u = strings.TrimSpace(u)
	return strings.ReplaceAll(u, " ", "_")
}

// EncodeList serializes an ordered list of strings as a compact JSON array.
//
// HTML characters and non-ASCII text are written verbatim. Spaces inside an
// element are written as the \u0020 escape so that the result contains no
// whitespace and still decodes to the exact input.
func EncodeList(items []string) string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(encodeString(item))
	}
	buf.WriteByte(']')
	return buf.String()
}

// DecodeList is the inverse of EncodeList. It accepts any JSON array of
// strings, with or without whitespace.
func DecodeList(s string) ([]string, error) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, &MalformedError{Input: s}
	}
	var items []string
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, &MalformedError{Input: s, Err: err}
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

// ListURI builds a list-addressed URI of the given kind, e.g.
// ListURI("conjunction", uris) -> /conjunction/[...].
func ListURI(kind string, items []string) string {
	return "/" + kind + "/" + EncodeList(items)
}

// encodeString writes one JSON string with HTML escaping disabled.
func encodeString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)

	out := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	out = unescapeLineSeparators(out)
	return bytes.ReplaceAll(out, []byte{' '}, []byte(`\u0020`))
}

// unescapeLineSeparators undoes encoding/json's \u2028 and \u2029 escapes so
// that these characters are kept verbatim like every other non-ASCII rune.
// Escape sequences are walked pairwise, so an escaped backslash followed by
// the text "u2028" is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}
