package harvest

import (
	"errors"
	"io"

	"golang.org/x/net/html"
)

// ExtractTypes returns the link targets of the list that follows the
// rdf:type property anchor on a DBpedia page, in document order. A page
// without the anchor yields no types.
func ExtractTypes(r io.Reader) ([]string, error) {
	z := html.NewTokenizer(r)

	var (
		types    []string
		seenType bool
		depth    int // <ul> nesting inside the type list
	)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return types, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch {
			case !seenType:
				if tok.Data == "a" && isTypeAnchor(tok) {
					seenType = true
				}
			case tok.Data == "ul":
				depth++
			case depth > 0 && tok.Data == "a":
				if href, ok := attr(tok, "href"); ok && href != "" {
					types = append(types, href)
				}
			}

		case html.EndTagToken:
			if depth == 0 {
				continue
			}
			if tok := z.Token(); tok.Data == "ul" {
				depth--
				if depth == 0 {
					return types, nil
				}
			}
		}
	}
}

func isTypeAnchor(tok html.Token) bool {
	href, _ := attr(tok, "href")
	class, _ := attr(tok, "class")
	return href == rdfTypeURI && class == "uri"
}

func attr(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
