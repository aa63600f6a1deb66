package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/conceptgraph/internal/uri"
)

// webConceptPrefix marks web concepts, whose URI is the source URL and so
// does not follow the /<type>/<rest> layout.
const webConceptPrefix = "web_concept/"

// Blueprint is the result of planning a node: the node to create and, for
// assertions, the URIs of the relation and arguments it must be wired to.
type Blueprint struct {
	Node Node

	// Components is [relationURI, arg1URI, ...] for assertions, nil
	// otherwise.
	Components []string
}

type builder func(u, rest string, props Properties) (Blueprint, error)

// builders maps a URI's type segment to the constructor of that node type.
// Web concepts are reached by prefix and are not listed.
var builders = map[NodeType]builder{
	TypeConcept:     buildConcept,
	TypeFrame:       buildFrame,
	TypeRelation:    buildRelation,
	TypeSource:      buildSource,
	TypeAssertion:   buildAssertion,
	TypeConjunction: buildConjunction,
}

// Plan normalizes u and works out the node it denotes: its type, the
// type-specific attributes parsed from the URI, and the caller's extra
// properties. Plan does not touch any store.
func Plan(u string, props Properties) (Blueprint, error) {
	u = uri.Normalize(u)
	if err := checkReserved(u, props); err != nil {
		return Blueprint{}, err
	}

	if rest, ok := strings.CutPrefix(u, webConceptPrefix); ok {
		return buildWebConcept(u, rest, props.Clone())
	}

	if strings.Count(u, "/") < 2 {
		return Blueprint{}, NewValidationError(u, "URI too short")
	}
	parts := strings.SplitN(u, "/", 3)
	if parts[0] != "" {
		return Blueprint{}, NewValidationError(u, "URI must start with /")
	}

	build, ok := builders[NodeType(parts[1])]
	if !ok {
		return Blueprint{}, NewValidationError(u, fmt.Sprintf("unknown node type %q", parts[1]))
	}
	return build(u, parts[2], props.Clone())
}

func checkReserved(u string, props Properties) error {
	for _, key := range []string{PropType, PropURI} {
		if _, ok := props[key]; ok {
			return NewValidationError(u, fmt.Sprintf("property %q is reserved", key))
		}
	}
	return nil
}

func blueprint(typ NodeType, u string, props Properties) Blueprint {
	return Blueprint{Node: Node{Type: typ, URI: u, Props: props}}
}

func buildConcept(u, rest string, props Properties) (Blueprint, error) {
	segs := strings.Split(rest, "/")
	if len(segs) < 2 || len(segs) > 3 || slices.Contains(segs, "") {
		return Blueprint{}, NewValidationError(u, "concept URI must be /concept/<lang>/<name>[/<disambiguation>]")
	}
	props[PropLanguage] = segs[0]
	props[PropName] = segs[1]
	if len(segs) == 3 {
		props[PropDisambig] = segs[2]
	}
	props[PropScore] = 0
	return blueprint(TypeConcept, u, props), nil
}

func buildFrame(u, rest string, props Properties) (Blueprint, error) {
	segs := strings.Split(rest, "/")
	if len(segs) != 2 || slices.Contains(segs, "") {
		return Blueprint{}, NewValidationError(u, "frame URI must be /frame/<lang>/<name>")
	}
	props[PropLanguage] = segs[0]
	props[PropName] = segs[1]
	props[PropScore] = 0
	return blueprint(TypeFrame, u, props), nil
}

func buildRelation(u, rest string, props Properties) (Blueprint, error) {
	if rest == "" {
		return Blueprint{}, NewValidationError(u, "relation name is empty")
	}
	props[PropName] = rest
	return blueprint(TypeRelation, u, props), nil
}

func buildSource(u, rest string, props Properties) (Blueprint, error) {
	name := rest[strings.LastIndex(rest, "/")+1:]
	if name == "" {
		return Blueprint{}, NewValidationError(u, "source name is empty")
	}
	props[PropName] = name
	return blueprint(TypeSource, u, props), nil
}

func buildAssertion(u, rest string, props Properties) (Blueprint, error) {
	parts, err := uri.DecodeList(rest)
	if err != nil {
		return Blueprint{}, newMalformedURIError(u, err)
	}
	if len(parts) == 0 {
		return Blueprint{}, NewValidationError(u, "assertion has no relation")
	}
	props[PropScore] = 0
	bp := blueprint(TypeAssertion, u, props)
	bp.Components = parts
	return bp, nil
}

func buildConjunction(u, rest string, props Properties) (Blueprint, error) {
	if _, err := uri.DecodeList(rest); err != nil {
		return Blueprint{}, newMalformedURIError(u, err)
	}
	return blueprint(TypeConjunction, u, props), nil
}

func buildWebConcept(u, rest string, props Properties) (Blueprint, error) {
	if rest == "" {
		return Blueprint{}, NewValidationError(u, "web concept URL is empty")
	}
	return blueprint(TypeWebConcept, u, props), nil
}

// newAssertionNode builds the node half of an assertion whose URI has
// already been derived from its components.
func newAssertionNode(u string, props Properties) (Node, error) {
	if err := checkReserved(u, props); err != nil {
		return Node{}, err
	}
	p := props.Clone()
	p[PropScore] = 0
	return Node{Type: TypeAssertion, URI: u, Props: p}, nil
}

// ConceptURI builds /concept/<lang>/<name>[/<disambiguation>]. Slashes in
// name are replaced so they cannot be mistaken for a disambiguation.
func ConceptURI(language, name, disambiguation string) string {
	u := "/concept/" + language + "/" + strings.ReplaceAll(name, "/", "_")
	if disambiguation != "" {
		u += "/" + disambiguation
	}
	return uri.Normalize(u)
}

// FrameURI builds /frame/<lang>/<name>.
func FrameURI(language, name string) string {
	return uri.Normalize("/frame/" + language + "/" + strings.ReplaceAll(name, "/", "_"))
}

// RelationURI builds /relation/<name>.
func RelationURI(name string) string {
	return uri.Normalize("/relation/" + name)
}

// SourceURI builds /source/<seg>/.../<seg>.
func SourceURI(segments []string) string {
	return uri.Normalize("/source/" + strings.Join(segments, "/"))
}

// WebConceptURI builds web_concept/<url>.
func WebConceptURI(url string) string {
	return uri.Normalize(webConceptPrefix + url)
}

// AssertionURI derives an assertion's URI from its relation and ordered
// argument URIs. Inputs must already be normalized.
func AssertionURI(relation string, args []string) string {
	return uri.ListURI(string(TypeAssertion), append([]string{relation}, args...))
}

// ConjunctionURI derives a conjunction's URI from its conjuncts. The URIs
// are sorted, so conjunct order does not affect identity.
func ConjunctionURI(conjuncts []string) string {
	sorted := slices.Clone(conjuncts)
	slices.Sort(sorted)
	return uri.ListURI(string(TypeConjunction), sorted)
}

// ComponentsOf decodes the relation and argument URIs of an assertion URI
// without consulting a store.
func ComponentsOf(assertionURI string) ([]string, error) {
	u := uri.Normalize(assertionURI)
	rest, ok := strings.CutPrefix(u, "/"+string(TypeAssertion)+"/")
	if !ok {
		return nil, NewValidationError(u, "not an assertion URI")
	}
	parts, err := uri.DecodeList(rest)
	if err != nil {
		return nil, newMalformedURIError(u, err)
	}
	if len(parts) == 0 {
		return nil, NewValidationError(u, "assertion has no relation")
	}
	return parts, nil
}
