package graph

// Ref addresses a node. It is a closed set of three variants:
//
//   - ByID: the store's internal identifier
//   - ByURI: a URI, normalized before use
//   - Node: a node value already in hand
type Ref interface {
	isRef()
}

// ByID refers to a node by store identifier.
type ByID int64

// ByURI refers to a node by URI.
type ByURI string

func (ByID) isRef()  {}
func (ByURI) isRef() {}
func (Node) isRef()  {}

// URIs wraps a list of URI strings as refs.
func URIs(uris ...string) []Ref {
	refs := make([]Ref, len(uris))
	for i, u := range uris {
		refs[i] = ByURI(u)
	}
	return refs
}
