// Package graph is the URI-addressed semantic graph layer.
//
// The graph stores assertions (a relation applied to an ordered list of
// arguments), their provenance, and derived equivalences. Every node is keyed
// by a canonical URI (see package uri); the backing Store offers no schema,
// uniqueness or referential integrity, so all of that lives here.
//
// # Node types
//
//	/concept/<lang>/<name>[/<disambiguation>]
//	/relation/<name>
//	/frame/<lang>/<name>
//	/source/<segment>/.../<segment>
//	/assertion/[relationURI,arg1URI,...]
//	/conjunction/[sorted conjunct URIs]
//	web_concept/<url>
//
// # Edge types
//
//   - relation: assertion -> its relation
//   - arg: assertion -> argument, with a 1-based "position"
//   - justifies: source or assertion -> assertion, with a "weight" in [-1, 1]
//   - normalized: node -> node, structural equivalence
//
// # Consistency
//
// Nodes and edges are only created through get-or-create operations, which
// look the key up before writing. A Graph is not safe for concurrent use,
// and two processes racing on the same missing URI can both create it: the
// lookup and the write are separate backend round trips and no backend in
// use enforces URI uniqueness. Callers that need strict deduplication must
// serialize their writers. A duplicate surfaces later as an
// AMBIGUOUS_RESULT error from GetNode.
//
// Deletion goes through DeleteNode, which refuses to remove anything still
// referenced by an assertion.
package graph
