// Package uri implements the canonical key format of the concept graph.
//
// Every node in the graph is addressed by a slash-segmented Unicode URI such
// as /concept/en/dog or /relation/IsA. Compound nodes (assertions and
// conjunctions) embed an ordered list of other URIs in their last segment,
// written as a compact, whitespace-free JSON array:
//
//	/assertion/["/relation/IsA","/concept/en/dog","/concept/en/animal"]
//
// # Invariants
//
//   - DecodeList(EncodeList(l)) == l for every list of valid UTF-8 strings
//   - Normalize(Normalize(u)) == Normalize(u)
//   - EncodeList output never contains a literal space, and never escapes
//     non-ASCII characters
//
// Lookups against the backend index use Lucene query syntax, so exact keys
// must go through EscapeForSearch first. Wildcard patterns are passed
// through unescaped; WildcardToGlob and WildcardToRegexp translate them for
// backends that do not speak Lucene natively.
package uri
