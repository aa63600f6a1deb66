// Package export writes the graph as a Groovy script for offline bulk
// loading.
//
// A Writer implements graph.Builder, so importers can target it in place of
// a live graph. Each creation becomes one statement after a fixed preamble
// and a "// run <id>" header:
//
//	makeNode('/concept/en/dog', ["language": "en", "name": "dog", ...])
//	makeEdge('arg', '/assertion/[...]', '/concept/en/dog', ["position": 1])
//
// Deduplication is approximate. Only a small window of recently emitted
// nodes is remembered, so a node referenced again after falling out of the
// window is emitted twice. Loaders resolve edges against the latest vertex
// for a URI.
package export
