// Package store provides the SQLite-backed Store for the concept graph.
//
// The schema is two tables:
//   - nodes: id, uri, type, props (JSON)
//   - edges: id, type, start_id, end_id, nodes ("<start>-<end>"), props (JSON)
//
// The uri index is deliberately NOT unique. The graph layer is responsible
// for deduplication through get-or-create, exactly as it is on backends that
// offer no unique constraints; a duplicate key shows up as an
// AMBIGUOUS_RESULT error from ExactLookup instead of being masked here.
//
// Foreign keys are enforced, so a node must be detached from its edges
// before it can be deleted.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// # Lookups
//
// Exact lookups receive Lucene-escaped keys and compare the unescaped URI
// by equality. Wildcard lookups translate Lucene * and ? into GLOB and are
// paged by id so that a caller may issue other queries while iterating.
package store
