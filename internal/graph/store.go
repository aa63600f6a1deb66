package graph

import (
	"context"
	"fmt"
	"iter"
)

// Store is the capability set a backend must provide. Implementations
// persist nodes and edges but enforce nothing: URI uniqueness, edge typing
// and referential checks are the Graph's job.
//
// Every method may fail with a BACKEND_UNAVAILABLE error. Stores do not
// retry.
type Store interface {
	// CreateNode persists n and returns it with its assigned ID.
	// n.Type and n.URI are stored alongside n.Props.
	CreateNode(ctx context.Context, n Node) (Node, error)

	// CreateEdge persists a typed edge and its derived nodes key.
	CreateEdge(ctx context.Context, typ EdgeType, start, end Node, props Properties) (Edge, error)

	// ExactLookup finds the node whose URI matches key, where key is
	// escaped with uri.EscapeForSearch. found is false when nothing
	// matches; more than one match is an AMBIGUOUS_RESULT error.
	ExactLookup(ctx context.Context, key string) (n Node, found bool, err error)

	// WildcardLookup lazily yields nodes whose URI matches a Lucene
	// wildcard pattern. Iteration stops at the first error.
	WildcardLookup(ctx context.Context, pattern string) iter.Seq2[Node, error]

	// NodeByID fetches a node by identifier, NOT_FOUND if absent.
	NodeByID(ctx context.Context, id int64) (Node, error)

	// EdgesBetween returns the edges whose nodes key is "<startID>-<endID>".
	EdgesBetween(ctx context.Context, startID, endID int64) ([]Edge, error)

	// IncidentEdges returns edges touching a node in the given direction,
	// restricted to types when any are given.
	IncidentEdges(ctx context.Context, nodeID int64, dir Direction, types ...EdgeType) ([]Edge, error)

	DeleteEdge(ctx context.Context, id int64) error
	DeleteNode(ctx context.Context, id int64) error

	Close() error
}

// CheckEndpoints reports a VALIDATION error unless both endpoints came
// from a store. IDs are not inspected: zero is a valid identifier.
func CheckEndpoints(typ EdgeType, start, end Node) error {
	if !start.Stored || !end.Stored {
		return NewValidationError("", fmt.Sprintf("%s edge endpoints must be persisted nodes", typ))
	}
	return nil
}
