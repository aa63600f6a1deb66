package graph

import "context"

// Builder is the write-side contract shared by the live Graph and the bulk
// export writer. Importers depend on Builder (or a subset of it) so they
// can target either.
type Builder interface {
	GetNode(ctx context.Context, uri string) (Node, bool, error)
	GetOrCreateNode(ctx context.Context, uri string, props Properties) (Node, error)
	GetOrCreateEdge(ctx context.Context, typ EdgeType, start, end Ref, props Properties) (Edge, error)

	GetOrCreateConcept(ctx context.Context, language, name, disambiguation string) (Node, error)
	GetOrCreateFrame(ctx context.Context, language, name string) (Node, error)
	GetOrCreateRelation(ctx context.Context, name string) (Node, error)
	GetOrCreateSource(ctx context.Context, segments []string) (Node, error)
	GetOrCreateWebConcept(ctx context.Context, url string) (Node, error)
	GetOrCreateConjunction(ctx context.Context, conjuncts []Ref) (Node, error)
	GetOrCreateAssertion(ctx context.Context, relation Ref, args []Ref, props Properties) (Node, error)

	GetArgs(ctx context.Context, assertion Ref) ([]Node, error)
	GetRelAndArgs(ctx context.Context, assertion Ref) ([]Node, error)

	Justify(ctx context.Context, source, target Ref, weight float64) (Edge, error)
	DeriveNormalized(ctx context.Context, source, target Ref, weight float64) (Edge, error)

	Close() error
}

var _ Builder = (*Graph)(nil)
