package graph

import (
	"context"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/roach88/conceptgraph/internal/logging"
	"github.com/roach88/conceptgraph/internal/uri"
)

// Graph implements Builder against a live Store.
type Graph struct {
	store Store
	log   *log.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger used for create/delete events.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// New wraps store in a Graph.
func New(store Store, opts ...Option) *Graph {
	g := &Graph{store: store, log: logging.Discard()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the underlying store.
func (g *Graph) Store() Store {
	return g.store
}

// Close closes the underlying store.
func (g *Graph) Close() error {
	return g.store.Close()
}

// GetNode looks up a node by URI. found is false when no node has that URI.
//
// u is normalized first, including Unicode NFC, so lookups do not
// distinguish composed from decomposed spellings: "/concept/fr/caf\u00e9"
// and "/concept/fr/cafe\u0301" name the same node.
func (g *Graph) GetNode(ctx context.Context, u string) (Node, bool, error) {
	u = uri.Normalize(u)
	return g.store.ExactLookup(ctx, uri.EscapeForSearch(u))
}

// FindNodes yields every node whose URI matches a Lucene wildcard pattern
// such as /concept/en/*. The pattern is passed through unescaped.
func (g *Graph) FindNodes(ctx context.Context, pattern string) iter.Seq2[Node, error] {
	return g.store.WildcardLookup(ctx, pattern)
}

// NodeByID fetches a node by store identifier.
func (g *Graph) NodeByID(ctx context.Context, id int64) (Node, error) {
	return g.store.NodeByID(ctx, id)
}

// GetEdges returns all edges from start to end.
func (g *Graph) GetEdges(ctx context.Context, start, end Ref) ([]Edge, error) {
	startID, err := g.resolveID(ctx, start)
	if err != nil {
		return nil, err
	}
	endID, err := g.resolveID(ctx, end)
	if err != nil {
		return nil, err
	}
	return g.store.EdgesBetween(ctx, startID, endID)
}

// GetEdge returns the edge of type typ from start to end, if there is one.
func (g *Graph) GetEdge(ctx context.Context, typ EdgeType, start, end Ref) (Edge, bool, error) {
	edges, err := g.GetEdges(ctx, start, end)
	if err != nil {
		return Edge{}, false, err
	}
	for _, e := range edges {
		if e.Type == typ {
			return e, true, nil
		}
	}
	return Edge{}, false, nil
}

// GetOrCreateNode returns the node with URI u, creating it from the URI's
// type when it does not exist. props only apply on creation.
func (g *Graph) GetOrCreateNode(ctx context.Context, u string, props Properties) (Node, error) {
	n, found, err := g.GetNode(ctx, u)
	if err != nil || found {
		return n, err
	}
	return g.createByType(ctx, u, props)
}

// GetOrCreateEdge returns the edge of type typ from start to end, creating
// it with props when missing. Both endpoints must already exist.
func (g *Graph) GetOrCreateEdge(ctx context.Context, typ EdgeType, start, end Ref, props Properties) (Edge, error) {
	if !typ.Valid() {
		return Edge{}, NewValidationError("", "unknown edge type "+string(typ))
	}
	startNode, err := g.resolveNode(ctx, start, false)
	if err != nil {
		return Edge{}, err
	}
	endNode, err := g.resolveNode(ctx, end, false)
	if err != nil {
		return Edge{}, err
	}

	e, found, err := g.GetEdge(ctx, typ, startNode, endNode)
	if err != nil || found {
		return e, err
	}
	return g.createEdge(ctx, typ, startNode, endNode, props)
}

// GetOrCreateConcept returns /concept/<language>/<name>[/<disambiguation>].
func (g *Graph) GetOrCreateConcept(ctx context.Context, language, name, disambiguation string) (Node, error) {
	return g.GetOrCreateNode(ctx, ConceptURI(language, name, disambiguation), nil)
}

// GetOrCreateFrame returns /frame/<language>/<name>.
func (g *Graph) GetOrCreateFrame(ctx context.Context, language, name string) (Node, error) {
	return g.GetOrCreateNode(ctx, FrameURI(language, name), nil)
}

// GetOrCreateRelation returns /relation/<name>.
func (g *Graph) GetOrCreateRelation(ctx context.Context, name string) (Node, error) {
	return g.GetOrCreateNode(ctx, RelationURI(name), nil)
}

// GetOrCreateSource returns the source node for a path such as
// ["contributor", "omcs", "bedume"].
func (g *Graph) GetOrCreateSource(ctx context.Context, segments []string) (Node, error) {
	return g.GetOrCreateNode(ctx, SourceURI(segments), nil)
}

// GetOrCreateWebConcept returns the web concept keyed by url.
func (g *Graph) GetOrCreateWebConcept(ctx context.Context, url string) (Node, error) {
	return g.GetOrCreateNode(ctx, WebConceptURI(url), nil)
}

// GetOrCreateConjunction returns the conjunction of the given nodes. The
// conjuncts need not exist; only their URIs are used.
func (g *Graph) GetOrCreateConjunction(ctx context.Context, conjuncts []Ref) (Node, error) {
	uris := make([]string, len(conjuncts))
	for i, c := range conjuncts {
		u, err := g.resolveURI(ctx, c)
		if err != nil {
			return Node{}, err
		}
		uris[i] = u
	}
	return g.GetOrCreateNode(ctx, ConjunctionURI(uris), nil)
}

func (g *Graph) createByType(ctx context.Context, u string, props Properties) (Node, error) {
	bp, err := Plan(u, props)
	if err != nil {
		return Node{}, err
	}
	if bp.Node.Type != TypeAssertion {
		return g.createNode(ctx, bp.Node)
	}

	rel, err := g.GetOrCreateNode(ctx, bp.Components[0], nil)
	if err != nil {
		return Node{}, err
	}
	args := make([]Node, 0, len(bp.Components)-1)
	for _, argURI := range bp.Components[1:] {
		arg, err := g.GetOrCreateNode(ctx, argURI, nil)
		if err != nil {
			return Node{}, err
		}
		args = append(args, arg)
	}
	return g.createAssertionWithComponents(ctx, bp.Node, rel, args)
}

func (g *Graph) createNode(ctx context.Context, n Node) (Node, error) {
	created, err := g.store.CreateNode(ctx, n)
	if err != nil {
		return Node{}, err
	}
	g.log.Debug("created node", "uri", created.URI, "type", created.Type, "id", created.ID)
	return created, nil
}

func (g *Graph) createEdge(ctx context.Context, typ EdgeType, start, end Node, props Properties) (Edge, error) {
	e, err := g.store.CreateEdge(ctx, typ, start, end, props.Clone())
	if err != nil {
		return Edge{}, err
	}
	g.log.Debug("created edge", "type", typ, "nodes", e.NodesKey())
	return e, nil
}

// resolveID turns a ref into a store identifier without fetching the node
// when the ref already carries one.
func (g *Graph) resolveID(ctx context.Context, r Ref) (int64, error) {
	switch v := r.(type) {
	case ByID:
		return int64(v), nil
	case Node:
		if v.Stored {
			return v.ID, nil
		}
		n, err := g.resolveNode(ctx, ByURI(v.URI), false)
		return n.ID, err
	case ByURI:
		n, err := g.resolveNode(ctx, v, false)
		return n.ID, err
	}
	return 0, NewValidationError("", "nil node reference")
}

// resolveNode turns a ref into a stored node. With create set, a URI that
// does not exist yet is created from its type.
func (g *Graph) resolveNode(ctx context.Context, r Ref, create bool) (Node, error) {
	switch v := r.(type) {
	case ByID:
		return g.store.NodeByID(ctx, int64(v))
	case Node:
		if v.Stored {
			return v, nil
		}
		return g.resolveNode(ctx, ByURI(v.URI), create)
	case ByURI:
		n, found, err := g.GetNode(ctx, string(v))
		if err != nil {
			return Node{}, err
		}
		if found {
			return n, nil
		}
		if !create {
			return Node{}, NewNotFoundError(uri.Normalize(string(v)))
		}
		return g.createByType(ctx, string(v), nil)
	}
	return Node{}, NewValidationError("", "nil node reference")
}

// resolveURI turns a ref into a normalized URI, reading the store only for
// bare identifiers.
func (g *Graph) resolveURI(ctx context.Context, r Ref) (string, error) {
	switch v := r.(type) {
	case ByURI:
		return uri.Normalize(string(v)), nil
	case Node:
		if v.URI != "" {
			return v.URI, nil
		}
		return g.resolveURI(ctx, ByID(v.ID))
	case ByID:
		n, err := g.store.NodeByID(ctx, int64(v))
		if err != nil {
			return "", err
		}
		return n.URI, nil
	}
	return "", NewValidationError("", "nil node reference")
}
