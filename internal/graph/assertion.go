package graph

import (
	"context"
	"fmt"
	"slices"
)

// GetOrCreateAssertion returns the assertion of relation over args,
// creating it together with its relation edge and one arg edge per
// argument (positions 1..N) when it does not exist yet.
//
// The assertion's identity is its URI, derived from the relation and
// argument URIs, so repeated calls with the same components return the same
// node. The relation and arguments are created on demand. props only apply
// on creation.
func (g *Graph) GetOrCreateAssertion(ctx context.Context, relation Ref, args []Ref, props Properties) (Node, error) {
	relURI, err := g.resolveURI(ctx, relation)
	if err != nil {
		return Node{}, err
	}
	argURIs := make([]string, len(args))
	for i, a := range args {
		if argURIs[i], err = g.resolveURI(ctx, a); err != nil {
			return Node{}, err
		}
	}

	u := AssertionURI(relURI, argURIs)
	if n, found, err := g.GetNode(ctx, u); err != nil || found {
		return n, err
	}

	node, err := newAssertionNode(u, props)
	if err != nil {
		return Node{}, err
	}
	rel, err := g.resolveNode(ctx, relation, true)
	if err != nil {
		return Node{}, err
	}
	argNodes := make([]Node, len(args))
	for i, a := range args {
		if argNodes[i], err = g.resolveNode(ctx, a, true); err != nil {
			return Node{}, err
		}
	}
	return g.createAssertionWithComponents(ctx, node, rel, argNodes)
}

func (g *Graph) createAssertionWithComponents(ctx context.Context, n Node, rel Node, args []Node) (Node, error) {
	assertion, err := g.createNode(ctx, n)
	if err != nil {
		return Node{}, err
	}
	if _, err := g.createEdge(ctx, EdgeRelation, assertion, rel, nil); err != nil {
		return Node{}, err
	}
	for i, arg := range args {
		if _, err := g.createEdge(ctx, EdgeArg, assertion, arg, Properties{PropPosition: i + 1}); err != nil {
			return Node{}, err
		}
	}
	return assertion, nil
}

// GetArgs returns an assertion's arguments ordered by position.
func (g *Graph) GetArgs(ctx context.Context, assertion Ref) ([]Node, error) {
	node, err := g.resolveNode(ctx, assertion, false)
	if err != nil {
		return nil, err
	}
	return g.args(ctx, node)
}

// GetRelAndArgs returns an assertion's relation followed by its arguments.
func (g *Graph) GetRelAndArgs(ctx context.Context, assertion Ref) ([]Node, error) {
	node, err := g.resolveNode(ctx, assertion, false)
	if err != nil {
		return nil, err
	}
	relEdges, err := g.store.IncidentEdges(ctx, node.ID, Outgoing, EdgeRelation)
	if err != nil {
		return nil, err
	}
	if len(relEdges) == 0 {
		return nil, NewValidationError(node.URI, "node has no relation edge")
	}
	rel, err := g.store.NodeByID(ctx, relEdges[0].End.ID)
	if err != nil {
		return nil, err
	}
	args, err := g.args(ctx, node)
	if err != nil {
		return nil, err
	}
	return append([]Node{rel}, args...), nil
}

func (g *Graph) args(ctx context.Context, assertion Node) ([]Node, error) {
	edges, err := g.store.IncidentEdges(ctx, assertion.ID, Outgoing, EdgeArg)
	if err != nil {
		return nil, err
	}

	type positioned struct {
		pos int
		id  int64
	}
	ordered := make([]positioned, 0, len(edges))
	for _, e := range edges {
		pos, ok := e.Position()
		if !ok {
			return nil, NewValidationError(assertion.URI, fmt.Sprintf("arg edge %d has no position", e.ID))
		}
		ordered = append(ordered, positioned{pos: pos, id: e.End.ID})
	}
	slices.SortStableFunc(ordered, func(a, b positioned) int { return a.pos - b.pos })

	nodes := make([]Node, len(ordered))
	for i, p := range ordered {
		if nodes[i], err = g.store.NodeByID(ctx, p.id); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// Justify records that source supports (weight > 0) or refutes (weight < 0)
// target. Weights are conventionally in [-1, 1]; the value is stored as
// given. An existing justifies edge is returned unchanged.
func (g *Graph) Justify(ctx context.Context, source, target Ref, weight float64) (Edge, error) {
	return g.GetOrCreateEdge(ctx, EdgeJustifies, source, target, Properties{PropWeight: weight})
}

// DeriveNormalized records that target is a normalized form of source.
//
// It links the two assertions with a normalized edge, justifies target by
// source with weight, then pairs up their relations and arguments and links
// every pair that differs with its own normalized edge. When the two
// assertions have different arity, pairing stops at the shorter one.
//
// weight must be positive.
func (g *Graph) DeriveNormalized(ctx context.Context, source, target Ref, weight float64) (Edge, error) {
	if !(weight > 0) {
		return Edge{}, NewValidationError("", fmt.Sprintf("normalization weight must be positive, got %v", weight))
	}

	edge, err := g.GetOrCreateEdge(ctx, EdgeNormalized, source, target, nil)
	if err != nil {
		return Edge{}, err
	}
	if _, err := g.Justify(ctx, source, target, weight); err != nil {
		return Edge{}, err
	}

	from, err := g.GetRelAndArgs(ctx, source)
	if err != nil {
		return Edge{}, err
	}
	to, err := g.GetRelAndArgs(ctx, target)
	if err != nil {
		return Edge{}, err
	}
	if len(from) != len(to) {
		g.log.Warn("normalizing assertions of different arity",
			"source", edge.Start.URI, "target", edge.End.URI,
			"source_len", len(from), "target_len", len(to))
	}

	for i := range min(len(from), len(to)) {
		if from[i].ID == to[i].ID {
			continue
		}
		if _, err := g.GetOrCreateEdge(ctx, EdgeNormalized, from[i], to[i], nil); err != nil {
			return Edge{}, err
		}
	}
	return edge, nil
}
