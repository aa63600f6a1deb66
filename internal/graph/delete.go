package graph

import (
	"context"
)

// DeleteNode removes a node and every edge touching it, refusing when the
// node is still in use.
//
// A node with an incoming edge from an assertion (as that assertion's
// relation, argument, or anything else) is never deleted. Sources and
// conjunctions skip that check. Deleting a source also deletes every
// conjunction it points to, along with the conjunctions' edges.
func (g *Graph) DeleteNode(ctx context.Context, r Ref) error {
	node, err := g.resolveNode(ctx, r, false)
	if err != nil {
		return err
	}

	var dependents []int64
	switch node.Type {
	case TypeSource:
		out, err := g.store.IncidentEdges(ctx, node.ID, Outgoing)
		if err != nil {
			return err
		}
		seen := make(map[int64]bool)
		for _, e := range out {
			if e.End.Type == TypeConjunction && !seen[e.End.ID] {
				seen[e.End.ID] = true
				dependents = append(dependents, e.End.ID)
			}
		}
	case TypeConjunction:
	default:
		in, err := g.store.IncidentEdges(ctx, node.ID, Incoming)
		if err != nil {
			return err
		}
		for _, e := range in {
			if e.Start.Type == TypeAssertion {
				g.log.Debug("refusing delete", "uri", node.URI, "assertion", e.Start.URI, "edge", e.Type)
				return NewIntegrityError(node.URI, "node is referenced by an assertion")
			}
		}
	}

	if err := g.detach(ctx, node.ID); err != nil {
		return err
	}
	for _, id := range dependents {
		if err := g.detach(ctx, id); err != nil {
			return err
		}
		if err := g.store.DeleteNode(ctx, id); err != nil {
			return err
		}
		g.log.Info("deleted dependent conjunction", "id", id, "source", node.URI)
	}
	if err := g.store.DeleteNode(ctx, node.ID); err != nil {
		return err
	}
	g.log.Info("deleted node", "uri", node.URI, "type", node.Type)
	return nil
}

// detach deletes every edge incident to a node.
func (g *Graph) detach(ctx context.Context, id int64) error {
	edges, err := g.store.IncidentEdges(ctx, id, Both)
	if err != nil {
		return err
	}
	deleted := make(map[int64]bool, len(edges))
	for _, e := range edges {
		if deleted[e.ID] {
			continue
		}
		if err := g.store.DeleteEdge(ctx, e.ID); err != nil {
			return err
		}
		deleted[e.ID] = true
	}
	return nil
}
