package neo4jstore

import (
	"context"
	"fmt"
	"iter"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/uri"
)

// wildcardPageSize bounds how many nodes one wildcard query returns.
const wildcardPageSize = 256

// ExactLookup matches the unescaped key against the indexed uri property.
func (s *Store) ExactLookup(ctx context.Context, key string) (graph.Node, bool, error) {
	nodes, err := readTx(ctx, s, "exact lookup", func(tx neo4j.ManagedTransaction) ([]graph.Node, error) {
		return collectNodes(ctx, tx, `
			MATCH (n:Node) WHERE n.uri = $uri
			RETURN `+nodeReturn+`
			ORDER BY id ASC`,
			map[string]any{"uri": uri.UnescapeSearch(key)})
	})
	if err != nil {
		return graph.Node{}, false, err
	}

	switch len(nodes) {
	case 0:
		return graph.Node{}, false, nil
	case 1:
		return nodes[0], true, nil
	default:
		return graph.Node{}, false, graph.NewAmbiguousError(key, len(nodes))
	}
}

// WildcardLookup yields nodes whose uri matches the pattern, translated to
// a Cypher regular expression, in id order and one page per transaction.
func (s *Store) WildcardLookup(ctx context.Context, pattern string) iter.Seq2[graph.Node, error] {
	re := uri.WildcardToRegexp(pattern)
	return func(yield func(graph.Node, error) bool) {
		after := int64(-1)
		for {
			page, err := readTx(ctx, s, "wildcard lookup", func(tx neo4j.ManagedTransaction) ([]graph.Node, error) {
				return collectNodes(ctx, tx, `
					MATCH (n:Node) WHERE n.uri =~ $re AND id(n) > $after
					RETURN `+nodeReturn+`
					ORDER BY id ASC
					LIMIT $limit`,
					map[string]any{"re": re, "after": after, "limit": wildcardPageSize})
			})
			if err != nil {
				yield(graph.Node{}, err)
				return
			}
			for _, n := range page {
				if !yield(n, nil) {
					return
				}
			}
			if len(page) < wildcardPageSize {
				return
			}
			after = page[len(page)-1].ID
		}
	}
}

// NodeByID fetches a node by its Neo4j identifier.
func (s *Store) NodeByID(ctx context.Context, id int64) (graph.Node, error) {
	nodes, err := readTx(ctx, s, "node by id", func(tx neo4j.ManagedTransaction) ([]graph.Node, error) {
		return collectNodes(ctx, tx, `
			MATCH (n:Node) WHERE id(n) = $id
			RETURN `+nodeReturn,
			map[string]any{"id": id})
	})
	if err != nil {
		return graph.Node{}, err
	}
	if len(nodes) == 0 {
		return graph.Node{}, graph.NewNotFoundError(fmt.Sprintf("#%d", id))
	}
	return nodes[0], nil
}

// EdgesBetween returns relationships whose nodes key matches the pair.
func (s *Store) EdgesBetween(ctx context.Context, startID, endID int64) ([]graph.Edge, error) {
	return readTx(ctx, s, "edges between", func(tx neo4j.ManagedTransaction) ([]graph.Edge, error) {
		return collectEdges(ctx, tx, `
			MATCH (s:Node)-[r]->(t:Node) WHERE r.nodes = $key
			RETURN `+edgeReturn+`
			ORDER BY id ASC`,
			map[string]any{"key": graph.NodesKey(startID, endID)})
	})
}

// IncidentEdges returns relationships touching a node in direction dir.
func (s *Store) IncidentEdges(ctx context.Context, nodeID int64, dir graph.Direction, types ...graph.EdgeType) ([]graph.Edge, error) {
	var match string
	switch dir {
	case graph.Outgoing:
		match = `id(s) = $id`
	case graph.Incoming:
		match = `id(t) = $id`
	default:
		match = `(id(s) = $id OR id(t) = $id)`
	}
	names := make([]any, len(types))
	for i, t := range types {
		names[i] = string(t)
	}

	return readTx(ctx, s, "incident edges", func(tx neo4j.ManagedTransaction) ([]graph.Edge, error) {
		return collectEdges(ctx, tx, `
			MATCH (s:Node)-[r]->(t:Node)
			WHERE `+match+` AND (size($types) = 0 OR type(r) IN $types)
			RETURN `+edgeReturn+`
			ORDER BY id ASC`,
			map[string]any{"id": nodeID, "types": names})
	})
}

func collectNodes(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]graph.Node, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	recs, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	nodes := make([]graph.Node, 0, len(recs))
	for _, rec := range recs {
		n, err := nodeFromRecord(rec)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func collectEdges(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]graph.Edge, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	recs, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	edges := make([]graph.Edge, 0, len(recs))
	for _, rec := range recs {
		e, err := edgeFromRecord(rec)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, nil
}
