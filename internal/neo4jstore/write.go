package neo4jstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/roach88/conceptgraph/internal/graph"
)

// CreateNode creates a :Node. The uri index is not unique.
func (s *Store) CreateNode(ctx context.Context, n graph.Node) (graph.Node, error) {
	id, err := writeTx(ctx, s, "create node", func(tx neo4j.ManagedTransaction) (int64, error) {
		res, err := tx.Run(ctx, `CREATE (n:Node) SET n = $props RETURN id(n) AS id`,
			map[string]any{"props": nodeProperties(n)})
		if err != nil {
			return 0, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return 0, err
		}
		return recordInt(rec, "id")
	})
	if err != nil {
		return graph.Node{}, err
	}
	n.ID = id
	n.Stored = true
	n.Props = n.Props.Clone()
	return n, nil
}

// CreateEdge creates a relationship named after typ. typ must be one of
// the known edge types since relationship types cannot be parameters.
func (s *Store) CreateEdge(ctx context.Context, typ graph.EdgeType, start, end graph.Node, props graph.Properties) (graph.Edge, error) {
	if !typ.Valid() {
		return graph.Edge{}, graph.NewValidationError("", "unknown edge type "+string(typ))
	}
	if err := graph.CheckEndpoints(typ, start, end); err != nil {
		return graph.Edge{}, err
	}

	id, err := writeTx(ctx, s, "create edge", func(tx neo4j.ManagedTransaction) (int64, error) {
		res, err := tx.Run(ctx, `
			MATCH (s:Node) WHERE id(s) = $start
			MATCH (t:Node) WHERE id(t) = $end
			CREATE (s)-[r:`+"`"+string(typ)+"`"+`]->(t)
			SET r = $props
			RETURN id(r) AS id`,
			map[string]any{
				"start": start.ID,
				"end":   end.ID,
				"props": edgeProperties(start, end, props),
			})
		if err != nil {
			return 0, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return 0, err
		}
		if len(recs) == 0 {
			return 0, graph.NewNotFoundError(graph.NodesKey(start.ID, end.ID))
		}
		return recordInt(recs[0], "id")
	})
	if err != nil {
		return graph.Edge{}, err
	}

	return graph.Edge{
		ID:    id,
		Type:  typ,
		Start: start.Endpoint(),
		End:   end.Endpoint(),
		Props: props.Clone(),
	}, nil
}

// DeleteEdge deletes a relationship by identifier.
func (s *Store) DeleteEdge(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "delete edge", fmt.Sprintf("edge #%d", id), `
		MATCH ()-[r]->() WHERE id(r) = $id
		DELETE r
		RETURN count(*) AS deleted`, id)
}

// DeleteNode deletes a node. Neo4j refuses while relationships remain.
func (s *Store) DeleteNode(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "delete node", fmt.Sprintf("#%d", id), `
		MATCH (n:Node) WHERE id(n) = $id
		DELETE n
		RETURN count(*) AS deleted`, id)
}

func (s *Store) deleteByID(ctx context.Context, op, key, cypher string, id int64) error {
	deleted, err := writeTx(ctx, s, op, func(tx neo4j.ManagedTransaction) (int64, error) {
		res, err := tx.Run(ctx, cypher, map[string]any{"id": id})
		if err != nil {
			return 0, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return 0, err
		}
		return recordInt(rec, "deleted")
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return graph.NewNotFoundError(key)
	}
	return nil
}
