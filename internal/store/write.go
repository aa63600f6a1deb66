package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/conceptgraph/internal/graph"
)

// CreateNode inserts a node row and returns the node with its new ID.
// No uniqueness check is made on the URI.
func (s *Store) CreateNode(ctx context.Context, n graph.Node) (graph.Node, error) {
	propsJSON, err := marshalProps(n.Props)
	if err != nil {
		return graph.Node{}, graph.NewBackendError("create node", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (uri, type, props) VALUES (?, ?, ?)
	`, n.URI, string(n.Type), propsJSON)
	if err != nil {
		return graph.Node{}, graph.NewBackendError("create node", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return graph.Node{}, graph.NewBackendError("create node", err)
	}

	n.ID = id
	n.Stored = true
	n.Props = n.Props.Clone()
	return n, nil
}

// CreateEdge inserts an edge row between two persisted nodes.
// The nodes key is derived from the endpoint IDs.
func (s *Store) CreateEdge(ctx context.Context, typ graph.EdgeType, start, end graph.Node, props graph.Properties) (graph.Edge, error) {
	if err := graph.CheckEndpoints(typ, start, end); err != nil {
		return graph.Edge{}, err
	}
	propsJSON, err := marshalProps(props)
	if err != nil {
		return graph.Edge{}, graph.NewBackendError("create edge", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (type, start_id, end_id, nodes, props) VALUES (?, ?, ?, ?, ?)
	`, string(typ), start.ID, end.ID, graph.NodesKey(start.ID, end.ID), propsJSON)
	if err != nil {
		return graph.Edge{}, graph.NewBackendError("create edge", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return graph.Edge{}, graph.NewBackendError("create edge", err)
	}

	return graph.Edge{
		ID:    id,
		Type:  typ,
		Start: start.Endpoint(),
		End:   end.Endpoint(),
		Props: props.Clone(),
	}, nil
}

// DeleteEdge removes an edge. Deleting a missing edge is NOT_FOUND.
func (s *Store) DeleteEdge(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM edges WHERE id = ?`, id)
	return checkDeleted(res, err, "delete edge", fmt.Sprintf("edge #%d", id))
}

// DeleteNode removes a node. The node must have no edges left; the
// foreign key check turns a violation into a backend error.
func (s *Store) DeleteNode(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	return checkDeleted(res, err, "delete node", fmt.Sprintf("#%d", id))
}

func checkDeleted(res sql.Result, err error, op, key string) error {
	if err != nil {
		return graph.NewBackendError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return graph.NewBackendError(op, err)
	}
	if n == 0 {
		return graph.NewNotFoundError(key)
	}
	return nil
}
