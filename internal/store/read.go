package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/uri"
)

// wildcardPageSize bounds how many rows one wildcard query holds open.
const wildcardPageSize = 256

const edgeColumns = `
	e.id, e.type, e.props,
	s.id, s.type, s.uri,
	t.id, t.type, t.uri
	FROM edges e
	JOIN nodes s ON s.id = e.start_id
	JOIN nodes t ON t.id = e.end_id`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ExactLookup finds the node whose URI equals the unescaped key.
func (s *Store) ExactLookup(ctx context.Context, key string) (graph.Node, bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uri, type, props FROM nodes
		WHERE uri = ?
		ORDER BY id ASC
	`, uri.UnescapeSearch(key))
	if err != nil {
		return graph.Node{}, false, graph.NewBackendError("exact lookup", err)
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return graph.Node{}, false, graph.NewBackendError("exact lookup", err)
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

// WildcardLookup yields nodes whose URI matches a Lucene wildcard pattern
// in id order. Rows are fetched a page at a time; no connection is held
// between pages.
func (s *Store) WildcardLookup(ctx context.Context, pattern string) iter.Seq2[graph.Node, error] {
	glob := uri.WildcardToGlob(pattern)
	return func(yield func(graph.Node, error) bool) {
		var after int64
		for {
			page, err := s.wildcardPage(ctx, glob, after)
			if err != nil {
				yield(graph.Node{}, graph.NewBackendError("wildcard lookup", err))
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

func (s *Store) wildcardPage(ctx context.Context, glob string, after int64) ([]graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uri, type, props FROM nodes
		WHERE uri GLOB ? AND id > ?
		ORDER BY id ASC
		LIMIT ?
	`, glob, after, wildcardPageSize)
	if err != nil {
		return nil, err
	}
	return collectNodes(rows)
}

// NodeByID fetches a node by ID.
func (s *Store) NodeByID(ctx context.Context, id int64) (graph.Node, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, uri, type, props FROM nodes WHERE id = ?
	`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return graph.Node{}, graph.NewNotFoundError(fmt.Sprintf("#%d", id))
	}
	if err != nil {
		return graph.Node{}, graph.NewBackendError("node by id", err)
	}
	return n, nil
}

// EdgesBetween returns edges from startID to endID, oldest first.
func (s *Store) EdgesBetween(ctx context.Context, startID, endID int64) ([]graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+edgeColumns+`
		WHERE e.nodes = ?
		ORDER BY e.id ASC
	`, graph.NodesKey(startID, endID))
	if err != nil {
		return nil, graph.NewBackendError("edges between", err)
	}
	edges, err := collectEdges(rows)
	if err != nil {
		return nil, graph.NewBackendError("edges between", err)
	}
	return edges, nil
}

// IncidentEdges returns the edges touching nodeID in direction dir, oldest
// first. A self-loop appears once even for Both.
func (s *Store) IncidentEdges(ctx context.Context, nodeID int64, dir graph.Direction, types ...graph.EdgeType) ([]graph.Edge, error) {
	var (
		where []string
		args  []any
	)
	switch dir {
	case graph.Outgoing:
		where = append(where, "e.start_id = ?")
		args = append(args, nodeID)
	case graph.Incoming:
		where = append(where, "e.end_id = ?")
		args = append(args, nodeID)
	default:
		where = append(where, "(e.start_id = ? OR e.end_id = ?)")
		args = append(args, nodeID, nodeID)
	}
	if len(types) > 0 {
		marks := make([]string, len(types))
		for i, t := range types {
			marks[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "e.type IN ("+strings.Join(marks, ", ")+")")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT`+edgeColumns+`
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY e.id ASC
	`, args...)
	if err != nil {
		return nil, graph.NewBackendError("incident edges", err)
	}
	edges, err := collectEdges(rows)
	if err != nil {
		return nil, graph.NewBackendError("incident edges", err)
	}
	return edges, nil
}

// scanNode scans a node row (id, uri, type, props).
func scanNode(row rowScanner) (graph.Node, error) {
	var (
		n         graph.Node
		nodeType  string
		propsJSON string
	)
	if err := row.Scan(&n.ID, &n.URI, &nodeType, &propsJSON); err != nil {
		return graph.Node{}, err
	}
	props, err := unmarshalProps(propsJSON)
	if err != nil {
		return graph.Node{}, err
	}
	n.Type = graph.NodeType(nodeType)
	n.Props = props
	n.Stored = true
	return n, nil
}

// scanEdge scans an edge row selected with edgeColumns.
func scanEdge(row rowScanner) (graph.Edge, error) {
	var (
		e                   graph.Edge
		edgeType, propsJSON string
		startType, endType  string
	)
	if err := row.Scan(
		&e.ID, &edgeType, &propsJSON,
		&e.Start.ID, &startType, &e.Start.URI,
		&e.End.ID, &endType, &e.End.URI,
	); err != nil {
		return graph.Edge{}, err
	}
	props, err := unmarshalProps(propsJSON)
	if err != nil {
		return graph.Edge{}, err
	}
	e.Type = graph.EdgeType(edgeType)
	e.Start.Type = graph.NodeType(startType)
	e.End.Type = graph.NodeType(endType)
	e.Props = props
	return e, nil
}

// collectNodes drains and closes rows. Returns an empty slice (not nil)
// when there are no rows.
func collectNodes(rows *sql.Rows) ([]graph.Node, error) {
	defer rows.Close()
	nodes := []graph.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return nodes, nil
}

func collectEdges(rows *sql.Rows) ([]graph.Edge, error) {
	defer rows.Close()
	edges := []graph.Edge{}
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}
	return edges, nil
}
