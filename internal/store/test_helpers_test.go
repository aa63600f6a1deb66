package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/conceptgraph/internal/graph"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustCreateNode persists a node with the given type and URI.
func mustCreateNode(t *testing.T, s *Store, typ graph.NodeType, u string, props graph.Properties) graph.Node {
	t.Helper()
	n, err := s.CreateNode(context.Background(), graph.Node{Type: typ, URI: u, Props: props})
	if err != nil {
		t.Fatalf("CreateNode(%q) failed: %v", u, err)
	}
	return n
}

// mustCreateEdge persists an edge between two stored nodes.
func mustCreateEdge(t *testing.T, s *Store, typ graph.EdgeType, start, end graph.Node, props graph.Properties) graph.Edge {
	t.Helper()
	e, err := s.CreateEdge(context.Background(), typ, start, end, props)
	if err != nil {
		t.Fatalf("CreateEdge(%s, %q, %q) failed: %v", typ, start.URI, end.URI, err)
	}
	return e
}
