package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/store"
)

const dogIsAnimal = `/assertion/["/relation/IsA","/concept/en/dog","/concept/en/animal"]`

// newFixtureGraph builds a graph holding one justified assertion.
func newFixtureGraph(t *testing.T) *graph.Graph {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	g := graph.New(st)
	t.Cleanup(func() { g.Close() })

	_, err = g.GetOrCreateAssertion(ctx, graph.ByURI("/relation/IsA"),
		graph.URIs("/concept/en/dog", "/concept/en/animal"), nil)
	require.NoError(t, err)
	_, err = g.GetOrCreateNode(ctx, "/source/contributor/alice", nil)
	require.NoError(t, err)
	_, err = g.Justify(ctx, graph.ByURI("/source/contributor/alice"), graph.ByURI(dogIsAnimal), 0.5)
	require.NoError(t, err)
	return g
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	g := newFixtureGraph(t)

	assertions := []Assertion{
		{Type: AssertNodeExists, URI: "/concept/en/dog"},
		{Type: AssertNodeAbsent, URI: "/concept/en/cat"},
		{Type: AssertNodeCount, Pattern: "/concept/en/*", Count: 2},
		{Type: AssertNodeProps, URI: "/concept/en/dog", Props: map[string]any{"language": "en", "score": 0}},
		{Type: AssertArgs, URI: dogIsAnimal, Args: []string{"/concept/en/dog", "/concept/en/animal"}},
		{Type: AssertEdgeCount, Edge: "justifies", Source: "/source/contributor/alice", Target: dogIsAnimal, Count: 1},
		{Type: AssertEdgeCount, Edge: "justifies", Target: dogIsAnimal, Count: 1},
		{Type: AssertEdgeCount, Edge: "arg", Source: dogIsAnimal, Count: 2},
		{Type: AssertEdgeCount, Edge: "justifies", Source: "/source/contributor/bob", Count: 0},
	}

	errs := EvaluateAssertions(context.Background(), g, assertions)
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	g := newFixtureGraph(t)

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "node_exists",
			assertion: Assertion{Type: AssertNodeExists, URI: "/concept/en/cat"},
			want:      "Actual: not found",
		},
		{
			name:      "node_absent",
			assertion: Assertion{Type: AssertNodeAbsent, URI: "/concept/en/dog"},
			want:      "concept node with id",
		},
		{
			name:      "node_count",
			assertion: Assertion{Type: AssertNodeCount, Pattern: "/concept/en/*", Count: 5},
			want:      "Actual: 2 nodes",
		},
		{
			name:      "node_props missing key",
			assertion: Assertion{Type: AssertNodeProps, URI: "/concept/en/dog", Props: map[string]any{"color": "brown"}},
			want:      `property "color"`,
		},
		{
			name:      "node_props wrong value",
			assertion: Assertion{Type: AssertNodeProps, URI: "/concept/en/dog", Props: map[string]any{"name": "cat"}},
			want:      "name = cat",
		},
		{
			name:      "args order",
			assertion: Assertion{Type: AssertArgs, URI: dogIsAnimal, Args: []string{"/concept/en/animal", "/concept/en/dog"}},
			want:      "args [/concept/en/dog /concept/en/animal]",
		},
		{
			name:      "edge_count",
			assertion: Assertion{Type: AssertEdgeCount, Edge: "justifies", Target: dogIsAnimal, Count: 3},
			want:      "Actual: 1 edges",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(context.Background(), g, []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "Assertion failed: "+tt.assertion.Type)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "node_count", Expected: "3 nodes", Actual: "1 nodes"}
	assert.Equal(t, "Assertion failed: node_count\n  Expected: 3 nodes\n  Actual: 1 nodes", err.Error())
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(0, 0.0))
	assert.True(t, valuesEqual(int64(2), 2))
	assert.True(t, valuesEqual(uint64(7), 7.0))
	assert.True(t, valuesEqual("en", "en"))
	assert.False(t, valuesEqual("1", 1))
	assert.False(t, valuesEqual(1, 1.5))
	assert.True(t, valuesEqual([]any{"a"}, []any{"a"}))
}
