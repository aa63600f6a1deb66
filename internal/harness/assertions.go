package harness

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/conceptgraph/internal/graph"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions checks every assertion against g and returns one
// message per failure.
func EvaluateAssertions(ctx context.Context, g *graph.Graph, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(ctx, g, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(ctx context.Context, g *graph.Graph, a Assertion) error {
	switch a.Type {
	case AssertNodeExists:
		return assertNodeExists(ctx, g, a)
	case AssertNodeAbsent:
		return assertNodeAbsent(ctx, g, a)
	case AssertNodeCount:
		return assertNodeCount(ctx, g, a)
	case AssertNodeProps:
		return assertNodeProps(ctx, g, a)
	case AssertArgs:
		return assertArgs(ctx, g, a)
	case AssertEdgeCount:
		return assertEdgeCount(ctx, g, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertNodeExists(ctx context.Context, g *graph.Graph, a Assertion) error {
	_, found, err := g.GetNode(ctx, a.URI)
	if err != nil {
		return err
	}
	if !found {
		return &AssertionError{Type: a.Type, Expected: "node " + a.URI, Actual: "not found"}
	}
	return nil
}

func assertNodeAbsent(ctx context.Context, g *graph.Graph, a Assertion) error {
	n, found, err := g.GetNode(ctx, a.URI)
	if err != nil {
		return err
	}
	if found {
		return &AssertionError{
			Type:     a.Type,
			Expected: "no node " + a.URI,
			Actual:   fmt.Sprintf("%s node with id %d", n.Type, n.ID),
		}
	}
	return nil
}

func assertNodeCount(ctx context.Context, g *graph.Graph, a Assertion) error {
	count := 0
	for _, err := range g.FindNodes(ctx, a.Pattern) {
		if err != nil {
			return err
		}
		count++
	}
	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d nodes matching %s", a.Count, a.Pattern),
			Actual:   fmt.Sprintf("%d nodes", count),
		}
	}
	return nil
}

// assertNodeProps checks the expected properties with subset semantics.
func assertNodeProps(ctx context.Context, g *graph.Graph, a Assertion) error {
	n, found, err := g.GetNode(ctx, a.URI)
	if err != nil {
		return err
	}
	if !found {
		return &AssertionError{Type: a.Type, Expected: "node " + a.URI, Actual: "not found"}
	}
	for key, want := range a.Props {
		got, ok := n.Props[key]
		if !ok {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("property %q", key),
				Actual:   fmt.Sprintf("not present in %v", n.Props),
			}
		}
		if !valuesEqual(want, got) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s = %v (type %T)", key, want, want),
				Actual:   fmt.Sprintf("%s = %v (type %T)", key, got, got),
			}
		}
	}
	return nil
}

func assertArgs(ctx context.Context, g *graph.Graph, a Assertion) error {
	args, err := g.GetArgs(ctx, graph.ByURI(a.URI))
	if err != nil {
		return err
	}
	got := make([]string, len(args))
	for i, n := range args {
		got[i] = n.URI
	}
	if !slices.Equal(got, a.Args) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("args %v", a.Args),
			Actual:   fmt.Sprintf("args %v", got),
		}
	}
	return nil
}

// assertEdgeCount counts edges of one type between the given endpoints. A
// missing endpoint node counts as zero edges.
func assertEdgeCount(ctx context.Context, g *graph.Graph, a Assertion) error {
	anchor, dir, other := a.Source, graph.Outgoing, a.Target
	if anchor == "" {
		anchor, dir, other = a.Target, graph.Incoming, ""
	}

	count := 0
	n, found, err := g.GetNode(ctx, anchor)
	if err != nil {
		return err
	}
	if found {
		edges, err := g.Store().IncidentEdges(ctx, n.ID, dir, graph.EdgeType(a.Edge))
		if err != nil {
			return err
		}
		for _, e := range edges {
			if other == "" || e.End.URI == other {
				count++
			}
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s edges (source %q, target %q)", a.Count, a.Edge, a.Source, a.Target),
			Actual:   fmt.Sprintf("%d edges", count),
		}
	}
	return nil
}

// valuesEqual compares a YAML value with a stored property. Numbers compare
// by value whatever their Go type.
func valuesEqual(want, got any) bool {
	wf, wok := toFloat(want)
	gf, gok := toFloat(got)
	if wok && gok {
		return wf == gf
	}
	return reflect.DeepEqual(want, got)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
