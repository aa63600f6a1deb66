package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/logging"
	"github.com/roach88/conceptgraph/internal/store"
)

// Harness executes scenario steps against a graph.
type Harness struct {
	graph *graph.Graph
	log   *log.Logger
}

// Run executes a scenario against a fresh in-memory SQLite graph.
//
// Execution flow:
//  1. Create a fresh in-memory database
//  2. Execute setup steps, failing on the first error
//  3. Execute flow steps, checking each expect clause
//  4. Evaluate assertions against the final graph
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	g := graph.New(st)
	defer g.Close()

	return RunOn(ctx, g, scenario, nil)
}

// RunOn executes a scenario against an existing graph, which should be
// empty. A nil logger discards output.
func RunOn(ctx context.Context, g *graph.Graph, scenario *Scenario, logger *log.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Harness{graph: g, log: logger.With("scenario", scenario.Name)}
	result := NewResult()

	for i, step := range scenario.Setup {
		ev, err := h.execute(ctx, step)
		result.addTrace(ev)
		if err != nil {
			return nil, fmt.Errorf("failed to execute setup[%d] %s: %w", i, step.Op, err)
		}
	}

	for i, step := range scenario.Flow {
		ev, err := h.execute(ctx, step)
		result.addTrace(ev)
		if msg := checkExpect(step.Expect, ev, err); msg != "" {
			h.log.Debug("step failed expectation", "step", i, "op", step.Op, "msg", msg)
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
		if err != nil && graph.IsBackendUnavailable(err) {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
	}

	for _, msg := range EvaluateAssertions(ctx, g, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// execute runs one step and describes it as a trace event.
func (h *Harness) execute(ctx context.Context, s Step) (TraceEvent, error) {
	ev := TraceEvent{Op: s.Op}
	weight := graph.DefaultWeight
	if s.Weight != nil {
		weight = *s.Weight
	}

	var (
		node graph.Node
		edge graph.Edge
		err  error
	)
	switch s.Op {
	case OpNode:
		ev.Input = s.URI
		node, err = h.graph.GetOrCreateNode(ctx, s.URI, s.Props)
	case OpAssert:
		ev.Input = s.Relation
		node, err = h.graph.GetOrCreateAssertion(ctx, graph.ByURI(s.Relation), graph.URIs(s.Args...), s.Props)
	case OpConjunction:
		node, err = h.graph.GetOrCreateConjunction(ctx, graph.URIs(s.Args...))
	case OpEdge:
		ev.Input = s.Source
		edge, err = h.graph.GetOrCreateEdge(ctx, graph.EdgeType(s.Edge), graph.ByURI(s.Source), graph.ByURI(s.Target), s.Props)
	case OpJustify:
		ev.Input = s.Source
		edge, err = h.graph.Justify(ctx, graph.ByURI(s.Source), graph.ByURI(s.Target), weight)
	case OpNormalize:
		ev.Input = s.Source
		edge, err = h.graph.DeriveNormalized(ctx, graph.ByURI(s.Source), graph.ByURI(s.Target), weight)
	case OpDelete:
		ev.Input = s.URI
		err = h.graph.DeleteNode(ctx, graph.ByURI(s.URI))
	default:
		err = graph.NewValidationError("", "unknown op "+s.Op)
	}

	switch {
	case err != nil:
		ev.Error = errorCode(err)
	case node.URI != "":
		ev.Result = node.URI
	case edge.Type != "":
		ev.Result = fmt.Sprintf("%s(%s, %s)", edge.Type, edge.Start.URI, edge.End.URI)
	}
	return ev, err
}

// checkExpect returns a failure message, or "" if the outcome matches.
func checkExpect(exp *Expect, ev TraceEvent, err error) string {
	if exp == nil || exp.Error == "" {
		if err != nil {
			return fmt.Sprintf("unexpected error: %v", err)
		}
		if exp != nil && exp.URI != "" && exp.URI != ev.Result {
			return fmt.Sprintf("expected uri %s, got %s", exp.URI, ev.Result)
		}
		return ""
	}

	if err == nil {
		return fmt.Sprintf("expected error %s, got success", exp.Error)
	}
	if exp.Error == ev.Error {
		return ""
	}
	if exp.Error == string(graph.ErrCodeValidation) && graph.IsValidation(err) {
		return ""
	}
	return fmt.Sprintf("expected error %s, got %s (%v)", exp.Error, ev.Error, err)
}

// errorCode returns the graph error code of err.
func errorCode(err error) string {
	var ge *graph.Error
	if errors.As(err, &ge) {
		return string(ge.Code)
	}
	if graph.IsMalformedURI(err) {
		return string(graph.ErrCodeMalformedURI)
	}
	return "ERROR"
}
