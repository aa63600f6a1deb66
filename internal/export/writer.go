package export

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/logging"
	"github.com/roach88/conceptgraph/internal/uri"
)

//go:embed preamble.groovy
var preamble string

// Stats counts the statements a Writer has emitted.
type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// Writer is a graph.Builder that appends creation statements to a Groovy
// script instead of touching a store.
//
// Existence checks only consult the last few emitted nodes (see
// WithRecencyWindow). A node emitted earlier than that is reported as
// missing and emitted again; edges are always emitted. Nodes returned by a
// Writer have no ID, so ByID refs are rejected.
//
// A Writer is not safe for concurrent use. The first write error is sticky:
// every later call returns it.
type Writer struct {
	out    *bufio.Writer
	closer io.Closer
	recent *recentNodes
	window int
	runIDs RunIDGenerator
	log    *log.Logger
	stats  Stats
	err    error
}

var _ graph.Builder = (*Writer)(nil)

// Option configures a Writer.
type Option func(*Writer)

// WithRecencyWindow sets how many recently emitted nodes are remembered.
func WithRecencyWindow(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.window = n
		}
	}
}

// WithRunIDGenerator sets the source of the run ID written in the header.
func WithRunIDGenerator(gen RunIDGenerator) Option {
	return func(w *Writer) {
		if gen != nil {
			w.runIDs = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// Create opens path for writing, truncating it, and starts a script.
func Create(path string, opts ...Option) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w", err)
	}
	w, err := newWriter(f, f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// New starts a script on out. Close flushes but does not close out.
func New(out io.Writer, opts ...Option) (*Writer, error) {
	return newWriter(out, nil, opts...)
}

func newWriter(out io.Writer, closer io.Closer, opts ...Option) (*Writer, error) {
	w := &Writer{
		out:    bufio.NewWriter(out),
		closer: closer,
		window: DefaultRecencyWindow,
		runIDs: UUIDv7Generator{},
		log:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.recent = newRecentNodes(w.window)

	runID := w.runIDs.Generate()
	w.write(preamble)
	w.write("// run " + runID + "\n")
	if w.err != nil {
		return nil, w.err
	}
	w.log.Debug("export started", "run", runID, "window", w.window)
	return w, nil
}

// Stats returns the number of nodes and edges emitted so far.
func (w *Writer) Stats() Stats {
	return w.stats
}

// Close flushes the script and closes the file opened by Create.
func (w *Writer) Close() error {
	if err := w.out.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && w.err == nil {
			w.err = err
		}
		w.closer = nil
	}
	w.log.Debug("export closed", "nodes", w.stats.Nodes, "edges", w.stats.Edges)
	return w.err
}

// GetNode reports whether u was among the recently emitted nodes.
func (w *Writer) GetNode(_ context.Context, u string) (graph.Node, bool, error) {
	n, ok := w.recent.get(uri.Normalize(u))
	return n, ok, nil
}

// GetOrCreateNode emits u unless it was emitted recently. An assertion URI
// also emits its relation and arguments and the edges to them.
func (w *Writer) GetOrCreateNode(ctx context.Context, u string, props graph.Properties) (graph.Node, error) {
	if n, ok, _ := w.GetNode(ctx, u); ok {
		return n, nil
	}
	bp, err := graph.Plan(u, props)
	if err != nil {
		return graph.Node{}, err
	}
	if bp.Node.Type != graph.TypeAssertion {
		return w.emitNode(bp.Node)
	}
	return w.emitAssertion(ctx, bp, nil)
}

// GetOrCreateEdge always emits the edge.
func (w *Writer) GetOrCreateEdge(_ context.Context, typ graph.EdgeType, start, end graph.Ref, props graph.Properties) (graph.Edge, error) {
	if !typ.Valid() {
		return graph.Edge{}, graph.NewValidationError("", "unknown edge type "+string(typ))
	}
	s, err := endpointOf(start)
	if err != nil {
		return graph.Edge{}, err
	}
	e, err := endpointOf(end)
	if err != nil {
		return graph.Edge{}, err
	}
	return w.emitEdge(typ, s, e, props)
}

// GetOrCreateConcept emits /concept/<language>/<name>[/<disambiguation>].
func (w *Writer) GetOrCreateConcept(ctx context.Context, language, name, disambiguation string) (graph.Node, error) {
	return w.GetOrCreateNode(ctx, graph.ConceptURI(language, name, disambiguation), nil)
}

// GetOrCreateFrame emits /frame/<language>/<name>.
func (w *Writer) GetOrCreateFrame(ctx context.Context, language, name string) (graph.Node, error) {
	return w.GetOrCreateNode(ctx, graph.FrameURI(language, name), nil)
}

// GetOrCreateRelation emits /relation/<name>.
func (w *Writer) GetOrCreateRelation(ctx context.Context, name string) (graph.Node, error) {
	return w.GetOrCreateNode(ctx, graph.RelationURI(name), nil)
}

// GetOrCreateSource emits /source/<segments...>.
func (w *Writer) GetOrCreateSource(ctx context.Context, segments []string) (graph.Node, error) {
	return w.GetOrCreateNode(ctx, graph.SourceURI(segments), nil)
}

// GetOrCreateWebConcept emits web_concept/<url>.
func (w *Writer) GetOrCreateWebConcept(ctx context.Context, url string) (graph.Node, error) {
	return w.GetOrCreateNode(ctx, graph.WebConceptURI(url), nil)
}

// GetOrCreateConjunction emits the conjunction of the given nodes.
func (w *Writer) GetOrCreateConjunction(ctx context.Context, conjuncts []graph.Ref) (graph.Node, error) {
	uris, err := urisOf(conjuncts)
	if err != nil {
		return graph.Node{}, err
	}
	return w.GetOrCreateNode(ctx, graph.ConjunctionURI(uris), nil)
}

// GetOrCreateAssertion emits an assertion with its components unless it
// was emitted recently. Components passed as nodes keep their properties
// when they have to be emitted again after leaving the recency window.
func (w *Writer) GetOrCreateAssertion(ctx context.Context, relation graph.Ref, args []graph.Ref, props graph.Properties) (graph.Node, error) {
	refs := append([]graph.Ref{relation}, args...)
	uris, err := urisOf(refs)
	if err != nil {
		return graph.Node{}, err
	}
	u := graph.AssertionURI(uris[0], uris[1:])
	if n, ok, _ := w.GetNode(ctx, u); ok {
		return n, nil
	}
	bp, err := graph.Plan(u, props)
	if err != nil {
		return graph.Node{}, err
	}
	return w.emitAssertion(ctx, bp, carriedProps(refs))
}

// carriedProps maps the URI of every node ref to its properties.
func carriedProps(refs []graph.Ref) map[string]graph.Properties {
	out := make(map[string]graph.Properties)
	for _, r := range refs {
		if n, ok := r.(graph.Node); ok && len(n.Props) > 0 {
			out[uri.Normalize(n.URI)] = n.Props
		}
	}
	return out
}

// GetArgs decodes the argument URIs from the assertion's URI.
func (w *Writer) GetArgs(ctx context.Context, assertion graph.Ref) ([]graph.Node, error) {
	parts, err := w.GetRelAndArgs(ctx, assertion)
	if err != nil {
		return nil, err
	}
	return parts[1:], nil
}

// GetRelAndArgs decodes the relation and argument URIs from the
// assertion's URI.
func (w *Writer) GetRelAndArgs(_ context.Context, assertion graph.Ref) ([]graph.Node, error) {
	a, err := endpointOf(assertion)
	if err != nil {
		return nil, err
	}
	parts, err := graph.ComponentsOf(a.URI)
	if err != nil {
		return nil, err
	}
	nodes := make([]graph.Node, len(parts))
	for i, p := range parts {
		bp, err := graph.Plan(p, nil)
		if err != nil {
			return nil, err
		}
		nodes[i] = bp.Node
	}
	return nodes, nil
}

// Justify emits a justifies edge carrying weight.
func (w *Writer) Justify(ctx context.Context, source, target graph.Ref, weight float64) (graph.Edge, error) {
	return w.GetOrCreateEdge(ctx, graph.EdgeJustifies, source, target, graph.Properties{graph.PropWeight: weight})
}

// DeriveNormalized emits the normalized and justifies edges between two
// assertions and a normalized edge for every differing component pair.
func (w *Writer) DeriveNormalized(ctx context.Context, source, target graph.Ref, weight float64) (graph.Edge, error) {
	if !(weight > 0) {
		return graph.Edge{}, graph.NewValidationError("", fmt.Sprintf("normalization weight must be positive, got %v", weight))
	}
	edge, err := w.GetOrCreateEdge(ctx, graph.EdgeNormalized, source, target, nil)
	if err != nil {
		return graph.Edge{}, err
	}
	if _, err := w.Justify(ctx, source, target, weight); err != nil {
		return graph.Edge{}, err
	}

	from, err := w.GetRelAndArgs(ctx, source)
	if err != nil {
		return graph.Edge{}, err
	}
	to, err := w.GetRelAndArgs(ctx, target)
	if err != nil {
		return graph.Edge{}, err
	}
	if len(from) != len(to) {
		w.log.Warn("normalizing assertions of different arity",
			"source", edge.Start.URI, "target", edge.End.URI,
			"source_len", len(from), "target_len", len(to))
	}
	for i := range min(len(from), len(to)) {
		if from[i].URI == to[i].URI {
			continue
		}
		if _, err := w.emitEdge(graph.EdgeNormalized, from[i].Endpoint(), to[i].Endpoint(), nil); err != nil {
			return graph.Edge{}, err
		}
	}
	return edge, nil
}

func (w *Writer) emitAssertion(ctx context.Context, bp graph.Blueprint, carried map[string]graph.Properties) (graph.Node, error) {
	components := make([]graph.Node, len(bp.Components))
	for i, c := range bp.Components {
		n, err := w.GetOrCreateNode(ctx, c, carried[c])
		if err != nil {
			return graph.Node{}, err
		}
		components[i] = n
	}

	a, err := w.emitNode(bp.Node)
	if err != nil {
		return graph.Node{}, err
	}
	if _, err := w.emitEdge(graph.EdgeRelation, a.Endpoint(), components[0].Endpoint(), nil); err != nil {
		return graph.Node{}, err
	}
	for i, arg := range components[1:] {
		if _, err := w.emitEdge(graph.EdgeArg, a.Endpoint(), arg.Endpoint(), graph.Properties{graph.PropPosition: i + 1}); err != nil {
			return graph.Node{}, err
		}
	}
	return a, nil
}

func (w *Writer) emitNode(n graph.Node) (graph.Node, error) {
	props := make(map[string]any, len(n.Props)+2)
	for k, v := range n.Props {
		props[k] = v
	}
	props[graph.PropType] = string(n.Type)
	props[graph.PropURI] = n.URI

	m, err := groovyMap(props)
	if err != nil {
		return graph.Node{}, graph.NewValidationError(n.URI, err.Error())
	}
	w.write(fmt.Sprintf("makeNode(%s, %s)\n", groovyString(n.URI), m))
	if w.err != nil {
		return graph.Node{}, w.err
	}
	w.stats.Nodes++
	w.recent.add(n)
	return n, nil
}

func (w *Writer) emitEdge(typ graph.EdgeType, start, end graph.Endpoint, props graph.Properties) (graph.Edge, error) {
	m, err := groovyMap(props)
	if err != nil {
		return graph.Edge{}, graph.NewValidationError(start.URI, err.Error())
	}
	w.write(fmt.Sprintf("makeEdge(%s, %s, %s, %s)\n",
		groovyString(string(typ)), groovyString(start.URI), groovyString(end.URI), m))
	if w.err != nil {
		return graph.Edge{}, w.err
	}
	w.stats.Edges++
	return graph.Edge{Type: typ, Start: start, End: end, Props: props.Clone()}, nil
}

func (w *Writer) write(s string) {
	if w.err != nil {
		return
	}
	if _, err := w.out.WriteString(s); err != nil {
		w.err = fmt.Errorf("write export: %w", err)
	}
}

// endpointOf resolves a ref without a store: URIs are normalized and typed
// from their shape, nodes are used as given.
func endpointOf(r graph.Ref) (graph.Endpoint, error) {
	switch v := r.(type) {
	case graph.ByURI:
		u := uri.Normalize(string(v))
		bp, err := graph.Plan(u, nil)
		if err != nil {
			return graph.Endpoint{}, err
		}
		return bp.Node.Endpoint(), nil
	case graph.Node:
		if v.URI == "" {
			return graph.Endpoint{}, graph.NewValidationError("", "export needs node URIs, got a node without one")
		}
		return v.Endpoint(), nil
	case graph.ByID:
		return graph.Endpoint{}, graph.NewValidationError("", fmt.Sprintf("export cannot resolve node id %d", int64(v)))
	}
	return graph.Endpoint{}, graph.NewValidationError("", "nil node reference")
}

func urisOf(refs []graph.Ref) ([]string, error) {
	out := make([]string, len(refs))
	for i, r := range refs {
		e, err := endpointOf(r)
		if err != nil {
			return nil, err
		}
		out[i] = e.URI
	}
	return out, nil
}
