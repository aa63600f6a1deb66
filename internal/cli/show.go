package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/conceptgraph/internal/graph"
)

// Justification is one source supporting or refuting a node.
type Justification struct {
	Source string  `json:"source"`
	Weight float64 `json:"weight"`
}

// ShowResult is the output of the show command.
type ShowResult struct {
	Node           graph.Node      `json:"node"`
	Relation       *graph.Node     `json:"relation,omitempty"`
	Args           []graph.Node    `json:"args,omitempty"`
	Justifications []Justification `json:"justifications"`
}

func (r ShowResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URI:  %s\nType: %s\nID:   %d", r.Node.URI, r.Node.Type, r.Node.ID)
	for _, k := range slices.Sorted(maps.Keys(r.Node.Props)) {
		fmt.Fprintf(&b, "\n  %s = %v", k, r.Node.Props[k])
	}
	if r.Relation != nil {
		fmt.Fprintf(&b, "\nRelation: %s", r.Relation.URI)
		for i, a := range r.Args {
			fmt.Fprintf(&b, "\n  [%d] %s", i+1, a.URI)
		}
	}
	if len(r.Justifications) > 0 {
		b.WriteString("\nJustified by:")
		for _, j := range r.Justifications {
			fmt.Fprintf(&b, "\n  %s (weight %g)", j.Source, j.Weight)
		}
	}
	return b.String()
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <uri>",
		Short: "Show a node",
		Long: `Show a node with its properties and the sources justifying it.
For assertions the relation and ordered arguments are listed too.

Examples:
  conceptgraph show /concept/en/dog
  conceptgraph show '/assertion/["/relation/IsA","/concept/en/dog","/concept/en/animal"]' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, u string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	s, err := newSession(opts, cmd)
	if err != nil {
		return err
	}
	g, err := s.openGraph(ctx)
	if err != nil {
		return err
	}
	defer g.Close()

	node, found, err := g.GetNode(ctx, u)
	if err != nil {
		return s.out.Fail("lookup failed", err)
	}
	if !found {
		return s.out.Fail("lookup failed", graph.NewNotFoundError(u))
	}

	result := ShowResult{Node: node, Justifications: []Justification{}}
	if node.Type == graph.TypeAssertion {
		parts, err := g.GetRelAndArgs(ctx, node)
		if err != nil {
			return s.out.Fail("failed to read assertion", err)
		}
		result.Relation = &parts[0]
		result.Args = parts[1:]
	}

	edges, err := g.Store().IncidentEdges(ctx, node.ID, graph.Incoming, graph.EdgeJustifies)
	if err != nil {
		return s.out.Fail("failed to read justifications", err)
	}
	for _, e := range edges {
		w, _ := e.Weight()
		result.Justifications = append(result.Justifications, Justification{Source: e.Start.URI, Weight: w})
	}

	return s.out.Success(result)
}
