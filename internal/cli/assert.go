package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/conceptgraph/internal/graph"
)

// AssertOptions holds flags for the assert command.
type AssertOptions struct {
	*RootOptions
	Source []string // source path segments, optional
	Weight float64
}

// AssertResult is the output of the assert command.
type AssertResult struct {
	Assertion     graph.Node  `json:"assertion"`
	Justification *graph.Edge `json:"justification,omitempty"`
}

func (r AssertResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assertion: %s", r.Assertion.URI)
	if j := r.Justification; j != nil {
		w, _ := j.Weight()
		fmt.Fprintf(&b, "\nJustified by %s (weight %g)", j.Start.URI, w)
	}
	return b.String()
}

// NewAssertCommand creates the assert command.
func NewAssertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assert <relation> <arg>...",
		Short: "Get or create an assertion",
		Long: `Get or create the assertion of a relation over ordered arguments.

The relation is a name such as IsA or a /relation/ URI. Arguments are node
URIs; missing nodes are created. With --source the assertion is justified
by that source with --weight, which must lie in [-1, 1].

Exit codes:
  0 - Assertion recorded
  1 - Invalid relation, argument or weight
  2 - Command error (bad config, backend unreachable)

Examples:
  conceptgraph assert IsA /concept/en/dog /concept/en/animal
  conceptgraph assert /relation/UsedFor /concept/en/fork /concept/en/eat \
      --source contributor,omcs,alice --weight 0.5`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssert(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Source, "source", nil, "source path segments justifying the assertion")
	cmd.Flags().Float64Var(&opts.Weight, "weight", graph.DefaultWeight, "justification weight in [-1, 1]")

	return cmd
}

func runAssert(opts *AssertOptions, relation string, args []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if len(opts.Source) > 0 {
		if err := checkWeight(opts.Weight); err != nil {
			return s.out.Fail("invalid weight", err)
		}
	}

	g, err := s.openGraph(ctx)
	if err != nil {
		return err
	}
	defer g.Close()

	relRef := graph.ByURI(relationURI(relation))
	argRefs := graph.URIs(args...)

	assertion, err := g.GetOrCreateAssertion(ctx, relRef, argRefs, nil)
	if err != nil {
		return s.out.Fail("failed to assert", err)
	}
	s.out.VerboseLog("Assertion %s has id %d", assertion.URI, assertion.ID)

	result := AssertResult{Assertion: assertion}
	if len(opts.Source) > 0 {
		src, err := g.GetOrCreateSource(ctx, opts.Source)
		if err != nil {
			return s.out.Fail("failed to create source", err)
		}
		edge, err := g.Justify(ctx, src, assertion, opts.Weight)
		if err != nil {
			return s.out.Fail("failed to justify", err)
		}
		result.Justification = &edge
	}

	return s.out.Success(result)
}

// relationURI accepts a bare relation name or a relation URI.
func relationURI(relation string) string {
	if strings.HasPrefix(relation, "/") {
		return relation
	}
	return graph.RelationURI(relation)
}

// checkWeight enforces the [-1, 1] range for justification weights.
func checkWeight(w float64) error {
	if !(w >= -1 && w <= 1) {
		return graph.NewValidationError("", fmt.Sprintf("weight must be in [-1, 1], got %v", w))
	}
	return nil
}
