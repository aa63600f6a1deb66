package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/conceptgraph/internal/graph"
)

// NormalizeOptions holds flags for the normalize command.
type NormalizeOptions struct {
	*RootOptions
	Weight float64
}

// NormalizeResult is the output of the normalize command.
type NormalizeResult struct {
	Edge graph.Edge `json:"edge"`
}

func (r NormalizeResult) String() string {
	return fmt.Sprintf("Normalized %s\n        -> %s", r.Edge.Start.URI, r.Edge.End.URI)
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NormalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "normalize <source-assertion> <target-assertion>",
		Short: "Record that one assertion normalizes another",
		Long: `Link a source assertion to its normalized target.

The target is justified by the source with --weight, and each differing
pair of relations and arguments gets its own normalized edge.

Examples:
  conceptgraph normalize \
      '/assertion/["/relation/IsA","/concept/en/dogs","/concept/en/animals"]' \
      '/assertion/["/relation/IsA","/concept/en/dog","/concept/en/animal"]'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Weight, "weight", graph.DefaultWeight, "justification weight, must be positive")

	return cmd
}

func runNormalize(opts *NormalizeOptions, source, target string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if err := checkWeight(opts.Weight); err != nil {
		return s.out.Fail("invalid weight", err)
	}

	g, err := s.openGraph(ctx)
	if err != nil {
		return err
	}
	defer g.Close()

	edge, err := g.DeriveNormalized(ctx, graph.ByURI(source), graph.ByURI(target), opts.Weight)
	if err != nil {
		return s.out.Fail("normalization failed", err)
	}
	return s.out.Success(NormalizeResult{Edge: edge})
}
