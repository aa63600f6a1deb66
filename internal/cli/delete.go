package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/conceptgraph/internal/graph"
)

// DeleteResult is the output of the delete command.
type DeleteResult struct {
	Deleted string `json:"deleted"`
}

func (r DeleteResult) String() string {
	return fmt.Sprintf("Deleted %s", r.Deleted)
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <uri>",
		Short: "Delete a node",
		Long: `Delete a node and the edges touching it.

Deletion is refused while an assertion points at the node, for example as
its relation or one of its arguments. A source is deleted together with the
conjunctions it points to.

Exit codes:
  0 - Node deleted
  1 - Deletion refused or node not found
  2 - Command error (bad config, backend unreachable)

Examples:
  conceptgraph delete /source/contributor/omcs/alice`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDelete(opts *RootOptions, u string, cmd *cobra.Command) error {
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

	if err := g.DeleteNode(ctx, graph.ByURI(u)); err != nil {
		return s.out.Fail("delete refused", err)
	}
	return s.out.Success(DeleteResult{Deleted: u})
}
