package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/conceptgraph/internal/graph"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Limit int // 0 means no limit
}

// FindResult is the output of the find command.
type FindResult struct {
	Pattern   string       `json:"pattern"`
	Nodes     []graph.Node `json:"nodes"`
	Count     int          `json:"count"`
	Truncated bool         `json:"truncated,omitempty"`
}

func (r FindResult) String() string {
	if r.Count == 0 {
		return fmt.Sprintf("No nodes match %s", r.Pattern)
	}
	var b strings.Builder
	for _, n := range r.Nodes {
		fmt.Fprintf(&b, "%-12s %s\n", n.Type, n.URI)
	}
	fmt.Fprintf(&b, "%d node(s)", r.Count)
	if r.Truncated {
		b.WriteString(" (limit reached)")
	}
	return b.String()
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <pattern>",
		Short: "Find nodes by URI wildcard",
		Long: `Find nodes whose URI matches a wildcard pattern. * matches any run of
characters and ? a single character; a backslash escapes either.

Examples:
  conceptgraph find '/concept/en/*'
  conceptgraph find '/assertion/*' --limit 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of nodes to list (0 for all)")

	return cmd
}

func runFind(opts *FindOptions, pattern string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	g, err := s.openGraph(ctx)
	if err != nil {
		return err
	}
	defer g.Close()

	result := FindResult{Pattern: pattern, Nodes: []graph.Node{}}
	for n, err := range g.FindNodes(ctx, pattern) {
		if err != nil {
			return s.out.Fail("search failed", err)
		}
		if opts.Limit > 0 && len(result.Nodes) == opts.Limit {
			result.Truncated = true
			break
		}
		result.Nodes = append(result.Nodes, n)
	}
	result.Count = len(result.Nodes)

	return s.out.Success(result)
}
