package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/conceptgraph/internal/export"
	"github.com/roach88/conceptgraph/internal/harvest"
)

// HarvestOptions holds flags for the harvest command.
type HarvestOptions struct {
	*RootOptions
	Export      string // write a bulk-load script instead of the live backend
	BaseURL     string
	Concurrency int
}

// HarvestResult is the output of the harvest command.
type HarvestResult struct {
	harvest.Result
	Export *export.Stats `json:"export,omitempty"`
}

func (r HarvestResult) String() string {
	s := fmt.Sprintf("Titles: %d, pages: %d, assertions: %d, skipped: %d",
		r.Titles, r.Pages, r.Assertions, r.Skipped)
	if r.Export != nil {
		s += fmt.Sprintf("\nScript: %d node statements, %d edge statements", r.Export.Nodes, r.Export.Edges)
	}
	return s
}

// NewHarvestCommand creates the harvest command.
func NewHarvestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HarvestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "harvest <titles-file>",
		Short: "Import rdf:type facts from DBpedia",
		Long: `Fetch the DBpedia page of every title in a file (one per line, "-"
for stdin) and record each listed rdf:type as an assertion justified by
/source/web/dbpedia.org.

Facts go to the configured backend, or with --export to a Groovy script
for offline bulk loading.

Examples:
  conceptgraph harvest titles.txt --db ./graph.db
  conceptgraph harvest titles.txt --export load.groovy --concurrency 8`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Export, "export", "", "write a bulk-load script to this file")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "page URL prefix (default from config)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "simultaneous page fetches (default from config)")

	return cmd
}

func runHarvest(opts *HarvestOptions, titlesPath string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)

	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	titles, err := openTitles(titlesPath, cmd)
	if err != nil {
		_ = s.out.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open titles", err)
	}
	defer titles.Close()

	h := &harvest.Harvester{
		Client:      &http.Client{Timeout: time.Duration(s.cfg.Harvest.TimeoutSeconds) * time.Second},
		BaseURL:     s.cfg.Harvest.BaseURL,
		Concurrency: s.cfg.Harvest.Concurrency,
		Logger:      s.log,
	}
	if opts.BaseURL != "" {
		h.BaseURL = opts.BaseURL
	}
	if opts.Concurrency > 0 {
		h.Concurrency = opts.Concurrency
	}

	var (
		result HarvestResult
		runErr error
	)
	if opts.Export != "" {
		w, err := export.Create(opts.Export,
			export.WithRecencyWindow(s.cfg.Export.RecencyWindow),
			export.WithLogger(s.log))
		if err != nil {
			_ = s.out.Error(ErrCodeInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to create export script", err)
		}
		h.Graph = w
		s.out.VerboseLog("Writing script to %s", opts.Export)

		result.Result, runErr = h.Run(ctx, titles)
		if err := w.Close(); runErr == nil {
			runErr = err
		}
		stats := w.Stats()
		result.Export = &stats
	} else {
		g, err := s.openGraph(ctx)
		if err != nil {
			return err
		}
		defer g.Close()
		h.Graph = g

		result.Result, runErr = h.Run(ctx, titles)
	}
	if runErr != nil {
		return s.out.Fail("harvest failed", runErr)
	}

	return s.out.Success(result)
}

func openTitles(path string, cmd *cobra.Command) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}
