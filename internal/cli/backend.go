package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/roach88/conceptgraph/internal/config"
	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/logging"
	"github.com/roach88/conceptgraph/internal/neo4jstore"
	"github.com/roach88/conceptgraph/internal/store"
)

// session is the environment shared by every command: resolved config,
// logger and output formatter.
type session struct {
	cfg config.Config
	log *log.Logger
	out *OutputFormatter
}

// newSession resolves configuration from the config file, .env,
// environment and global flags, in increasing precedence.
func newSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Read(opts.ConfigPath)
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}
	if opts.Database != "" {
		cfg.SQLite.Path = opts.Database
	}
	if err := cfg.Validate(); err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Writer: cmd.ErrOrStderr(),
		Prefix: "conceptgraph",
	})
	if err != nil {
		_ = out.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "invalid log level", err)
	}

	return &session{cfg: cfg, log: logger, out: out}, nil
}

// commandContext returns the context the command was executed with, so
// interrupts cancel in-flight backend calls and page fetches.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openGraph opens the configured backend. The caller closes the graph.
func (s *session) openGraph(ctx context.Context) (*graph.Graph, error) {
	st, err := s.openStore(ctx)
	if err != nil {
		_ = s.out.Error(string(graph.ErrCodeBackendUnavailable), err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	s.out.VerboseLog("Using %s backend", s.cfg.Backend)
	return graph.New(st, graph.WithLogger(s.log)), nil
}

func (s *session) openStore(ctx context.Context) (graph.Store, error) {
	switch s.cfg.Backend {
	case config.BackendNeo4j:
		n := s.cfg.Neo4j
		st, err := neo4jstore.Open(ctx, neo4jstore.Config{
			URI:         n.URI,
			User:        n.User,
			Password:    n.Password,
			Database:    n.Database,
			Timeout:     time.Duration(n.TimeoutSeconds) * time.Second,
			MaxPoolSize: n.MaxPoolSize,
		}, s.log)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		st, err := store.Open(s.cfg.SQLite.Path)
		if err != nil {
			return nil, graph.NewBackendError("open sqlite", err)
		}
		return st, nil
	}
}
