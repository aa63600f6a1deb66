// Package neo4jstore implements graph.Store on a Neo4j database.
//
// Every node carries the :Node label and stores its type and uri as
// ordinary properties next to the caller's attributes. Edges are
// relationships named after the edge type (relation, arg, justifies,
// normalized) and carry the derived nodes key as a property.
package neo4jstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/roach88/conceptgraph/internal/graph"
	"github.com/roach88/conceptgraph/internal/logging"
)

// Config holds connection settings.
type Config struct {
	URI         string
	User        string
	Password    string
	Database    string
	Timeout     time.Duration
	MaxPoolSize int
}

// Store is a graph.Store backed by Neo4j.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	log      *log.Logger
}

var _ graph.Store = (*Store)(nil)

// Open connects to Neo4j, verifies connectivity and makes sure the uri
// index exists. A nil logger discards output.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4jstore: uri required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.User == "" {
		cfg.User = "neo4j"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = 50
	}

	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, graph.NewBackendError("init driver", err)
	}

	vctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, graph.NewBackendError("verify connectivity", err)
	}

	s := &Store{
		driver:   driver,
		database: cfg.Database,
		log:      logger.WithPrefix("neo4j"),
	}
	s.ensureSchema(ctx)
	return s, nil
}

// ensureSchema creates the uri index. Failures are logged and ignored since
// restricted users may not be allowed to manage indexes.
func (s *Store) ensureSchema(ctx context.Context) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, stmt := range []string{
		`CREATE INDEX node_uri IF NOT EXISTS FOR (n:Node) ON (n.uri)`,
		`CREATE INDEX node_type IF NOT EXISTS FOR (n:Node) ON (n.type)`,
	} {
		res, err := session.Run(ctx, stmt, nil)
		if err == nil {
			_, err = res.Consume(ctx)
		}
		if err != nil {
			s.log.Warn("schema init failed (continuing)", "stmt", stmt, "err", err)
		}
	}
}

// Close releases the driver.
func (s *Store) Close() error {
	if s == nil || s.driver == nil {
		return nil
	}
	err := s.driver.Close(context.Background())
	s.driver = nil
	return err
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// readTx runs fn in a managed read transaction.
func readTx[T any](ctx context.Context, s *Store, op string, fn func(neo4j.ManagedTransaction) (T, error)) (T, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)
	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return fn(tx)
	})
	return finish[T](op, out, err)
}

// writeTx runs fn in a managed write transaction.
func writeTx[T any](ctx context.Context, s *Store, op string, fn func(neo4j.ManagedTransaction) (T, error)) (T, error) {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return fn(tx)
	})
	return finish[T](op, out, err)
}

// finish converts a transaction result. Errors raised by this package pass
// through; driver errors become BACKEND_UNAVAILABLE.
func finish[T any](op string, out any, err error) (T, error) {
	var zero T
	if err != nil {
		var ge *graph.Error
		if errors.As(err, &ge) {
			return zero, ge
		}
		return zero, graph.NewBackendError(op, err)
	}
	v, _ := out.(T)
	return v, nil
}
