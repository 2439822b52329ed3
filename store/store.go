// Package store persists pointer-analysis run summaries in Postgres, the
// concrete backing for AnalysisOptions.PointerAnalysisResult. It never
// touches the points-to sets themselves — those live only in the
// pta or pta/cs solver that produced them for the run that asked — just the
// headline shape of a run, keyed by a human-chosen name.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned by Load when no run has been saved under the
// requested name.
var ErrNotFound = errors.New("store: run not found")

// Summary is the persisted shape of one pointer-analysis run.
type Summary struct {
	RunID            string
	Name             string
	CreatedAt        time.Time
	ReachableMethods int
	PFGEdges         int
	PointsToPairs    int
	TaintFlows       int
}

// Store persists Summary rows in Postgres via lib/pq.
type Store struct {
	db *sql.DB
}

// Open connects to dsn (a postgres:// URL) and verifies the connection
// before returning.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS pointer_analysis_runs (
	run_id            uuid PRIMARY KEY,
	name              text NOT NULL UNIQUE,
	created_at        timestamptz NOT NULL,
	reachable_methods integer NOT NULL,
	pfg_edges         integer NOT NULL,
	points_to_pairs   integer NOT NULL,
	taint_flows       integer NOT NULL
)`

// EnsureSchema creates the backing table if it doesn't already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

const saveStmt = `
INSERT INTO pointer_analysis_runs
	(run_id, name, created_at, reachable_methods, pfg_edges, points_to_pairs, taint_flows)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (name) DO UPDATE SET
	run_id            = EXCLUDED.run_id,
	created_at        = EXCLUDED.created_at,
	reachable_methods = EXCLUDED.reachable_methods,
	pfg_edges         = EXCLUDED.pfg_edges,
	points_to_pairs   = EXCLUDED.points_to_pairs,
	taint_flows       = EXCLUDED.taint_flows`

// Save inserts sum under name with a freshly minted run id, overwriting any
// prior row with the same name rather than accumulating stale history.
func (s *Store) Save(ctx context.Context, name string, sum Summary) (runID string, err error) {
	sum.RunID = uuid.New().String()
	sum.Name = name
	sum.CreatedAt = time.Now()

	if _, err := s.db.ExecContext(ctx, saveStmt,
		sum.RunID, sum.Name, sum.CreatedAt,
		sum.ReachableMethods, sum.PFGEdges, sum.PointsToPairs, sum.TaintFlows,
	); err != nil {
		return "", fmt.Errorf("store: save %q: %w", name, err)
	}
	return sum.RunID, nil
}

const loadQuery = `
SELECT run_id, name, created_at, reachable_methods, pfg_edges, points_to_pairs, taint_flows
FROM pointer_analysis_runs WHERE name = $1`

// Load fetches the summary previously saved under name.
func (s *Store) Load(ctx context.Context, name string) (*Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, loadQuery, name).Scan(
		&sum.RunID, &sum.Name, &sum.CreatedAt,
		&sum.ReachableMethods, &sum.PFGEdges, &sum.PointsToPairs, &sum.TaintFlows,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %q: %w", name, err)
	}
	return &sum, nil
}
