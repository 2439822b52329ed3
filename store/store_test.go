package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// Integration tests below talk to a real Postgres instance named by
// LATTICEFLOW_TEST_DATABASE_URL; they skip rather than fail when it isn't
// set, since this package has no in-pack sqlmock-style fake to substitute.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LATTICEFLOW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LATTICEFLOW_TEST_DATABASE_URL not set, skipping Postgres-backed store test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	sum := Summary{ReachableMethods: 12, PFGEdges: 34, PointsToPairs: 56, TaintFlows: 2}
	runID, err := s.Save(ctx, "round-trip", sum)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if runID == "" {
		t.Fatalf("expected a non-empty generated run id")
	}

	got, err := s.Load(ctx, "round-trip")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunID != runID || got.ReachableMethods != 12 || got.PFGEdges != 34 || got.PointsToPairs != 56 || got.TaintFlows != 2 {
		t.Fatalf("unexpected summary after round trip: %+v", got)
	}
}

func TestSaveOverwritesSameName(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, "overwrite-me", Summary{ReachableMethods: 1}); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	secondID, err := s.Save(ctx, "overwrite-me", Summary{ReachableMethods: 2})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load(ctx, "overwrite-me")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RunID != secondID || got.ReachableMethods != 2 {
		t.Fatalf("expected the second save to overwrite the first, got %+v", got)
	}
}

func TestLoadMissingNameReturnsErrNotFound(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "no-such-run-12345")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
