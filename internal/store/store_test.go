package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbthomason/egglog-go/internal/egraph"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := newTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), egraph.JournalEntry{
		SessionID: "s1", Seq: 1, Batch: "(sort Num)", Reply: "",
	}))
	require.NoError(t, s.Close())

	// Reopening applies pragmas and schema again without losing data.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	ids, err := s.Sessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "journal.db"))
	require.Error(t, err)
}

func TestAppendAndReplay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []egraph.JournalEntry{
		{SessionID: "s1", Seq: 1, Batch: "(sort Num)", Reply: ""},
		{SessionID: "s1", Seq: 2, Batch: "(run-schedule (run 1))", Reply: "(run-report :rounds 1 :stop limit :matches 0 :applies 0)"},
	}
	for _, e := range entries {
		require.NoError(t, s.Append(ctx, e))
	}

	var got []egraph.JournalEntry
	err := s.Replay(ctx, "s1", func(e egraph.JournalEntry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestAppendDuplicateSeqIgnored(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := egraph.JournalEntry{SessionID: "s1", Seq: 1, Batch: "(sort Num)", Reply: ""}
	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, egraph.JournalEntry{
		SessionID: "s1", Seq: 1, Batch: "(sort Other)", Reply: "",
	}))

	var got []egraph.JournalEntry
	require.NoError(t, s.Replay(ctx, "s1", func(e egraph.JournalEntry) error {
		got = append(got, e)
		return nil
	}))
	require.Equal(t, []egraph.JournalEntry{first}, got)
}

func TestReplayOrdersBySeq(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Appended out of order; replay sorts by sequence.
	require.NoError(t, s.Append(ctx, egraph.JournalEntry{SessionID: "s1", Seq: 3, Batch: "c"}))
	require.NoError(t, s.Append(ctx, egraph.JournalEntry{SessionID: "s1", Seq: 1, Batch: "a"}))
	require.NoError(t, s.Append(ctx, egraph.JournalEntry{SessionID: "s1", Seq: 2, Batch: "b"}))

	var batches []string
	require.NoError(t, s.Replay(ctx, "s1", func(e egraph.JournalEntry) error {
		batches = append(batches, e.Batch)
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c"}, batches)
}

func TestReplayUnknownSession(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	err := s.Replay(context.Background(), "missing", func(egraph.JournalEntry) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestReplayStopsOnCallbackError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, egraph.JournalEntry{SessionID: "s1", Seq: 1, Batch: "a"}))
	require.NoError(t, s.Append(ctx, egraph.JournalEntry{SessionID: "s1", Seq: 2, Batch: "b"}))

	calls := 0
	err := s.Replay(ctx, "s1", func(egraph.JournalEntry) error {
		calls++
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestSessionsIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, egraph.JournalEntry{SessionID: "s1", Seq: 1, Batch: "a"}))
	require.NoError(t, s.Append(ctx, egraph.JournalEntry{SessionID: "s2", Seq: 1, Batch: "b"}))

	var batches []string
	require.NoError(t, s.Replay(ctx, "s2", func(e egraph.JournalEntry) error {
		batches = append(batches, e.Batch)
		return nil
	}))
	assert.Equal(t, []string{"b"}, batches)
}

func TestSessionsEmpty(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCloseNil(t *testing.T) {
	var s Store
	assert.NoError(t, s.Close())
}
