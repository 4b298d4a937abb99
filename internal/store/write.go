package store

import (
	"context"
	"fmt"

	"github.com/wbthomason/egglog-go/internal/egraph"
)

// Append records one round-trip. Duplicate (session, seq) pairs are
// silently ignored so that re-running a journaled session is idempotent.
// Store satisfies the session's Journal interface.
func (s *Store) Append(ctx context.Context, entry egraph.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO round_trips (session_id, seq, batch, reply)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		entry.SessionID,
		entry.Seq,
		entry.Batch,
		entry.Reply,
	)
	if err != nil {
		return fmt.Errorf("append round-trip: %w", err)
	}

	return nil
}
