package store

import (
	"context"
	"fmt"

	"github.com/wbthomason/egglog-go/internal/egraph"
)

// Sessions lists the distinct session IDs in the journal, most recent
// first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id FROM round_trips
		GROUP BY session_id
		ORDER BY MAX(recorded_at) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// Replay streams a session's round-trips in sequence order to fn. Replay
// stops at the first error fn returns.
func (s *Store) Replay(ctx context.Context, sessionID string, fn func(egraph.JournalEntry) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, batch, reply
		FROM round_trips
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return fmt.Errorf("replay session %s: %w", sessionID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry egraph.JournalEntry
		if err := rows.Scan(&entry.SessionID, &entry.Seq, &entry.Batch, &entry.Reply); err != nil {
			return fmt.Errorf("replay session %s: %w", sessionID, err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("replay session %s: %w", sessionID, err)
	}
	return nil
}
