// Package testutil provides shared test doubles for the session layer.
package testutil

import (
	"context"

	"github.com/wbthomason/egglog-go/internal/decl"
)

// ScriptedEngine replays a fixed list of replies and records every batch it
// receives.
//
// This enables deterministic session tests and golden snapshot comparison:
// the same command sequence against the same script produces byte-identical
// batches. Replies are consumed in order; once the script is exhausted,
// further round-trips reply with an empty report list, which satisfies
// commands that expect no report.
//
// Thread-safety: none. Sessions are single-owner and so is the script.
type ScriptedEngine struct {
	// Batches records every batch sent, in order.
	Batches []string

	// Replies are returned one per round-trip. Entries are raw report
	// forms without the transport sentinel.
	Replies []string

	// Closed reports whether Close was called.
	Closed bool

	next int
}

// Script creates an engine replying with the given report texts in order.
func Script(replies ...string) *ScriptedEngine {
	return &ScriptedEngine{Replies: replies}
}

// RoundTrip records the batch and returns the next scripted reply.
func (e *ScriptedEngine) RoundTrip(_ context.Context, batch string) (string, error) {
	if e.Closed {
		return "", decl.Errorf(decl.ErrCodeEngineProtocol, "round-trip on a closed engine")
	}
	e.Batches = append(e.Batches, batch)
	if e.next >= len(e.Replies) {
		return "", nil
	}
	reply := e.Replies[e.next]
	e.next++
	return reply, nil
}

// Close marks the engine closed.
func (e *ScriptedEngine) Close() error {
	e.Closed = true
	return nil
}
