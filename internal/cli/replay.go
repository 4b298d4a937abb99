package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wbthomason/egglog-go/internal/config"
	"github.com/wbthomason/egglog-go/internal/egraph"
	"github.com/wbthomason/egglog-go/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Journal string // overrides config
	Replies bool   // include engine replies in output
}

// ReplayEntry is one recorded round trip for JSON output.
type ReplayEntry struct {
	Seq   int    `json:"seq"`
	Batch string `json:"batch"`
	Reply string `json:"reply,omitempty"`
}

// ReplayResult holds the replayed session for JSON output.
type ReplayResult struct {
	Session string        `json:"session"`
	Entries []ReplayEntry `json:"entries"`
}

// SessionList holds the session listing for JSON output.
type SessionList struct {
	Sessions []string `json:"sessions"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [session-id]",
		Short: "Replay a journaled session",
		Long: `Replay the round trips recorded in the journal for a session, in order.

With no session ID, lists the recorded sessions (most recent first).

Exit codes:
  0 - Replay succeeded
  2 - Command error (journal not found, unknown session)

Examples:
  egglog replay
  egglog replay 018f3c2a-7b1d-7e90-b8f1-2a9c4d5e6f70
  egglog replay 018f3c2a-7b1d-7e90-b8f1-2a9c4d5e6f70 --replies`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListSessions(opts, cmd)
			}
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal database path (overrides config)")
	cmd.Flags().BoolVar(&opts.Replies, "replies", false, "include engine replies in output")

	return cmd
}

func (opts *ReplayOptions) openJournal() (*store.Store, error) {
	path := opts.Journal
	if path == "" {
		cfg, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, err
		}
		path = cfg.JournalPath
	}
	return store.Open(path)
}

func runListSessions(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := opts.openJournal()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	sessions, err := st.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(SessionList{Sessions: sessions})
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
		return nil
	}
	for _, id := range sessions {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runReplay(opts *ReplayOptions, sessionID string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := opts.openJournal()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	result := ReplayResult{Session: sessionID}
	err = st.Replay(ctx, sessionID, func(entry egraph.JournalEntry) error {
		e := ReplayEntry{Seq: entry.Seq, Batch: entry.Batch}
		if opts.Replies {
			e.Reply = entry.Reply
		}
		result.Entries = append(result.Entries, e)
		return nil
	})
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", sessionID), err)
	}
	if len(result.Entries) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no round trips recorded for session %s", sessionID))
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	for _, e := range result.Entries {
		fmt.Fprintf(w, ";; batch %d\n%s\n", e.Seq, e.Batch)
		if opts.Replies && e.Reply != "" {
			fmt.Fprintf(w, ";; reply %d\n%s\n", e.Seq, e.Reply)
		}
	}
	return nil
}
