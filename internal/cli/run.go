package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wbthomason/egglog-go/internal/config"
	"github.com/wbthomason/egglog-go/internal/egraph"
	"github.com/wbthomason/egglog-go/internal/engine"
	"github.com/wbthomason/egglog-go/internal/expr"
	"github.com/wbthomason/egglog-go/internal/program"
	"github.com/wbthomason/egglog-go/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Ruleset   string
	Limit     int
	Extract   string // term to extract after running (optional)
	Variants  int
	EngineBin string // overrides config
	Journal   string // overrides config
}

// RunResult holds the run outcome for output formatting.
type RunResult struct {
	Session  string   `json:"session"`
	Rounds   int      `json:"rounds"`
	Stop     string   `json:"stop"`
	Matches  int64    `json:"matches"`
	Applies  int64    `json:"applies"`
	Best     string   `json:"best,omitempty"`
	Cost     int64    `json:"cost,omitempty"`
	Variants []string `json:"variants,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Run a compiled program against the engine",
		Long: `Compile a CUE program, start the configured egglog engine process, run the
program's rules to saturation or the round limit, and report the result.

Every engine round trip is journaled to the configured SQLite database so the
session can be inspected later with "egglog replay". Setting journal_path to
an empty string in the config disables journaling.

Exit codes:
  0 - Run completed
  1 - Engine error during the run
  2 - Command error (bad program, engine failed to start)

Examples:
  egglog run ./programs/arith
  egglog run ./arith.cue --ruleset simplify --limit 50
  egglog run ./programs/arith --extract "(add (Num 1) (Num 2))" --variants 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ruleset, "ruleset", "", "ruleset to run (default: all rules)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum rounds (default: from config)")
	cmd.Flags().StringVar(&opts.Extract, "extract", "", "term to extract after the run")
	cmd.Flags().IntVar(&opts.Variants, "variants", 0, "number of extraction variants to request")
	cmd.Flags().StringVar(&opts.EngineBin, "engine", "", "engine binary (overrides config)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal database path (overrides config)")

	return cmd
}

func runProgram(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.EngineBin != "" {
		cfg.EngineBin = opts.EngineBin
	}
	if opts.Journal != "" {
		cfg.JournalPath = opts.Journal
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = cfg.RunLimit
	}

	log.Info("compiling program", "path", path)
	mod, err := loadProgram(path)
	if err != nil {
		_ = formatter.Error("COMPILE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to compile program", err)
	}
	log.Info("program compiled", "module", mod.Name(), "commands", len(mod.Commands()))

	// An empty journal path disables journaling for this run.
	var st *store.Store
	if cfg.JournalPath != "" {
		st, err = store.Open(cfg.JournalPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
	} else {
		log.Info("journaling disabled")
	}

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("starting engine", "bin", cfg.EngineBin, "args", cfg.EngineArgs)
	proc, err := engine.Start(ctx, cfg.EngineBin, cfg.EngineArgs, engine.WithProcessLogger(log))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}

	sessOpts := []egraph.SessionOption{egraph.WithLogger(log)}
	if st != nil {
		sessOpts = append(sessOpts, egraph.WithJournal(st))
	}
	sess, err := egraph.NewSession(ctx, proc, []*egraph.Module{mod}, sessOpts...)
	if err != nil {
		_ = proc.Close()
		return WrapExitError(ExitFailure, "failed to open session", err)
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			log.Error("error closing engine", "error", closeErr)
		}
	}()

	log.Info("session open", "session_id", sess.ID(), "ruleset", opts.Ruleset, "limit", limit)
	report, err := sess.Run(ctx, opts.Ruleset, limit)
	if err != nil {
		return WrapExitError(ExitFailure, "run failed", err)
	}

	result := RunResult{
		Session: sess.ID().String(),
		Rounds:  report.Rounds,
		Stop:    report.Stop,
		Matches: report.Matches,
		Applies: report.Applies,
	}

	if opts.Extract != "" {
		target, err := program.ParseTerm(sess.Decls(), opts.Extract, nil)
		if err != nil {
			return WrapExitError(ExitCommandError, "bad extract term", err)
		}
		extracted, err := sess.ExtractMultiple(ctx, target, opts.Variants)
		if err != nil {
			return WrapExitError(ExitFailure, "extraction failed", err)
		}
		result.Best = expr.FromTyped(extracted.Term).String()
		result.Cost = extracted.Cost
		for _, v := range extracted.Variants {
			result.Variants = append(result.Variants, expr.FromTyped(v).String())
		}
	}

	return writeRunResult(formatter, result)
}

func writeRunResult(f *OutputFormatter, result RunResult) error {
	if f.Format == "json" {
		return f.Success(result)
	}

	w := f.Writer
	fmt.Fprintf(w, "Session: %s\n", result.Session)
	fmt.Fprintf(w, "Rounds: %d (stop: %s)\n", result.Rounds, result.Stop)
	fmt.Fprintf(w, "Matches: %d, Applies: %d\n", result.Matches, result.Applies)
	if result.Best != "" {
		fmt.Fprintf(w, "Best: %s (cost %d)\n", result.Best, result.Cost)
		for _, v := range result.Variants {
			fmt.Fprintf(w, "  variant: %s\n", v)
		}
	}
	return nil
}
