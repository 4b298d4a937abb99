package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wbthomason/egglog-go/internal/egraph"
	"github.com/wbthomason/egglog-go/internal/program"
	"github.com/wbthomason/egglog-go/internal/sexp"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path (empty = stdout)
}

// CompileResult holds the compilation output for JSON format.
type CompileResult struct {
	Module   string `json:"module"`
	Commands string `json:"commands"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program>",
		Short: "Compile a CUE program to an engine command stream",
		Long: `Compile a CUE program (a file or a directory of .cue files) into the
s-expression command stream that would be sent to the egglog engine.

Exit codes:
  0 - Compilation succeeded
  2 - Compilation failed (malformed program, type errors)

Examples:
  egglog compile ./programs/arith
  egglog compile ./arith.cue --output arith.egg
  egglog compile ./programs/arith --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write command stream to file instead of stdout")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	mod, err := loadProgram(path)
	if err != nil {
		_ = formatter.Error("COMPILE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "compilation failed", err)
	}
	formatter.VerboseLog("compiled module %q (%d commands)", mod.Name(), len(mod.Commands()))

	decls, cmds, err := egraph.Compose(mod)
	if err != nil {
		_ = formatter.Error("COMPILE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "compilation failed", err)
	}

	stream, err := sexp.EncodeProgram(decls, cmds)
	if err != nil {
		_ = formatter.Error("COMPILE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "compilation failed", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(stream), 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		return formatter.Success(fmt.Sprintf("wrote %s", opts.Output))
	}

	if opts.Format == "json" {
		return formatter.Success(CompileResult{Module: mod.Name(), Commands: stream})
	}
	fmt.Fprint(cmd.OutOrStdout(), stream)
	return nil
}

// loadProgram loads a CUE program from a file or a directory.
func loadProgram(path string) (*egraph.Module, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return program.Load(path)
	}
	return program.LoadFile(path)
}
