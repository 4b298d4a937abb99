// Package engine provides the process-backed transport to the external
// equality-saturation engine. The engine runs as a long-lived child process
// speaking a line-framed s-expression protocol over stdio.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/wbthomason/egglog-go/internal/decl"
)

// Framing sentinels. A batch ends with endOfBatch on its own line; a reply
// is zero or more report forms followed by endOfReply.
const (
	endOfBatch = "(end-of-batch)"
	endOfReply = "(end-of-reply)"
)

// Process is a live engine child process. It satisfies the session's Engine
// interface. Round-trips are strictly sequential; the process handle
// assumes a single owner.
type Process struct {
	log    *slog.Logger
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	// broken is set when a round-trip was abandoned mid-reply. The stream
	// position is unknown afterwards, so every later call fails.
	broken bool
}

// Option adjusts process start-up.
type Option func(*Process)

// WithProcessLogger sets the transport logger. Defaults to slog.Default.
func WithProcessLogger(l *slog.Logger) Option {
	return func(p *Process) { p.log = l }
}

// Start launches the engine binary and wires its stdio.
func Start(ctx context.Context, bin string, args []string, opts ...Option) (*Process, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("opening engine stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("opening engine stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting engine %s: %w", bin, err)
	}
	p := &Process{
		log:    slog.Default(),
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewScanner(stdout),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log.DebugContext(ctx, "engine started", "bin", bin, "pid", cmd.Process.Pid)
	return p, nil
}

// RoundTrip writes one command batch and reads the reply up to its
// sentinel. The context bounds the whole exchange; a deadline hit leaves
// the stream position unknown and the process unusable.
func (p *Process) RoundTrip(ctx context.Context, batch string) (string, error) {
	if p.broken {
		return "", decl.Errorf(decl.ErrCodeEngineProtocol, "engine stream is out of sync after an abandoned round-trip")
	}
	if err := p.write(batch); err != nil {
		p.broken = true
		return "", err
	}
	type result struct {
		reply string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		reply, err := p.readReply()
		done <- result{reply, err}
	}()
	select {
	case <-ctx.Done():
		p.broken = true
		return "", fmt.Errorf("engine round-trip: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			p.broken = true
		}
		return r.reply, r.err
	}
}

func (p *Process) write(batch string) error {
	var b strings.Builder
	b.WriteString(batch)
	if batch != "" && !strings.HasSuffix(batch, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(endOfBatch)
	b.WriteByte('\n')
	if _, err := io.WriteString(p.stdin, b.String()); err != nil {
		return fmt.Errorf("writing engine batch: %w", err)
	}
	return nil
}

func (p *Process) readReply() (string, error) {
	var lines []string
	for p.stdout.Scan() {
		line := p.stdout.Text()
		if strings.TrimSpace(line) == endOfReply {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
	if err := p.stdout.Err(); err != nil {
		return "", fmt.Errorf("reading engine reply: %w", err)
	}
	return "", decl.Errorf(decl.ErrCodeEngineProtocol, "engine closed its stream before the reply sentinel")
}

// Close shuts the engine down by closing its stdin and waiting for exit.
func (p *Process) Close() error {
	if err := p.stdin.Close(); err != nil {
		p.cmd.Process.Kill()
		p.cmd.Wait()
		return fmt.Errorf("closing engine stdin: %w", err)
	}
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("waiting for engine exit: %w", err)
	}
	return nil
}
