package egraph

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"github.com/google/uuid"

	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/dsl"
	"github.com/wbthomason/egglog-go/internal/expr"
	"github.com/wbthomason/egglog-go/internal/sexp"
)

// Engine is the transport to the external equality-saturation engine. One
// call sends an ordered command batch and returns the raw reply text. The
// context bounds the round-trip only; a running schedule cannot be
// interrupted mid-flight.
type Engine interface {
	RoundTrip(ctx context.Context, batch string) (string, error)
	Close() error
}

// Journal records every batch and reply for audit and replay. Implemented
// by the store package; a nil journal disables recording.
type Journal interface {
	Append(ctx context.Context, entry JournalEntry) error
}

// JournalEntry is one recorded round-trip.
type JournalEntry struct {
	SessionID string
	Seq       int
	Batch     string
	Reply     string
}

// Session owns a live engine handle and the registry describing what the
// engine has been told. It assumes a single owner; calls are synchronous
// blocking round-trips and concurrent use is unsupported.
type Session struct {
	id      uuid.UUID
	log     *slog.Logger
	engine  Engine
	journal Journal
	decls   *decl.Declarations

	// replayed names the modules whose commands the engine has already
	// seen. Each module replays at most once per scope; Pop forgets
	// modules replayed inside the scope along with their declarations.
	replayed map[string]bool

	stack []scope
	seq   int
}

// scope is the state snapshot taken by Push and restored by Pop.
type scope struct {
	decls    *decl.Declarations
	replayed map[string]bool
}

// SessionOption adjusts session construction.
type SessionOption func(*Session)

// WithLogger sets the session logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithJournal records every round-trip to the given journal.
func WithJournal(j Journal) SessionOption {
	return func(s *Session) { s.journal = j }
}

// NewSession composes the given modules, opens a session over the engine,
// and replays the composed command sequence as the first batch.
func NewSession(ctx context.Context, eng Engine, mods []*Module, opts ...SessionOption) (*Session, error) {
	decls, cmds, err := Compose(mods...)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:       uuid.Must(uuid.NewV7()),
		log:      slog.Default(),
		engine:   eng,
		decls:    decls,
		replayed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, m := range Flatten(mods...) {
		s.replayed[m.Name()] = true
	}
	if len(cmds) > 0 {
		if _, err := s.roundTrip(ctx, cmds); err != nil {
			return nil, fmt.Errorf("replaying composed modules: %w", err)
		}
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Decls returns the session's registry.
func (s *Session) Decls() *decl.Declarations { return s.decls }

// Builder returns an expression builder over the session's current
// registry. Rebuild after Pop, Use, or a registration; builders hold the
// snapshot they were created against.
func (s *Session) Builder() *expr.Builder { return expr.NewBuilder(s.decls) }

// Close releases the engine handle.
func (s *Session) Close() error { return s.engine.Close() }

// roundTrip serializes one command batch against the current registry,
// exchanges it with the engine, journals the exchange, and surfaces an
// engine-side error reply.
func (s *Session) roundTrip(ctx context.Context, cmds []decl.Command) ([]sexp.Node, error) {
	return s.roundTripWith(ctx, s.decls, cmds)
}

// roundTripWith is roundTrip encoding against an explicit registry.
// Registration paths stage their changes on a clone and commit only after
// the engine accepts the batch, so a rejected declaration never lands in
// s.decls.
func (s *Session) roundTripWith(ctx context.Context, decls *decl.Declarations, cmds []decl.Command) ([]sexp.Node, error) {
	batch, err := sexp.EncodeProgram(decls, cmds)
	if err != nil {
		return nil, err
	}
	reply, err := s.engine.RoundTrip(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("engine round-trip: %w", err)
	}
	s.seq++
	if s.journal != nil {
		entry := JournalEntry{SessionID: s.id.String(), Seq: s.seq, Batch: batch, Reply: reply}
		if err := s.journal.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("journaling round-trip %d: %w", s.seq, err)
		}
	}
	nodes, err := sexp.Parse(reply)
	if err != nil {
		return nil, err
	}
	s.log.DebugContext(ctx, "engine round-trip",
		"session", s.id, "seq", s.seq, "commands", len(cmds), "reply_forms", len(nodes))
	if err := replyError(nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// Register sends already-built commands, such as rewrites and rules from
// the dsl package, to the engine. Rulesets named by a rule or rewrite that
// the engine has not seen yet are declared first.
func (s *Session) Register(ctx context.Context, cmds ...decl.Command) error {
	staged := s.decls.Clone()
	batch, err := withRulesets(staged, cmds)
	if err != nil {
		return err
	}
	if _, err := s.roundTripWith(ctx, staged, batch); err != nil {
		return err
	}
	s.decls = staged
	return nil
}

// withRulesets prepends declarations for any ruleset a command names that
// is not registered in d yet.
func withRulesets(d *decl.Declarations, cmds []decl.Command) ([]decl.Command, error) {
	var out []decl.Command
	for _, c := range cmds {
		var ruleset string
		switch cmd := c.(type) {
		case decl.RewriteCommand:
			ruleset = cmd.Ruleset
		case decl.BiRewriteCommand:
			ruleset = cmd.Ruleset
		case decl.RuleCommand:
			ruleset = cmd.Ruleset
		}
		if ruleset != "" && !d.HasRuleset(ruleset) {
			rs, err := d.RegisterRuleset(ruleset)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
		}
		out = append(out, c)
	}
	return out, nil
}

// Use composes additional modules into the running session and replays
// their commands. A module the session has already replayed, whether at
// construction or through an earlier Use, is skipped rather than re-sent;
// declaration conflicts fail before anything is sent.
func (s *Session) Use(ctx context.Context, mods ...*Module) error {
	for _, m := range Flatten(mods...) {
		if s.replayed[m.Name()] {
			continue
		}
		staged := s.decls.Clone()
		if err := staged.MergeFrom(m.decls); err != nil {
			return err
		}
		if len(m.cmds) > 0 {
			if _, err := s.roundTripWith(ctx, staged, m.cmds); err != nil {
				return fmt.Errorf("replaying module %s: %w", m.Name(), err)
			}
		}
		s.decls = staged
		s.replayed[m.Name()] = true
	}
	return nil
}

// RegisterSort declares a sort in the session scope.
func (s *Session) RegisterSort(ctx context.Context, name string, typeParams int, engineName string) error {
	return s.apply(ctx, func(d *decl.Declarations) ([]decl.Command, error) {
		return d.RegisterSort(name, typeParams, engineName)
	})
}

// RegisterCallable declares a callable in the session scope.
func (s *Session) RegisterCallable(ctx context.Context, ref decl.CallableRef, fd *decl.FunctionDecl, engineName string) error {
	return s.apply(ctx, func(d *decl.Declarations) ([]decl.Command, error) {
		return d.RegisterCallable(ref, fd, engineName)
	})
}

// RegisterRuleset declares a named ruleset in the session scope.
func (s *Session) RegisterRuleset(ctx context.Context, name string) error {
	return s.apply(ctx, func(d *decl.Declarations) ([]decl.Command, error) {
		return d.RegisterRuleset(name)
	})
}

// apply stages one registration on a cloned registry and commits the clone
// only after the engine accepts the resulting commands.
func (s *Session) apply(ctx context.Context, register func(*decl.Declarations) ([]decl.Command, error)) error {
	staged := s.decls.Clone()
	cmds, err := register(staged)
	if err != nil {
		return err
	}
	if len(cmds) == 0 {
		return nil
	}
	if _, err := s.roundTripWith(ctx, staged, cmds); err != nil {
		return err
	}
	s.decls = staged
	return nil
}

// Run fires the named ruleset up to limit rounds, stopping early once all
// until facts hold. An empty ruleset names the global bucket.
func (s *Session) Run(ctx context.Context, ruleset string, limit int, until ...any) (RunReport, error) {
	sched, err := dsl.Run(ruleset, limit, until...)
	if err != nil {
		return RunReport{}, err
	}
	return s.RunSchedule(ctx, sched)
}

// RunSchedule executes a composed schedule and parses the run report.
func (s *Session) RunSchedule(ctx context.Context, sched decl.Schedule) (RunReport, error) {
	nodes, err := s.roundTrip(ctx, []decl.Command{decl.RunCommand{Schedule: sched}})
	if err != nil {
		return RunReport{}, err
	}
	return parseRunReport(nodes)
}

// Check asserts that all facts hold in the engine's current state.
func (s *Session) Check(ctx context.Context, facts ...any) error {
	fs, err := s.facts(facts)
	if err != nil {
		return err
	}
	_, err = s.roundTrip(ctx, []decl.Command{decl.CheckCommand{Facts: fs}})
	return err
}

// CheckFail asserts that at least one fact does not hold.
func (s *Session) CheckFail(ctx context.Context, facts ...any) error {
	fs, err := s.facts(facts)
	if err != nil {
		return err
	}
	_, err = s.roundTrip(ctx, []decl.Command{decl.CheckFailCommand{Facts: fs}})
	return err
}

func (s *Session) facts(vs []any) ([]decl.Fact, error) {
	out := make([]decl.Fact, len(vs))
	for i, v := range vs {
		f, err := dsl.FactLike(v)
		if err != nil {
			return nil, err
		}
		out[i] = f.Decl()
	}
	return out, nil
}

// Extract returns the minimum-cost representative of the term's
// equivalence class.
func (s *Session) Extract(ctx context.Context, e expr.Expr) (ExtractReport, error) {
	return s.extract(ctx, e, 0)
}

// ExtractMultiple returns the minimum-cost representative plus up to n
// variants.
func (s *Session) ExtractMultiple(ctx context.Context, e expr.Expr, n int) (ExtractReport, error) {
	return s.extract(ctx, e, n)
}

func (s *Session) extract(ctx context.Context, e expr.Expr, variants int) (ExtractReport, error) {
	cmd := decl.ExtractCommand{Expr: e.Decl(), Variants: variants}
	nodes, err := s.roundTrip(ctx, []decl.Command{cmd})
	if err != nil {
		return ExtractReport{}, err
	}
	return parseExtractReport(s.decls, nodes)
}

// Simplify runs a schedule and extracts the given term's minimum-cost
// representative afterwards.
func (s *Session) Simplify(ctx context.Context, e expr.Expr, sched decl.Schedule) (expr.Expr, error) {
	cmd := decl.SimplifyCommand{Schedule: sched, Expr: e.Decl()}
	nodes, err := s.roundTrip(ctx, []decl.Command{cmd})
	if err != nil {
		return expr.Expr{}, err
	}
	report, err := parseExtractReport(s.decls, nodes)
	if err != nil {
		return expr.Expr{}, err
	}
	return expr.FromTyped(report.Term), nil
}

// Let binds a name to a term in the engine and returns a handle naming it.
func (s *Session) Let(ctx context.Context, name string, e expr.Expr) (expr.Expr, error) {
	action := decl.LetAction{Name: name, Expr: e.Decl()}
	if _, err := s.roundTrip(ctx, []decl.Command{decl.ActionCommand{Action: action}}); err != nil {
		return expr.Expr{}, err
	}
	return s.Builder().Var(name, e.Type())
}

// Set writes the stored output value for a call in the engine. Conflicting
// writes resolve through the callable's merge function.
func (s *Session) Set(ctx context.Context, call, to expr.Expr) error {
	a, err := dsl.Set(call, to)
	if err != nil {
		return err
	}
	_, err = s.roundTrip(ctx, []decl.Command{decl.ActionCommand{Action: a.Decl()}})
	return err
}

// Union merges two terms' equivalence classes in the engine.
func (s *Session) Union(ctx context.Context, lhs, rhs expr.Expr) error {
	a, err := dsl.Union(lhs, rhs)
	if err != nil {
		return err
	}
	_, err = s.roundTrip(ctx, []decl.Command{decl.ActionCommand{Action: a.Decl()}})
	return err
}

// Eval inserts a term into the engine.
func (s *Session) Eval(ctx context.Context, e expr.Expr) error {
	a := dsl.Eval(e)
	_, err := s.roundTrip(ctx, []decl.Command{decl.ActionCommand{Action: a.Decl()}})
	return err
}

// Push snapshots the registry and replay set and asks the engine to
// checkpoint. Pops must match pushes in strict LIFO order.
func (s *Session) Push(ctx context.Context) error {
	snapshot := scope{decls: s.decls.Clone(), replayed: maps.Clone(s.replayed)}
	if _, err := s.roundTrip(ctx, []decl.Command{decl.PushCommand{}}); err != nil {
		return err
	}
	s.stack = append(s.stack, snapshot)
	return nil
}

// Pop restores the snapshot taken by the matching Push and asks the engine
// to roll back. Modules replayed inside the popped scope are forgotten and
// replay again on a later Use.
func (s *Session) Pop(ctx context.Context) error {
	if len(s.stack) == 0 {
		return &decl.Error{Code: decl.ErrCodeScopeStack, Message: "pop with no matching push"}
	}
	if _, err := s.roundTrip(ctx, []decl.Command{decl.PopCommand{}}); err != nil {
		return err
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.decls = top.decls
	s.replayed = top.replayed
	return nil
}
