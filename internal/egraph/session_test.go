package egraph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/dsl"
)

// fakeEngine records batches and plays back scripted replies in order.
// Exhausted scripts reply with an empty batch acknowledgement.
type fakeEngine struct {
	batches []string
	replies []string
	closed  bool
}

func (e *fakeEngine) RoundTrip(_ context.Context, batch string) (string, error) {
	e.batches = append(e.batches, batch)
	if len(e.batches) <= len(e.replies) {
		return e.replies[len(e.batches)-1], nil
	}
	return "", nil
}

func (e *fakeEngine) Close() error {
	e.closed = true
	return nil
}

// memJournal collects entries in memory. failAt makes Append fail on a
// specific sequence number.
type memJournal struct {
	entries []JournalEntry
	failAt  int
}

func (j *memJournal) Append(_ context.Context, entry JournalEntry) error {
	if j.failAt != 0 && entry.Seq == j.failAt {
		return errors.New("journal full")
	}
	j.entries = append(j.entries, entry)
	return nil
}

func newTestSession(t *testing.T, eng *fakeEngine, opts ...SessionOption) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), eng, []*Module{numModule(t)}, opts...)
	require.NoError(t, err)
	return s
}

func TestNewSessionReplaysComposedModules(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)

	require.Len(t, eng.batches, 1)
	assert.Contains(t, eng.batches[0], "(sort Num)")
	assert.Contains(t, eng.batches[0], "(function add (Num Num) Num)")
	assert.True(t, s.Decls().HasSort("Num"))
	assert.NotEqual(t, "", s.ID().String())
}

func TestNewSessionEmptyModuleSendsNothing(t *testing.T) {
	eng := &fakeEngine{}
	_, err := NewSession(context.Background(), eng, []*Module{NewModule("empty")})
	require.NoError(t, err)
	assert.Empty(t, eng.batches)
}

func TestSessionRegisterDeclaresRulesets(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)
	ctx := context.Background()

	b := s.Builder()
	num := decl.JustTypeRef{Name: "Num"}
	vars, err := b.Vars(num, "x", "y")
	require.NoError(t, err)
	lhs, err := b.Call(decl.FunctionRef{Name: "add"}, vars[0], vars[1])
	require.NoError(t, err)
	rhs, err := b.Call(decl.FunctionRef{Name: "add"}, vars[1], vars[0])
	require.NoError(t, err)
	rw, err := dsl.Rewrite(lhs).InRuleset("opt").To(rhs)
	require.NoError(t, err)

	require.NoError(t, s.Register(ctx, rw))
	batch := eng.batches[len(eng.batches)-1]
	assert.Contains(t, batch, "(ruleset opt)\n(rewrite (add x y) (add y x) :ruleset opt)")
	assert.True(t, s.Decls().HasRuleset("opt"))

	// A second rewrite in the same ruleset needs no declaration.
	require.NoError(t, s.Register(ctx, rw))
	batch = eng.batches[len(eng.batches)-1]
	assert.NotContains(t, batch, "(ruleset opt)\n")
}

func TestSessionRun(t *testing.T) {
	eng := &fakeEngine{replies: []string{
		"",
		"(run-report :rounds 2 :stop saturated :matches 5 :applies 3)",
	}}
	s := newTestSession(t, eng)

	report, err := s.Run(context.Background(), "opt", 10)
	require.NoError(t, err)
	assert.Equal(t, RunReport{Rounds: 2, Stop: "saturated", Matches: 5, Applies: 3}, report)
	assert.Equal(t, "(run-schedule (run opt 10))", eng.batches[1])
}

func TestSessionCheckAndCheckFail(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)
	ctx := context.Background()

	b := s.Builder()
	one, err := b.New("Num", 1)
	require.NoError(t, err)
	two, err := b.New("Num", 2)
	require.NoError(t, err)
	eq, err := dsl.Eq(one, two)
	require.NoError(t, err)

	require.NoError(t, s.Check(ctx, eq))
	assert.Equal(t, "(check (= (Num 1) (Num 2)))", eng.batches[len(eng.batches)-1])

	require.NoError(t, s.CheckFail(ctx, eq))
	assert.Equal(t, "(fail (check (= (Num 1) (Num 2))))", eng.batches[len(eng.batches)-1])
}

func TestSessionCheckEngineError(t *testing.T) {
	eng := &fakeEngine{replies: []string{"", `(error "check failed")`}}
	s := newTestSession(t, eng)

	b := s.Builder()
	one, err := b.New("Num", 1)
	require.NoError(t, err)
	two, err := b.New("Num", 2)
	require.NoError(t, err)
	eq, err := dsl.Eq(one, two)
	require.NoError(t, err)

	err = s.Check(context.Background(), eq)
	require.Error(t, err)
	assert.True(t, decl.IsEngineRuntimeError(err))
}

func TestSessionExtract(t *testing.T) {
	eng := &fakeEngine{replies: []string{
		"",
		"(extract-report :cost 1 :term (Num 1) :variants ((Num 1)))",
	}}
	s := newTestSession(t, eng)

	b := s.Builder()
	sum, err := b.Call(decl.FunctionRef{Name: "add"}, mustNum(t, s, 1), mustNum(t, s, 1))
	require.NoError(t, err)

	report, err := s.ExtractMultiple(context.Background(), sum, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Cost)
	assert.Equal(t, "(extract (add (Num 1) (Num 1)) :variants 2)", eng.batches[1])
	require.Len(t, report.Variants, 1)
}

func mustNum(t *testing.T, s *Session, v int64) any {
	t.Helper()
	e, err := s.Builder().New("Num", v)
	require.NoError(t, err)
	return e
}

func TestSessionSimplify(t *testing.T) {
	eng := &fakeEngine{replies: []string{
		"",
		"(extract-report :cost 1 :term (Num 2))",
	}}
	s := newTestSession(t, eng)

	b := s.Builder()
	sum, err := b.Call(decl.FunctionRef{Name: "add"}, mustNum(t, s, 1), mustNum(t, s, 1))
	require.NoError(t, err)
	sched, err := dsl.Run("", 5)
	require.NoError(t, err)

	simplified, err := s.Simplify(context.Background(), sum, sched)
	require.NoError(t, err)
	assert.Equal(t, "(simplify (run 5) (add (Num 1) (Num 1)))", eng.batches[1])
	assert.Equal(t, "Num", simplified.Type().Name)
}

func TestSessionLet(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)

	b := s.Builder()
	one, err := b.New("Num", 1)
	require.NoError(t, err)

	handle, err := s.Let(context.Background(), "v", one)
	require.NoError(t, err)
	assert.Equal(t, "(let v (Num 1))", eng.batches[1])
	assert.Equal(t, decl.VarDecl{Name: "v"}, handle.Decl())
	assert.Equal(t, "Num", handle.Type().Name)
}

func TestSessionPushPopRestoresRegistry(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)
	ctx := context.Background()

	require.NoError(t, s.Push(ctx))
	assert.Equal(t, "(push 1)", eng.batches[len(eng.batches)-1])

	require.NoError(t, s.RegisterSort(ctx, "Scoped", 0, ""))
	assert.True(t, s.Decls().HasSort("Scoped"))

	require.NoError(t, s.Pop(ctx))
	assert.Equal(t, "(pop 1)", eng.batches[len(eng.batches)-1])
	assert.False(t, s.Decls().HasSort("Scoped"))
	assert.True(t, s.Decls().HasSort("Num"))
}

func TestSessionPopWithoutPush(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)

	err := s.Pop(context.Background())
	require.Error(t, err)
	assert.True(t, decl.IsScopeStackError(err))
	// Nothing was sent for the failed pop.
	assert.Len(t, eng.batches, 1)
}

func TestSessionPushFailureKeepsStack(t *testing.T) {
	eng := &fakeEngine{replies: []string{"", `(error "out of memory")`}}
	s := newTestSession(t, eng)
	ctx := context.Background()

	err := s.Push(ctx)
	require.Error(t, err)

	// The failed push left no snapshot behind.
	err = s.Pop(ctx)
	require.Error(t, err)
	assert.True(t, decl.IsScopeStackError(err))
}

func TestSessionUse(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)
	ctx := context.Background()

	extra := NewModule("extra")
	require.NoError(t, extra.Sort("Str2", 0, ""))

	require.NoError(t, s.Use(ctx, extra))
	assert.True(t, s.Decls().HasSort("Str2"))
	assert.Equal(t, "(sort Str2)", eng.batches[len(eng.batches)-1])
}

func TestSessionUseComposedModuleOnce(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)

	// The session already replayed this module at construction; a second
	// Use must not re-send its declarations.
	require.NoError(t, s.Use(context.Background(), numModule(t)))
	assert.Len(t, eng.batches, 1)
}

func TestSessionUseSharedDependencyOnce(t *testing.T) {
	eng := &fakeEngine{}
	base := numModule(t)
	s, err := NewSession(context.Background(), eng, []*Module{base})
	require.NoError(t, err)
	ctx := context.Background()

	ops := NewModule("ops", base)
	require.NoError(t, ops.Sort("Vec2", 0, ""))

	// Only the new module's commands are sent; the shared dependency was
	// already replayed at construction.
	require.NoError(t, s.Use(ctx, ops))
	require.Len(t, eng.batches, 2)
	assert.Equal(t, "(sort Vec2)", eng.batches[1])

	// Using the module again replays nothing.
	require.NoError(t, s.Use(ctx, ops))
	assert.Len(t, eng.batches, 2)
}

func TestSessionUseReplaysAgainAfterPop(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)
	ctx := context.Background()

	extra := NewModule("extra")
	require.NoError(t, extra.Sort("Str2", 0, ""))

	require.NoError(t, s.Push(ctx))
	require.NoError(t, s.Use(ctx, extra))
	require.NoError(t, s.Pop(ctx))
	assert.False(t, s.Decls().HasSort("Str2"))

	// The pop rolled the engine back, so the module replays once more.
	require.NoError(t, s.Use(ctx, extra))
	assert.Equal(t, "(sort Str2)", eng.batches[len(eng.batches)-1])
	assert.True(t, s.Decls().HasSort("Str2"))
}

func TestSessionUseConflict(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)

	clash := NewModule("clash")
	require.NoError(t, clash.Sort("Num", 1, ""))

	err := s.Use(context.Background(), clash)
	require.Error(t, err)
	assert.True(t, decl.IsDeclarationError(err))
	// The conflict was detected before anything was sent.
	assert.Len(t, eng.batches, 1)
}

func TestSessionJournal(t *testing.T) {
	j := &memJournal{}
	eng := &fakeEngine{replies: []string{"", "(run-report :rounds 1 :stop limit :matches 0 :applies 0)"}}
	s := newTestSession(t, eng, WithJournal(j))

	_, err := s.Run(context.Background(), "", 1)
	require.NoError(t, err)

	require.Len(t, j.entries, 2)
	assert.Equal(t, s.ID().String(), j.entries[0].SessionID)
	assert.Equal(t, 1, j.entries[0].Seq)
	assert.Equal(t, 2, j.entries[1].Seq)
	assert.Contains(t, j.entries[1].Batch, "run-schedule")
	assert.Contains(t, j.entries[1].Reply, "run-report")
}

func TestSessionJournalFailurePropagates(t *testing.T) {
	j := &memJournal{failAt: 2}
	eng := &fakeEngine{}
	s := newTestSession(t, eng, WithJournal(j))

	_, err := s.Run(context.Background(), "", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal")
}

func TestSessionSet(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)

	b := s.Builder()
	sum, err := b.Call(decl.FunctionRef{Name: "add"}, mustNum(t, s, 1), mustNum(t, s, 2))
	require.NoError(t, err)
	three, err := b.New("Num", 3)
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), sum, three))
	assert.Equal(t, "(set (add (Num 1) (Num 2)) (Num 3))", eng.batches[1])
}

func TestSessionSetTypeMismatch(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)

	b := s.Builder()
	sum, err := b.Call(decl.FunctionRef{Name: "add"}, mustNum(t, s, 1), mustNum(t, s, 2))
	require.NoError(t, err)
	err = s.Set(context.Background(), sum, b.Int(3))
	require.Error(t, err)
	assert.True(t, decl.IsTypeMismatch(err))
	assert.Len(t, eng.batches, 1)
}

func TestSessionRegisterSortEngineErrorLeavesRegistry(t *testing.T) {
	eng := &fakeEngine{replies: []string{"", `(error "sort exists")`}}
	s := newTestSession(t, eng)

	err := s.RegisterSort(context.Background(), "Scoped", 0, "")
	require.Error(t, err)
	assert.True(t, decl.IsEngineRuntimeError(err))
	// The rejected declaration did not land in the registry.
	assert.False(t, s.Decls().HasSort("Scoped"))
}

func TestSessionRegisterEngineErrorLeavesRegistry(t *testing.T) {
	eng := &fakeEngine{replies: []string{"", `(error "bad rule")`}}
	s := newTestSession(t, eng)

	b := s.Builder()
	num := decl.JustTypeRef{Name: "Num"}
	vars, err := b.Vars(num, "x", "y")
	require.NoError(t, err)
	lhs, err := b.Call(decl.FunctionRef{Name: "add"}, vars[0], vars[1])
	require.NoError(t, err)
	rhs, err := b.Call(decl.FunctionRef{Name: "add"}, vars[1], vars[0])
	require.NoError(t, err)
	rw, err := dsl.Rewrite(lhs).InRuleset("opt").To(rhs)
	require.NoError(t, err)

	err = s.Register(context.Background(), rw)
	require.Error(t, err)
	assert.False(t, s.Decls().HasRuleset("opt"))
}

func TestSessionRegistrationNoopSendsNothing(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)
	ctx := context.Background()

	sent := len(eng.batches)
	// Num is already declared by the composed module.
	require.NoError(t, s.RegisterSort(ctx, "Num", 0, ""))
	assert.Len(t, eng.batches, sent)
}

func TestSessionClose(t *testing.T) {
	eng := &fakeEngine{}
	s := newTestSession(t, eng)
	require.NoError(t, s.Close())
	assert.True(t, eng.closed)
}
