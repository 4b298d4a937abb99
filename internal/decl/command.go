package decl

// Fact is a sealed interface over the two fact kinds used in rule bodies,
// rewrite conditions, until clauses, and checks.
type Fact interface {
	fact()
}

// EqFact asserts structural/engine equality of two or more terms.
type EqFact struct {
	Exprs []ExprDecl
}

func (EqFact) fact() {}

// ExprFact asserts a boolean-relation term.
type ExprFact struct {
	Expr ExprDecl
}

func (ExprFact) fact() {}

// FactEqual reports structural equality of two facts.
func FactEqual(a, b Fact) bool {
	switch x := a.(type) {
	case EqFact:
		y, ok := b.(EqFact)
		if !ok || len(x.Exprs) != len(y.Exprs) {
			return false
		}
		for i := range x.Exprs {
			if !ExprEqual(x.Exprs[i], y.Exprs[i]) {
				return false
			}
		}
		return true
	case ExprFact:
		y, ok := b.(ExprFact)
		return ok && ExprEqual(x.Expr, y.Expr)
	default:
		return false
	}
}

// Action is a sealed interface over rule and merge actions.
type Action interface {
	action()
}

// LetAction binds a name to a term for the rest of the action sequence.
type LetAction struct {
	Name string
	Expr ExprDecl
}

// SetAction overwrites the stored value for an existing call's arguments.
// Call must be a CallDecl; the expression layer enforces this before an
// action is built.
type SetAction struct {
	Call CallDecl
	Expr ExprDecl
}

// UnionAction merges two terms' equivalence classes.
type UnionAction struct {
	Lhs ExprDecl
	Rhs ExprDecl
}

// DeleteAction retracts the stored value for a call.
type DeleteAction struct {
	Call CallDecl
}

// PanicAction aborts schedule execution with a message.
type PanicAction struct {
	Message string
}

// EvalAction evaluates a term for its side effect of inserting it into the
// engine.
type EvalAction struct {
	Expr ExprDecl
}

func (LetAction) action()    {}
func (SetAction) action()    {}
func (UnionAction) action()  {}
func (DeleteAction) action() {}
func (PanicAction) action()  {}
func (EvalAction) action()   {}

// ActionEqual reports structural equality of two actions.
func ActionEqual(a, b Action) bool {
	switch x := a.(type) {
	case LetAction:
		y, ok := b.(LetAction)
		return ok && x.Name == y.Name && ExprEqual(x.Expr, y.Expr)
	case SetAction:
		y, ok := b.(SetAction)
		return ok && ExprEqual(x.Call, y.Call) && ExprEqual(x.Expr, y.Expr)
	case UnionAction:
		y, ok := b.(UnionAction)
		return ok && ExprEqual(x.Lhs, y.Lhs) && ExprEqual(x.Rhs, y.Rhs)
	case DeleteAction:
		y, ok := b.(DeleteAction)
		return ok && ExprEqual(x.Call, y.Call)
	case PanicAction:
		y, ok := b.(PanicAction)
		return ok && x.Message == y.Message
	case EvalAction:
		y, ok := b.(EvalAction)
		return ok && ExprEqual(x.Expr, y.Expr)
	default:
		return false
	}
}

// Schedule is a sealed composition tree over engine run configurations.
// SaturateSchedule and RepeatSchedule are engine-native combinators carried
// opaquely; this layer serializes them but never interprets them.
type Schedule interface {
	schedule()
}

// RunSchedule fires the named ruleset's match/apply step up to Limit
// rounds, stopping early once every Until fact holds. An empty Ruleset
// names the global bucket.
type RunSchedule struct {
	Ruleset string
	Limit   int
	Until   []Fact
}

// SequenceSchedule composes schedules sequentially.
type SequenceSchedule struct {
	Schedules []Schedule
}

// SaturateSchedule runs its child until it stops producing updates.
type SaturateSchedule struct {
	Schedule Schedule
}

// RepeatSchedule runs its child a fixed number of times.
type RepeatSchedule struct {
	Times    int
	Schedule Schedule
}

func (RunSchedule) schedule()      {}
func (SequenceSchedule) schedule() {}
func (SaturateSchedule) schedule() {}
func (RepeatSchedule) schedule()   {}

// Command is a sealed interface over the declarative command protocol sent
// to the engine. An ordered batch of commands is one round-trip unit.
type Command interface {
	command()
}

// SortCommand declares a sort under its engine-facing name.
type SortCommand struct {
	Name  string
	Arity int
}

// FunctionCommand declares a function under its engine-facing name. All
// schema types are fully resolved.
type FunctionCommand struct {
	Name         string
	ArgTypes     []JustTypeRef
	ReturnType   JustTypeRef
	Cost         *int64
	Default      ExprDecl
	Merge        ExprDecl
	MergeActions []Action
}

// RulesetCommand declares a named ruleset.
type RulesetCommand struct {
	Name string
}

// RewriteCommand is a one-directional guarded rewrite.
type RewriteCommand struct {
	Ruleset    string
	Lhs        ExprDecl
	Rhs        ExprDecl
	Conditions []Fact
}

// BiRewriteCommand is a rewrite in both directions sharing conditions.
type BiRewriteCommand struct {
	Ruleset    string
	Lhs        ExprDecl
	Rhs        ExprDecl
	Conditions []Fact
}

// RuleCommand is a guarded production: Facts form the match pattern,
// Actions execute once per match in declared order.
type RuleCommand struct {
	Ruleset string
	Name    string
	Facts   []Fact
	Actions []Action
}

// RunCommand executes a schedule.
type RunCommand struct {
	Schedule Schedule
}

// PushCommand checkpoints engine state.
type PushCommand struct{}

// PopCommand rolls engine state back to the matching checkpoint.
type PopCommand struct{}

// CheckCommand asserts that all facts hold.
type CheckCommand struct {
	Facts []Fact
}

// CheckFailCommand asserts that at least one fact does not hold.
type CheckFailCommand struct {
	Facts []Fact
}

// ExtractCommand requests the minimum-cost representative of a term's
// equivalence class, plus up to Variants alternates.
type ExtractCommand struct {
	Expr     ExprDecl
	Variants int
}

// SimplifyCommand runs a schedule and then extracts the given term.
type SimplifyCommand struct {
	Schedule Schedule
	Expr     ExprDecl
}

// ActionCommand lifts a top-level action (a let binding, a union, a bare
// eval) into the command stream.
type ActionCommand struct {
	Action Action
}

func (SortCommand) command()      {}
func (FunctionCommand) command()  {}
func (RulesetCommand) command()   {}
func (RewriteCommand) command()   {}
func (BiRewriteCommand) command() {}
func (RuleCommand) command()      {}
func (RunCommand) command()       {}
func (PushCommand) command()      {}
func (PopCommand) command()       {}
func (CheckCommand) command()     {}
func (CheckFailCommand) command() {}
func (ExtractCommand) command()   {}
func (SimplifyCommand) command()  {}
func (ActionCommand) command()    {}
