package sexp

import (
	"github.com/wbthomason/egglog-go/internal/decl"
)

// EncodeProgram serializes an ordered command batch, one form per line.
// This is the unit handed to the engine per round-trip.
func EncodeProgram(decls *decl.Declarations, cmds []decl.Command) (string, error) {
	nodes := make([]Node, len(cmds))
	for i, c := range cmds {
		n, err := EncodeCommand(decls, c)
		if err != nil {
			return "", err
		}
		nodes[i] = n
	}
	return Join(nodes), nil
}

// EncodeCommand serializes one command.
func EncodeCommand(decls *decl.Declarations, c decl.Command) (Node, error) {
	switch cmd := c.(type) {
	case decl.SortCommand:
		out := List{Symbol("sort"), Symbol(cmd.Name)}
		if cmd.Arity > 0 {
			out = append(out, Keyword("arity"), Int(cmd.Arity))
		}
		return out, nil

	case decl.FunctionCommand:
		return encodeFunction(decls, cmd)

	case decl.RulesetCommand:
		return List{Symbol("ruleset"), Symbol(cmd.Name)}, nil

	case decl.RewriteCommand:
		return encodeRewrite(decls, "rewrite", cmd.Lhs, cmd.Rhs, cmd.Conditions, cmd.Ruleset)

	case decl.BiRewriteCommand:
		return encodeRewrite(decls, "birewrite", cmd.Lhs, cmd.Rhs, cmd.Conditions, cmd.Ruleset)

	case decl.RuleCommand:
		facts, err := encodeFacts(decls, cmd.Facts)
		if err != nil {
			return nil, err
		}
		actions, err := encodeActions(decls, cmd.Actions)
		if err != nil {
			return nil, err
		}
		out := List{Symbol("rule"), facts, actions}
		if cmd.Ruleset != "" {
			out = append(out, Keyword("ruleset"), Symbol(cmd.Ruleset))
		}
		if cmd.Name != "" {
			out = append(out, Keyword("name"), Str(cmd.Name))
		}
		return out, nil

	case decl.RunCommand:
		s, err := EncodeSchedule(decls, cmd.Schedule)
		if err != nil {
			return nil, err
		}
		return List{Symbol("run-schedule"), s}, nil

	case decl.PushCommand:
		return List{Symbol("push"), Int(1)}, nil

	case decl.PopCommand:
		return List{Symbol("pop"), Int(1)}, nil

	case decl.CheckCommand:
		return encodeCheck(decls, cmd.Facts)

	case decl.CheckFailCommand:
		inner, err := encodeCheck(decls, cmd.Facts)
		if err != nil {
			return nil, err
		}
		return List{Symbol("fail"), inner}, nil

	case decl.ExtractCommand:
		e, err := EncodeTerm(decls, cmd.Expr)
		if err != nil {
			return nil, err
		}
		out := List{Symbol("extract"), e}
		if cmd.Variants > 0 {
			out = append(out, Keyword("variants"), Int(cmd.Variants))
		}
		return out, nil

	case decl.SimplifyCommand:
		s, err := EncodeSchedule(decls, cmd.Schedule)
		if err != nil {
			return nil, err
		}
		e, err := EncodeTerm(decls, cmd.Expr)
		if err != nil {
			return nil, err
		}
		return List{Symbol("simplify"), s, e}, nil

	case decl.ActionCommand:
		return EncodeAction(decls, cmd.Action)

	default:
		return nil, errorf("unknown command %T", c)
	}
}

func encodeFunction(decls *decl.Declarations, cmd decl.FunctionCommand) (Node, error) {
	schema := List{}
	for _, at := range cmd.ArgTypes {
		t, err := encodeType(decls, at)
		if err != nil {
			return nil, err
		}
		schema = append(schema, t)
	}
	ret, err := encodeType(decls, cmd.ReturnType)
	if err != nil {
		return nil, err
	}
	out := List{Symbol("function"), Symbol(cmd.Name), schema, ret}
	if cmd.Cost != nil {
		out = append(out, Keyword("cost"), Int(*cmd.Cost))
	}
	if cmd.Default != nil {
		e, err := EncodeTerm(decls, cmd.Default)
		if err != nil {
			return nil, err
		}
		out = append(out, Keyword("default"), e)
	}
	if cmd.Merge != nil {
		e, err := EncodeTerm(decls, cmd.Merge)
		if err != nil {
			return nil, err
		}
		out = append(out, Keyword("merge"), e)
	}
	if len(cmd.MergeActions) > 0 {
		actions, err := encodeActions(decls, cmd.MergeActions)
		if err != nil {
			return nil, err
		}
		out = append(out, Keyword("on-merge"), actions)
	}
	return out, nil
}

// encodeType prints a resolved type under its engine-facing sort name.
func encodeType(decls *decl.Declarations, t decl.JustTypeRef) (Node, error) {
	name, err := decls.EngineSortName(t.Name)
	if err != nil {
		return nil, err
	}
	if len(t.Args) == 0 {
		return Symbol(name), nil
	}
	out := List{Symbol(name)}
	for _, a := range t.Args {
		n, err := encodeType(decls, a)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func encodeRewrite(decls *decl.Declarations, form string, lhs, rhs decl.ExprDecl, conds []decl.Fact, ruleset string) (Node, error) {
	l, err := EncodeTerm(decls, lhs)
	if err != nil {
		return nil, err
	}
	r, err := EncodeTerm(decls, rhs)
	if err != nil {
		return nil, err
	}
	out := List{Symbol(form), l, r}
	if len(conds) > 0 {
		facts, err := encodeFacts(decls, conds)
		if err != nil {
			return nil, err
		}
		out = append(out, Keyword("when"), facts)
	}
	if ruleset != "" {
		out = append(out, Keyword("ruleset"), Symbol(ruleset))
	}
	return out, nil
}

func encodeCheck(decls *decl.Declarations, facts []decl.Fact) (Node, error) {
	out := List{Symbol("check")}
	for _, f := range facts {
		n, err := EncodeFact(decls, f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// EncodeFact serializes one fact: `(= a b ...)` for equality, the bare
// relation term otherwise.
func EncodeFact(decls *decl.Declarations, f decl.Fact) (Node, error) {
	switch fact := f.(type) {
	case decl.EqFact:
		out := List{Symbol("=")}
		for _, e := range fact.Exprs {
			n, err := EncodeTerm(decls, e)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case decl.ExprFact:
		return EncodeTerm(decls, fact.Expr)
	default:
		return nil, errorf("unknown fact %T", f)
	}
}

func encodeFacts(decls *decl.Declarations, fs []decl.Fact) (Node, error) {
	out := List{}
	for _, f := range fs {
		n, err := EncodeFact(decls, f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// EncodeAction serializes one action.
func EncodeAction(decls *decl.Declarations, a decl.Action) (Node, error) {
	switch act := a.(type) {
	case decl.LetAction:
		e, err := EncodeTerm(decls, act.Expr)
		if err != nil {
			return nil, err
		}
		return List{Symbol("let"), Symbol(act.Name), e}, nil
	case decl.SetAction:
		call, err := EncodeTerm(decls, act.Call)
		if err != nil {
			return nil, err
		}
		e, err := EncodeTerm(decls, act.Expr)
		if err != nil {
			return nil, err
		}
		return List{Symbol("set"), call, e}, nil
	case decl.UnionAction:
		l, err := EncodeTerm(decls, act.Lhs)
		if err != nil {
			return nil, err
		}
		r, err := EncodeTerm(decls, act.Rhs)
		if err != nil {
			return nil, err
		}
		return List{Symbol("union"), l, r}, nil
	case decl.DeleteAction:
		call, err := EncodeTerm(decls, act.Call)
		if err != nil {
			return nil, err
		}
		return List{Symbol("delete"), call}, nil
	case decl.PanicAction:
		return List{Symbol("panic"), Str(act.Message)}, nil
	case decl.EvalAction:
		return EncodeTerm(decls, act.Expr)
	default:
		return nil, errorf("unknown action %T", a)
	}
}

func encodeActions(decls *decl.Declarations, as []decl.Action) (Node, error) {
	out := List{}
	for _, a := range as {
		n, err := EncodeAction(decls, a)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// EncodeSchedule serializes a schedule tree. Saturate and repeat pass
// through opaquely.
func EncodeSchedule(decls *decl.Declarations, s decl.Schedule) (Node, error) {
	switch sched := s.(type) {
	case decl.RunSchedule:
		out := List{Symbol("run")}
		if sched.Ruleset != "" {
			out = append(out, Symbol(sched.Ruleset))
		}
		out = append(out, Int(sched.Limit))
		if len(sched.Until) > 0 {
			facts, err := encodeFacts(decls, sched.Until)
			if err != nil {
				return nil, err
			}
			out = append(out, Keyword("until"), facts)
		}
		return out, nil
	case decl.SequenceSchedule:
		out := List{Symbol("seq")}
		for _, child := range sched.Schedules {
			n, err := EncodeSchedule(decls, child)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	case decl.SaturateSchedule:
		child, err := EncodeSchedule(decls, sched.Schedule)
		if err != nil {
			return nil, err
		}
		return List{Symbol("saturate"), child}, nil
	case decl.RepeatSchedule:
		child, err := EncodeSchedule(decls, sched.Schedule)
		if err != nil {
			return nil, err
		}
		return List{Symbol("repeat"), Int(sched.Times), child}, nil
	default:
		return nil, errorf("unknown schedule %T", s)
	}
}
