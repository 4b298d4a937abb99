package dsl

import (
	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/expr"
)

// Action is a built, type-checked action.
type Action struct {
	d decl.Action
}

// Decl returns the underlying action declaration.
func (a Action) Decl() decl.Action { return a.d }

// Let binds a name to a term for the rest of the action sequence.
func Let(name string, e expr.Expr) Action {
	return Action{d: decl.LetAction{Name: name, Expr: e.Decl()}}
}

// Set overwrites the stored value for an existing call's arguments. The
// target must be a call expression of the same sort as the new value.
func Set(call, to expr.Expr) (Action, error) {
	cd, err := asCall(call, "set")
	if err != nil {
		return Action{}, err
	}
	if !call.Type().Equal(to.Type()) {
		return Action{}, &decl.Error{
			Code:     decl.ErrCodeTypeMismatch,
			Message:  "set value must match the call's sort",
			Expected: call.Type().String(),
			Actual:   to.Type().String(),
		}
	}
	return Action{d: decl.SetAction{Call: cd, Expr: to.Decl()}}, nil
}

// Union merges two same-sort terms' equivalence classes.
func Union(lhs, rhs expr.Expr) (Action, error) {
	if !lhs.Type().Equal(rhs.Type()) {
		return Action{}, &decl.Error{
			Code:     decl.ErrCodeTypeMismatch,
			Message:  "union operands must share one sort",
			Expected: lhs.Type().String(),
			Actual:   rhs.Type().String(),
		}
	}
	return Action{d: decl.UnionAction{Lhs: lhs.Decl(), Rhs: rhs.Decl()}}, nil
}

// Delete retracts the stored value for a call.
func Delete(call expr.Expr) (Action, error) {
	cd, err := asCall(call, "delete")
	if err != nil {
		return Action{}, err
	}
	return Action{d: decl.DeleteAction{Call: cd}}, nil
}

// Panic aborts schedule execution with a message.
func Panic(message string) Action {
	return Action{d: decl.PanicAction{Message: message}}
}

// Eval inserts a term into the engine for its side effect.
func Eval(e expr.Expr) Action {
	return Action{d: decl.EvalAction{Expr: e.Decl()}}
}

// ActionLike converts a value to an Action: Actions pass through, bare
// expressions become Eval actions.
func ActionLike(v any) (Action, error) {
	switch a := v.(type) {
	case Action:
		return a, nil
	case expr.Expr:
		return Eval(a), nil
	default:
		return Action{}, decl.Errorf(decl.ErrCodeTypeMismatch,
			"cannot use %T as an action", v)
	}
}

func actionLikes(vs []any) ([]Action, error) {
	out := make([]Action, len(vs))
	for i, v := range vs {
		a, err := ActionLike(v)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func actionDecls(as []Action) []decl.Action {
	out := make([]decl.Action, len(as))
	for i, a := range as {
		out[i] = a.d
	}
	return out
}

func asCall(e expr.Expr, op string) (decl.CallDecl, error) {
	cd, ok := e.Decl().(decl.CallDecl)
	if !ok {
		return decl.CallDecl{}, decl.Errorf(decl.ErrCodeTypeMismatch,
			"%s requires a call expression, got %s", op, e.Decl())
	}
	return cd, nil
}

// actionVars collects the variables an action reads, and reports the name
// it binds (for Let) via the second return.
func actionVars(a decl.Action, into map[string]bool) string {
	add := func(e decl.ExprDecl) {
		for _, v := range decl.Vars(e) {
			into[v] = true
		}
	}
	switch d := a.(type) {
	case decl.LetAction:
		add(d.Expr)
		return d.Name
	case decl.SetAction:
		add(d.Call)
		add(d.Expr)
	case decl.UnionAction:
		add(d.Lhs)
		add(d.Rhs)
	case decl.DeleteAction:
		add(d.Call)
	case decl.EvalAction:
		add(d.Expr)
	}
	return ""
}
