package dsl

import (
	"strings"

	"github.com/google/uuid"

	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/expr"
)

// RewriteBuilder accumulates a one-directional rewrite. Obtain one with
// Rewrite, then finish with To.
type RewriteBuilder struct {
	lhs     expr.Expr
	ruleset string
}

// Rewrite starts a rewrite of the given left-hand side.
func Rewrite(lhs expr.Expr) *RewriteBuilder {
	return &RewriteBuilder{lhs: lhs}
}

// InRuleset assigns the rewrite to a named ruleset. The default is the
// unnamed global bucket.
func (b *RewriteBuilder) InRuleset(name string) *RewriteBuilder {
	b.ruleset = name
	return b
}

// To completes the rewrite. Conditions may be Facts or bare relation
// expressions. Both sides must share one sort, and every variable on the
// right-hand side must be bound on the left or in a condition.
func (b *RewriteBuilder) To(rhs expr.Expr, conditions ...any) (decl.Command, error) {
	lhs, conds, err := checkRewrite(b.lhs, rhs, conditions)
	if err != nil {
		return nil, err
	}
	return decl.RewriteCommand{
		Ruleset:    b.ruleset,
		Lhs:        lhs,
		Rhs:        rhs.Decl(),
		Conditions: conds,
	}, nil
}

// BirewriteBuilder accumulates a two-directional rewrite.
type BirewriteBuilder struct {
	lhs     expr.Expr
	ruleset string
}

// Birewrite starts a rewrite that fires in both directions.
func Birewrite(lhs expr.Expr) *BirewriteBuilder {
	return &BirewriteBuilder{lhs: lhs}
}

// InRuleset assigns the birewrite to a named ruleset.
func (b *BirewriteBuilder) InRuleset(name string) *BirewriteBuilder {
	b.ruleset = name
	return b
}

// To completes the birewrite. Both directions share the conditions, so
// each side's variables must be bound by the other side or a condition.
func (b *BirewriteBuilder) To(rhs expr.Expr, conditions ...any) (decl.Command, error) {
	_, conds, err := checkRewrite(b.lhs, rhs, conditions)
	if err != nil {
		return nil, err
	}
	if _, _, err := checkRewrite(rhs, b.lhs, conditions); err != nil {
		return nil, err
	}
	return decl.BiRewriteCommand{
		Ruleset:    b.ruleset,
		Lhs:        b.lhs.Decl(),
		Rhs:        rhs.Decl(),
		Conditions: conds,
	}, nil
}

func checkRewrite(lhs, rhs expr.Expr, conditions []any) (decl.ExprDecl, []decl.Fact, error) {
	if !lhs.Type().Equal(rhs.Type()) {
		return nil, nil, &decl.Error{
			Code:     decl.ErrCodeTypeMismatch,
			Message:  "rewrite sides must share one sort",
			Expected: lhs.Type().String(),
			Actual:   rhs.Type().String(),
		}
	}
	conds, err := factLikes(conditions)
	if err != nil {
		return nil, nil, err
	}

	bound := map[string]bool{}
	for _, v := range decl.Vars(lhs.Decl()) {
		bound[v] = true
	}
	condDecls := factDecls(conds)
	for _, c := range condDecls {
		factVars(c, bound)
	}
	for _, v := range decl.Vars(rhs.Decl()) {
		if !bound[v] {
			return nil, nil, &decl.Error{
				Code:    decl.ErrCodeUnboundVariable,
				Message: "variable " + v + " on the right-hand side is not bound by the left-hand side or a condition",
				Ref:     v,
			}
		}
	}
	return lhs.Decl(), condDecls, nil
}

// RuleBuilder accumulates a guarded production. Obtain one with Rule, then
// finish with Then.
type RuleBuilder struct {
	facts    []Fact
	name     string
	ruleset  string
	declared map[string]bool
}

// Rule starts a rule from match facts. Facts may be Facts or bare relation
// expressions.
func Rule(facts ...any) (*RuleBuilder, error) {
	fs, err := factLikes(facts)
	if err != nil {
		return nil, err
	}
	return &RuleBuilder{facts: fs, declared: map[string]bool{}}, nil
}

// Named gives the rule a stable name. Unnamed rules get a generated one.
func (b *RuleBuilder) Named(name string) *RuleBuilder {
	b.name = name
	return b
}

// InRuleset assigns the rule to a named ruleset.
func (b *RuleBuilder) InRuleset(name string) *RuleBuilder {
	b.ruleset = name
	return b
}

// Declare marks variables as explicitly declared with name and type, so
// actions may use them even when no fact binds them.
func (b *RuleBuilder) Declare(vars ...expr.Expr) *RuleBuilder {
	for _, v := range vars {
		if vd, ok := v.Decl().(decl.VarDecl); ok {
			b.declared[vd.Name] = true
		}
	}
	return b
}

// Then completes the rule. Actions may be Actions or bare expressions
// (evaluated for effect). Actions execute once per match in declared
// order; each Let binds a new name for the actions after it. A variable
// used in an action that no fact bound and no Declare covered fails with
// an unbound-variable error.
func (b *RuleBuilder) Then(actions ...any) (decl.Command, error) {
	as, err := actionLikes(actions)
	if err != nil {
		return nil, err
	}

	bound := map[string]bool{}
	for v := range b.declared {
		bound[v] = true
	}
	for _, f := range b.facts {
		factVars(f.Decl(), bound)
	}

	for _, a := range as {
		used := map[string]bool{}
		letName := actionVars(a.Decl(), used)
		for v := range used {
			if !bound[v] {
				return nil, &decl.Error{
					Code:    decl.ErrCodeUnboundVariable,
					Message: "variable " + v + " is not bound by a fact, an earlier let, or an explicit declaration",
					Ref:     v,
				}
			}
		}
		if letName != "" {
			bound[letName] = true
		}
	}

	name := b.name
	if name == "" {
		name = generatedRuleName()
	}
	return decl.RuleCommand{
		Ruleset: b.ruleset,
		Name:    name,
		Facts:   factDecls(b.facts),
		Actions: actionDecls(as),
	}, nil
}

// generatedRuleName names an anonymous rule. UUIDv7 keeps generated names
// unique and roughly ordered by creation time.
func generatedRuleName() string {
	return "rule-" + strings.Split(uuid.Must(uuid.NewV7()).String(), "-")[0]
}
