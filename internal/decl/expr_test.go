package decl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortForLit(t *testing.T) {
	tests := []struct {
		name string
		lit  LitValue
		want string
	}{
		{"int", IntLit(1), SortInt},
		{"float", FloatLit(1.5), SortFloat},
		{"string", StringLit("x"), SortString},
		{"bool", BoolLit(true), SortBool},
		{"unit", UnitLit{}, SortUnit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortForLit(tt.lit).Name)
		})
	}
}

func TestLitString(t *testing.T) {
	assert.Equal(t, "-3", IntLit(-3).String())
	assert.Equal(t, "1.5", FloatLit(1.5).String())
	assert.Equal(t, `"a b"`, StringLit("a b").String())
	assert.Equal(t, "true", BoolLit(true).String())
	assert.Equal(t, "false", BoolLit(false).String())
	assert.Equal(t, "()", UnitLit{}.String())
}

func TestExprEqual(t *testing.T) {
	add := FunctionRef{Name: "add"}
	a := CallDecl{Ref: add, Args: []ExprDecl{VarDecl{Name: "x"}, LitDecl{Value: IntLit(1)}}}
	b := CallDecl{Ref: add, Args: []ExprDecl{VarDecl{Name: "x"}, LitDecl{Value: IntLit(1)}}}
	c := CallDecl{Ref: add, Args: []ExprDecl{VarDecl{Name: "y"}, LitDecl{Value: IntLit(1)}}}

	assert.True(t, ExprEqual(a, b))
	assert.False(t, ExprEqual(a, c))
	assert.False(t, ExprEqual(a, VarDecl{Name: "x"}))
	// An int literal never equals a float literal of the same value.
	assert.False(t, ExprEqual(LitDecl{Value: IntLit(1)}, LitDecl{Value: FloatLit(1)}))
}

func TestVarsFirstOccurrenceOrder(t *testing.T) {
	add := FunctionRef{Name: "add"}
	e := CallDecl{Ref: add, Args: []ExprDecl{
		CallDecl{Ref: add, Args: []ExprDecl{VarDecl{Name: "b"}, VarDecl{Name: "a"}}},
		VarDecl{Name: "b"},
	}}
	assert.Equal(t, []string{"b", "a"}, Vars(e))
	assert.Empty(t, Vars(LitDecl{Value: IntLit(0)}))
}

func TestExprHash(t *testing.T) {
	add := FunctionRef{Name: "add"}
	a := CallDecl{Ref: add, Args: []ExprDecl{VarDecl{Name: "x"}, LitDecl{Value: IntLit(1)}}}
	b := CallDecl{Ref: add, Args: []ExprDecl{VarDecl{Name: "x"}, LitDecl{Value: IntLit(1)}}}
	c := CallDecl{Ref: add, Args: []ExprDecl{VarDecl{Name: "x"}, LitDecl{Value: IntLit(2)}}}

	assert.Equal(t, ExprHash(a), ExprHash(b))
	assert.NotEqual(t, ExprHash(a), ExprHash(c))

	// Int and float literals of the same numeric value hash differently.
	assert.NotEqual(t, ExprHash(LitDecl{Value: IntLit(1)}), ExprHash(LitDecl{Value: FloatLit(1)}))

	// The typed hash distinguishes the same term at different sorts.
	x := VarDecl{Name: "x"}
	assert.NotEqual(t,
		TypedExprHash(TypedExprDecl{Type: JustTypeRef{Name: SortInt}, Expr: x}),
		TypedExprHash(TypedExprDecl{Type: JustTypeRef{Name: SortFloat}, Expr: x}))
}
