package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/dsl"
	"github.com/wbthomason/egglog-go/internal/egraph"
	"github.com/wbthomason/egglog-go/internal/expr"
)

// ArithModule builds the shared arithmetic fixture: sort Num with an i64
// constructor, add over Num, and the commutativity rewrite for add.
func ArithModule(t *testing.T) *egraph.Module {
	t.Helper()

	m := egraph.NewModule("arith")
	require.NoError(t, m.Sort("Num", 0, ""))

	num := decl.JustTypeRef{Name: "Num"}
	i64 := decl.JustTypeRef{Name: decl.SortInt}

	require.NoError(t, m.RegisterCallable(
		decl.ClassMethodRef{Sort: "Num", Name: decl.InitMethod},
		&decl.FunctionDecl{ReturnType: num, ArgTypes: []decl.TypeRef{i64}},
		"Num",
	))
	require.NoError(t, m.Function("add", []decl.TypeRef{num, num}, num))

	b := m.Builder()
	a, err := b.Var("a", num)
	require.NoError(t, err)
	c, err := b.Var("b", num)
	require.NoError(t, err)
	lhs, err := b.Call(decl.FunctionRef{Name: "add"}, a, c)
	require.NoError(t, err)
	rhs, err := b.Call(decl.FunctionRef{Name: "add"}, c, a)
	require.NoError(t, err)
	commute, err := dsl.Rewrite(lhs).To(rhs)
	require.NoError(t, err)
	m.Register(commute)

	return m
}

// Num builds a Num constructor call over an i64 literal using the given
// builder.
func Num(t *testing.T, b *expr.Builder, v int64) expr.Expr {
	t.Helper()
	e, err := b.New("Num", v)
	require.NoError(t, err)
	return e
}
