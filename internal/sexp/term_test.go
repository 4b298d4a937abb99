package sexp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/expr"
)

func arithDecls(t *testing.T) *decl.Declarations {
	t.Helper()
	d := decl.New()
	_, err := d.RegisterSort("Num", 0, "")
	require.NoError(t, err)

	num := decl.JustTypeRef{Name: "Num"}
	i64 := decl.JustTypeRef{Name: decl.SortInt}
	_, err = d.RegisterCallable(
		decl.ClassMethodRef{Sort: "Num", Name: decl.InitMethod},
		&decl.FunctionDecl{ReturnType: num, ArgTypes: []decl.TypeRef{i64}},
		"Num",
	)
	require.NoError(t, err)
	_, err = d.RegisterCallable(
		decl.FunctionRef{Name: "add"},
		&decl.FunctionDecl{ReturnType: num, ArgTypes: []decl.TypeRef{num, num}},
		"",
	)
	require.NoError(t, err)
	return d
}

func TestEncodeTerm(t *testing.T) {
	d := arithDecls(t)
	b := expr.NewBuilder(d)

	one, err := b.New("Num", 1)
	require.NoError(t, err)
	x, err := b.Var("x", decl.JustTypeRef{Name: "Num"})
	require.NoError(t, err)
	sum, err := b.Call(decl.FunctionRef{Name: "add"}, one, x)
	require.NoError(t, err)

	n, err := EncodeTerm(d, sum.Decl())
	require.NoError(t, err)
	assert.Equal(t, "(add (Num 1) x)", n.String())
}

func TestEncodeTermLiterals(t *testing.T) {
	d := decl.New()
	b := expr.NewBuilder(d)

	tests := []struct {
		name string
		e    expr.Expr
		want string
	}{
		{"int", b.Int(-3), "-3"},
		{"float", b.Float(2), "2.0"},
		{"string", b.String("a b"), `"a b"`},
		{"bool", b.Bool(true), "true"},
		{"unit", b.Unit(), "()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := EncodeTerm(d, tt.e.Decl())
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestEncodeTermUnregistered(t *testing.T) {
	d := decl.New()

	_, err := EncodeTerm(d, decl.CallDecl{Ref: decl.FunctionRef{Name: "ghost"}})
	require.Error(t, err)
	assert.True(t, decl.IsNotFound(err))
}

func TestDecodeTermGround(t *testing.T) {
	d := arithDecls(t)
	b := expr.NewBuilder(d)

	one, err := b.New("Num", 1)
	require.NoError(t, err)
	two, err := b.New("Num", 2)
	require.NoError(t, err)
	want, err := b.Call(decl.FunctionRef{Name: "add"}, one, two)
	require.NoError(t, err)

	n, err := ParseOne("(add (Num 1) (Num 2))")
	require.NoError(t, err)
	got, err := DecodeTerm(d, n, nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(want.Typed()))
}

func TestDecodeTermVariables(t *testing.T) {
	d := arithDecls(t)

	n, err := ParseOne("(add x x)")
	require.NoError(t, err)

	// Free variables need declared types.
	_, err = DecodeTerm(d, n, nil)
	require.Error(t, err)
	assert.True(t, decl.IsEngineProtocolError(err))

	got, err := DecodeTerm(d, n, map[string]decl.JustTypeRef{"x": {Name: "Num"}})
	require.NoError(t, err)
	assert.Equal(t, "Num", got.Type.Name)
}

func TestDecodeTermSharedNe(t *testing.T) {
	d := arithDecls(t)

	// "!=" is shared across sorts; the first operand picks the method.
	n, err := ParseOne("(!= 1 2)")
	require.NoError(t, err)
	got, err := DecodeTerm(d, n, nil)
	require.NoError(t, err)
	assert.Equal(t, decl.SortUnit, got.Type.Name)

	call, ok := got.Expr.(decl.CallDecl)
	require.True(t, ok)
	assert.Equal(t, decl.MethodRef{Sort: decl.SortInt, Name: decl.NeMethod}, call.Ref)
}

func TestTermRoundTrip(t *testing.T) {
	d := arithDecls(t)
	b := expr.NewBuilder(d)

	one, err := b.New("Num", 1)
	require.NoError(t, err)
	inner, err := b.Call(decl.FunctionRef{Name: "add"}, one, one)
	require.NoError(t, err)
	outer, err := b.Call(decl.FunctionRef{Name: "add"}, inner, one)
	require.NoError(t, err)

	n, err := EncodeTerm(d, outer.Decl())
	require.NoError(t, err)
	parsed, err := ParseOne(n.String())
	require.NoError(t, err)
	back, err := DecodeTerm(d, parsed, nil)
	require.NoError(t, err)
	assert.True(t, back.Equal(outer.Typed()))
}

func TestDecodeTermUnknownHead(t *testing.T) {
	d := arithDecls(t)

	n, err := ParseOne("(ghost 1)")
	require.NoError(t, err)
	_, err = DecodeTerm(d, n, nil)
	require.Error(t, err)
	assert.True(t, decl.IsEngineProtocolError(err))
}
