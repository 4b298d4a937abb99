package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbthomason/egglog-go/internal/decl"
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

func TestLiterals(t *testing.T) {
	b := NewBuilder(decl.New())

	assert.Equal(t, decl.SortInt, b.Int(3).Type().Name)
	assert.Equal(t, decl.SortFloat, b.Float(1.5).Type().Name)
	assert.Equal(t, decl.SortString, b.String("x").Type().Name)
	assert.Equal(t, decl.SortBool, b.Bool(true).Type().Name)
	assert.Equal(t, decl.SortUnit, b.Unit().Type().Name)
	assert.True(t, b.Unit().IsRelation())
	assert.False(t, b.Int(3).IsRelation())
}

func TestLift(t *testing.T) {
	b := NewBuilder(decl.New())

	e, err := b.Lift(7)
	require.NoError(t, err)
	assert.Equal(t, decl.SortInt, e.Type().Name)

	e, err = b.Lift("s")
	require.NoError(t, err)
	assert.Equal(t, decl.SortString, e.Type().Name)

	// An Expr passes through unchanged.
	orig := b.Float(2.5)
	e, err = b.Lift(orig)
	require.NoError(t, err)
	assert.True(t, e.Typed().Equal(orig.Typed()))

	_, err = b.Lift(struct{}{})
	require.Error(t, err)
	assert.True(t, decl.IsTypeMismatch(err))
}

func TestVarRequiresSort(t *testing.T) {
	b := NewBuilder(decl.New())

	_, err := b.Var("x", decl.JustTypeRef{Name: "Missing"})
	require.Error(t, err)
	assert.True(t, decl.IsNotFound(err))

	v, err := b.Var("x", decl.JustTypeRef{Name: decl.SortInt})
	require.NoError(t, err)
	assert.Equal(t, decl.VarDecl{Name: "x"}, v.Decl())
}

func TestCall(t *testing.T) {
	b := NewBuilder(arithDecls(t))

	one, err := b.New("Num", 1)
	require.NoError(t, err)
	assert.Equal(t, "Num", one.Type().Name)

	sum, err := b.Call(decl.FunctionRef{Name: "add"}, one, one)
	require.NoError(t, err)
	assert.Equal(t, "Num", sum.Type().Name)
	call, ok := sum.Decl().(decl.CallDecl)
	require.True(t, ok)
	assert.Len(t, call.Args, 2)
}

func TestCallArityMismatch(t *testing.T) {
	b := NewBuilder(arithDecls(t))

	one, err := b.New("Num", 1)
	require.NoError(t, err)

	_, err = b.Call(decl.FunctionRef{Name: "add"}, one)
	require.Error(t, err)
	assert.True(t, decl.IsTypeMismatch(err))
}

func TestCallArgumentTypeMismatch(t *testing.T) {
	b := NewBuilder(arithDecls(t))

	one, err := b.New("Num", 1)
	require.NoError(t, err)

	// A raw int lifts to i64, which is not a Num.
	_, err = b.Call(decl.FunctionRef{Name: "add"}, one, 2)
	require.Error(t, err)
	assert.True(t, decl.IsTypeMismatch(err))

	var derr *decl.Error
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, derr.Message, "argument 1")
}

func TestCallUnknownRef(t *testing.T) {
	b := NewBuilder(arithDecls(t))

	_, err := b.Call(decl.FunctionRef{Name: "missing"})
	require.Error(t, err)
	assert.True(t, decl.IsNotFound(err))
}

func TestMethodUsesReceiverSort(t *testing.T) {
	b := NewBuilder(decl.New())

	sum, err := b.Method(b.Int(1), "add", 2)
	require.NoError(t, err)
	assert.Equal(t, decl.SortInt, sum.Type().Name)

	lt, err := b.Method(b.Int(1), "lt", 2)
	require.NoError(t, err)
	assert.True(t, lt.IsRelation())
}

func TestNe(t *testing.T) {
	b := NewBuilder(arithDecls(t))

	one, err := b.New("Num", 1)
	require.NoError(t, err)
	two, err := b.New("Num", 2)
	require.NoError(t, err)

	_, err = b.Ne(one, two)
	// Num has no registered inequality relation.
	require.Error(t, err)
	assert.True(t, decl.IsNotFound(err))

	ne, err := b.Ne(b.Int(1), b.Int(2))
	require.NoError(t, err)
	assert.True(t, ne.IsRelation())

	_, err = b.Ne(b.Int(1), b.String("x"))
	require.Error(t, err)
	assert.True(t, decl.IsTypeMismatch(err))
}

func genericDecls(t *testing.T) *decl.Declarations {
	t.Helper()
	d := decl.New()
	_, err := d.RegisterSort("Vec", 1, "")
	require.NoError(t, err)

	selfT := decl.TypeRefWithVars{Name: "Vec", Args: []decl.TypeRef{decl.ClassTypeVarRef{Index: 0}}}
	i64 := decl.JustTypeRef{Name: decl.SortInt}

	// empty : () -> Vec[T]; only explicit instantiation can bind T.
	_, err = d.RegisterCallable(
		decl.ClassMethodRef{Sort: "Vec", Name: "empty"},
		&decl.FunctionDecl{ReturnType: selfT},
		"",
	)
	require.NoError(t, err)

	// get : (Vec[T], i64) -> T; T is inferred from the receiver.
	_, err = d.RegisterCallable(
		decl.MethodRef{Sort: "Vec", Name: "get"},
		&decl.FunctionDecl{ReturnType: decl.ClassTypeVarRef{Index: 0}, ArgTypes: []decl.TypeRef{selfT, i64}},
		"",
	)
	require.NoError(t, err)
	return d
}

func TestGenericInference(t *testing.T) {
	b := NewBuilder(genericDecls(t))
	i64 := decl.JustTypeRef{Name: decl.SortInt}

	vec, err := b.CallInstantiated(decl.ClassMethodRef{Sort: "Vec", Name: "empty"}, []decl.JustTypeRef{i64})
	require.NoError(t, err)
	assert.Equal(t, "Vec[i64]", vec.Type().String())

	elem, err := b.Method(vec, "get", 0)
	require.NoError(t, err)
	assert.Equal(t, "i64", elem.Type().String())
}

func TestGenericUnboundReturn(t *testing.T) {
	b := NewBuilder(genericDecls(t))

	// Without instantiation nothing binds T in the return type.
	_, err := b.Call(decl.ClassMethodRef{Sort: "Vec", Name: "empty"})
	require.Error(t, err)
	var derr *decl.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, decl.ErrCodeUnresolvedTypeVar, derr.Code)
}

func TestCallInstantiatedArity(t *testing.T) {
	b := NewBuilder(genericDecls(t))
	i64 := decl.JustTypeRef{Name: decl.SortInt}

	_, err := b.CallInstantiated(decl.ClassMethodRef{Sort: "Vec", Name: "empty"}, []decl.JustTypeRef{i64, i64})
	require.Error(t, err)
	assert.True(t, decl.IsTypeMismatch(err))
}
