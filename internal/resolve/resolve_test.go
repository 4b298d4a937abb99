package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbthomason/egglog-go/internal/decl"
)

func newDecls(t *testing.T) *decl.Declarations {
	t.Helper()
	d := decl.New()
	_, err := d.RegisterSort("Num", 0, "")
	require.NoError(t, err)
	_, err = d.RegisterSort("Vec", 1, "")
	require.NoError(t, err)
	return d
}

func TestResolveNamed(t *testing.T) {
	d := newDecls(t)
	r := New(d)

	got, err := r.Resolve(Named{Name: "Num"})
	require.NoError(t, err)
	assert.Equal(t, decl.JustTypeRef{Name: "Num"}, got)

	got, err = r.Resolve(Named{Name: "Vec", Args: []Annotation{Named{Name: decl.SortInt}}})
	require.NoError(t, err)
	assert.Equal(t, "Vec[i64]", got.String())

	_, err = r.Resolve(Named{Name: "Unknown"})
	require.Error(t, err)
	assert.True(t, decl.IsAnnotationError(err))

	// Wrong type-parameter count.
	_, err = r.Resolve(Named{Name: "Vec"})
	require.Error(t, err)
	assert.True(t, decl.IsAnnotationError(err))
}

func TestResolveTypeVar(t *testing.T) {
	d := newDecls(t)
	r := For(d, "Vec", []string{"T"})

	got, err := r.Resolve(TypeVar{Name: "T"})
	require.NoError(t, err)
	assert.Equal(t, decl.ClassTypeVarRef{Index: 0}, got)

	_, err = r.Resolve(TypeVar{Name: "U"})
	require.Error(t, err)
	var derr *decl.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, decl.ErrCodeUnresolvedTypeVar, derr.Code)
}

func TestResolveSelfApplication(t *testing.T) {
	d := newDecls(t)
	r := For(d, "Vec", []string{"T"})

	// Vec[T] inside Vec keeps its placeholder argument.
	got, err := r.Resolve(Named{Name: "Vec", Args: []Annotation{TypeVar{Name: "T"}}})
	require.NoError(t, err)
	assert.Equal(t, decl.TypeRefWithVars{Name: "Vec", Args: []decl.TypeRef{decl.ClassTypeVarRef{Index: 0}}}, got)

	self := r.SelfType()
	assert.Equal(t, "Vec[$0]", self.String())
}

func TestResolveUnionPromotion(t *testing.T) {
	d := newDecls(t)
	r := New(d)

	tests := []struct {
		name string
		ann  Union
		want string
	}{
		{"lit_first", Union{A: Lit{Kind: LitInt}, B: Named{Name: "Num"}}, "Num"},
		{"lit_second", Union{A: Named{Name: "Num"}, B: Lit{Kind: LitString}}, "Num"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.ann)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestResolveUnionMalformed(t *testing.T) {
	d := newDecls(t)
	r := New(d)

	tests := []struct {
		name string
		ann  Union
	}{
		{"two_literals", Union{A: Lit{Kind: LitInt}, B: Lit{Kind: LitFloat}}},
		{"no_literal", Union{A: Named{Name: "Num"}, B: Named{Name: decl.SortInt}}},
		{"lit_with_var", Union{A: Lit{Kind: LitInt}, B: TypeVar{Name: "T"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.ann)
			require.Error(t, err)
			var derr *decl.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, decl.ErrCodeMalformedUnion, derr.Code)
		})
	}
}

func TestBareLiteralKindRejected(t *testing.T) {
	d := newDecls(t)
	r := New(d)

	_, err := r.Resolve(Lit{Kind: LitInt})
	require.Error(t, err)
	assert.True(t, decl.IsAnnotationError(err))
}

func TestResolveFunction(t *testing.T) {
	d := newDecls(t)
	r := New(d)

	fd, err := r.ResolveFunction(Signature{
		Return: Named{Name: "Num"},
		Params: []Annotation{Named{Name: "Num"}, Union{A: Lit{Kind: LitInt}, B: Named{Name: "Num"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Num", fd.ReturnType.String())
	require.Len(t, fd.ArgTypes, 2)
	assert.Equal(t, "Num", fd.ArgTypes[1].String())
	assert.Nil(t, fd.VarArgType)

	_, err = r.ResolveFunction(Signature{Params: []Annotation{Named{Name: "Num"}}})
	require.Error(t, err)
}

func TestResolveMethodPrependsSelf(t *testing.T) {
	d := newDecls(t)
	r := For(d, "Vec", []string{"T"})

	fd, err := r.ResolveMethod(Signature{
		Return: TypeVar{Name: "T"},
		Params: []Annotation{Named{Name: decl.SortInt}},
	})
	require.NoError(t, err)
	require.Len(t, fd.ArgTypes, 2)
	assert.Equal(t, "Vec[$0]", fd.ArgTypes[0].String())
	assert.Equal(t, "i64", fd.ArgTypes[1].String())
	assert.Equal(t, "$0", fd.ReturnType.String())
}

func TestResolveClassMethodInit(t *testing.T) {
	d := newDecls(t)
	r := For(d, "Num", nil)

	fd, err := r.ResolveClassMethod(Signature{Params: []Annotation{Named{Name: decl.SortInt}}}, true)
	require.NoError(t, err)
	assert.Equal(t, "Num", fd.ReturnType.String())
	require.Len(t, fd.ArgTypes, 1)
	assert.Equal(t, "i64", fd.ArgTypes[0].String())

	// A constructor needs an enclosing sort.
	_, err = New(d).ResolveClassMethod(Signature{}, true)
	require.Error(t, err)
}

func TestResolveFunctionVarArg(t *testing.T) {
	d := newDecls(t)
	r := New(d)

	fd, err := r.ResolveFunction(Signature{
		Return: Named{Name: "Num"},
		VarArg: Named{Name: "Num"},
	})
	require.NoError(t, err)
	require.NotNil(t, fd.VarArgType)
	assert.Equal(t, "Num", fd.VarArgType.String())
}
