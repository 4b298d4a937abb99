package egraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/dsl"
)

func numModule(t *testing.T) *Module {
	t.Helper()
	m := NewModule("num")
	require.NoError(t, m.Sort("Num", 0, ""))

	num := decl.JustTypeRef{Name: "Num"}
	i64 := decl.JustTypeRef{Name: decl.SortInt}
	require.NoError(t, m.RegisterCallable(
		decl.ClassMethodRef{Sort: "Num", Name: decl.InitMethod},
		&decl.FunctionDecl{ReturnType: num, ArgTypes: []decl.TypeRef{i64}},
		"Num",
	))
	require.NoError(t, m.Function("add", []decl.TypeRef{num, num}, num))
	return m
}

func TestModuleRecordsCommands(t *testing.T) {
	m := numModule(t)

	cmds := m.Commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, decl.SortCommand{Name: "Num"}, cmds[0])
	_, ok := cmds[1].(decl.FunctionCommand)
	assert.True(t, ok)
}

func TestModuleRelationAndConstant(t *testing.T) {
	m := numModule(t)
	num := decl.JustTypeRef{Name: "Num"}

	require.NoError(t, m.Relation("positive", num))
	fd, err := m.Decls().Lookup(decl.FunctionRef{Name: "positive"})
	require.NoError(t, err)
	assert.Equal(t, decl.SortUnit, fd.ReturnType.(decl.JustTypeRef).Name)

	require.NoError(t, m.Constant("best", num))
	fd, err = m.Decls().Lookup(decl.ConstantRef{Name: "best"})
	require.NoError(t, err)
	require.NotNil(t, fd.Cost)
}

func TestModuleFunctionOptions(t *testing.T) {
	m := numModule(t)
	num := decl.JustTypeRef{Name: "Num"}

	b := m.Builder()
	one, err := b.New("Num", 1)
	require.NoError(t, err)

	require.NoError(t, m.Function("lowest", []decl.TypeRef{num}, num,
		WithCost(3), WithDefault(one), WithMerge(one)))

	fd, err := m.Decls().Lookup(decl.FunctionRef{Name: "lowest"})
	require.NoError(t, err)
	require.NotNil(t, fd.Cost)
	assert.Equal(t, int64(3), *fd.Cost)
	assert.NotNil(t, fd.Default)
	assert.NotNil(t, fd.Merge)
}

func TestFlattenDedupsDiamond(t *testing.T) {
	base := NewModule("base")
	left := NewModule("left", base)
	right := NewModule("right", base)
	top := NewModule("top", left, right)

	flat := Flatten(top)
	require.Len(t, flat, 4)
	assert.Equal(t, "base", flat[0].Name())
	assert.Equal(t, "left", flat[1].Name())
	assert.Equal(t, "right", flat[2].Name())
	assert.Equal(t, "top", flat[3].Name())
}

func TestComposeDiamondReplaysOnce(t *testing.T) {
	base := numModule(t)
	left := NewModule("left", base)
	right := NewModule("right", base)
	top := NewModule("top", left, right)

	decls, cmds, err := Compose(top)
	require.NoError(t, err)
	assert.True(t, decls.HasSort("Num"))

	// The base module's three commands appear exactly once.
	var sorts int
	for _, c := range cmds {
		if _, ok := c.(decl.SortCommand); ok {
			sorts++
		}
	}
	assert.Equal(t, 1, sorts)
	assert.Len(t, cmds, 3)
}

func TestComposeConflict(t *testing.T) {
	a := NewModule("a")
	require.NoError(t, a.Sort("Num", 0, ""))
	b := NewModule("b")
	require.NoError(t, b.Sort("Num", 1, ""))

	_, _, err := Compose(a, b)
	require.Error(t, err)
	assert.True(t, decl.IsDeclarationError(err))
}

func TestModuleRegisterRewrite(t *testing.T) {
	m := numModule(t)
	b := m.Builder()
	num := decl.JustTypeRef{Name: "Num"}

	vars, err := b.Vars(num, "x", "y")
	require.NoError(t, err)
	lhs, err := b.Call(decl.FunctionRef{Name: "add"}, vars[0], vars[1])
	require.NoError(t, err)
	rhs, err := b.Call(decl.FunctionRef{Name: "add"}, vars[1], vars[0])
	require.NoError(t, err)

	cmd, err := dsl.Rewrite(lhs).To(rhs)
	require.NoError(t, err)
	m.Register(cmd)

	last := m.Commands()[len(m.Commands())-1]
	_, ok := last.(decl.RewriteCommand)
	assert.True(t, ok)
}
