package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoistVarsAndFunctions(t *testing.T) {
	env := NewEnvironment(nil)
	fn := func() string { return "callable" }

	require.NoError(t, Hoist(env, []Decl{
		Var("a"),
		Func("f", fn),
		Let("l"),
		Const("c"),
	}))

	// Vars read as undefined immediately.
	v, err := env.Get("a")
	require.NoError(t, err)
	assert.Equal(t, Undefined, v)

	// Functions are callable immediately.
	v, err = env.Get("f")
	require.NoError(t, err)
	require.IsType(t, fn, v)
	assert.Equal(t, "callable", v.(func() string)())

	// Let/const are declared but inside their dead zone.
	var uninit *UninitializedAccessError
	_, err = env.Get("l")
	require.ErrorAs(t, err, &uninit)
	_, err = env.Get("c")
	require.ErrorAs(t, err, &uninit)
}

func TestHoistVarsLandInFunctionScope(t *testing.T) {
	fn := NewEnvironment(nil)
	block := NewBlockEnvironment(fn)

	// A unit body's var declarations include those found in nested blocks;
	// hoisting through a block environment must land them at function level,
	// while let/const stay in the block.
	require.NoError(t, Hoist(block, []Decl{
		Var("v"),
		Let("l"),
	}))

	assert.True(t, fn.Has("v"))
	assert.False(t, block.Has("v"))
	assert.True(t, block.Has("l"))
	assert.False(t, fn.Has("l"))
}

func TestHoistIdempotentVar(t *testing.T) {
	env := NewEnvironment(nil)
	require.NoError(t, env.Declare("a", KindVar))
	require.NoError(t, env.Assign("a", 5))

	require.NoError(t, Hoist(env, []Decl{Var("a")}))

	v, err := env.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestHoistCollision(t *testing.T) {
	env := NewEnvironment(nil)
	require.NoError(t, env.Declare("x", KindLet))

	err := Hoist(env, []Decl{Var("x")})
	var redecl *RedeclarationError
	require.ErrorAs(t, err, &redecl)
}
