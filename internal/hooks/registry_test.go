package hooks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifoldhq/manifold/internal/hooks"
)

// labelHook appends label to trace when run.
func labelHook(trace *[]string, label string) hooks.Func {
	return func(ctx *hooks.Context) error {
		*trace = append(*trace, label)
		return nil
	}
}

func runAll(t *testing.T, fns []hooks.Func, ctx *hooks.Context) {
	t.Helper()
	for _, fn := range fns {
		require.NoError(t, fn(ctx))
	}
}

func TestRegistry_WildcardBeforeSpecific(t *testing.T) {
	reg := hooks.NewRegistry()
	var trace []string

	// Register the specific hook first to prove ordering is by selector
	// group, not registration time.
	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{"find": {labelHook(&trace, "specific1")}},
	}))
	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{hooks.AllMethods: {labelHook(&trace, "wildcard1")}},
	}))
	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{
			hooks.AllMethods: {labelHook(&trace, "wildcard2")},
			"find":           {labelHook(&trace, "specific2")},
		},
	}))

	fns := reg.List(hooks.PhaseBefore, "messages", "find")
	runAll(t, fns, &hooks.Context{})

	assert.Equal(t, []string{"wildcard1", "wildcard2", "specific1", "specific2"}, trace)
}

func TestRegistry_SpecificSelectorDoesNotMatchOtherMethods(t *testing.T) {
	reg := hooks.NewRegistry()
	var trace []string

	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{
			"find": {labelHook(&trace, "find")},
			"get":  {labelHook(&trace, "get")},
		},
	}))

	fns := reg.List(hooks.PhaseBefore, "messages", "get")
	runAll(t, fns, &hooks.Context{})

	assert.Equal(t, []string{"get"}, trace)
}

func TestRegistry_PathPatternFiltering(t *testing.T) {
	reg := hooks.NewRegistry()
	var trace []string

	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{hooks.AllMethods: {labelHook(&trace, "everywhere")}},
	}))
	require.NoError(t, reg.Add(hooks.Map{
		Path:   "admin/*",
		Before: hooks.Methods{hooks.AllMethods: {labelHook(&trace, "admin-only")}},
	}))

	runAll(t, reg.List(hooks.PhaseBefore, "messages", "find"), &hooks.Context{})
	assert.Equal(t, []string{"everywhere"}, trace)

	trace = nil
	runAll(t, reg.List(hooks.PhaseBefore, "admin/users", "find"), &hooks.Context{})
	assert.Equal(t, []string{"everywhere", "admin-only"}, trace)
}

func TestRegistry_InvalidPattern(t *testing.T) {
	reg := hooks.NewRegistry()

	err := reg.Add(hooks.Map{
		Path:   "admin/[",
		Before: hooks.Methods{hooks.AllMethods: {func(*hooks.Context) error { return nil }}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid hook path pattern")
}

func TestRegistry_PurgePath(t *testing.T) {
	reg := hooks.NewRegistry()
	var trace []string

	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{hooks.AllMethods: {labelHook(&trace, "unscoped")}},
	}))
	require.NoError(t, reg.Add(hooks.Map{
		Path:   "messages",
		Before: hooks.Methods{hooks.AllMethods: {labelHook(&trace, "messages-scoped")}},
	}))
	require.NoError(t, reg.Add(hooks.Map{
		Path:   "*",
		Before: hooks.Methods{hooks.AllMethods: {labelHook(&trace, "star-scoped")}},
	}))

	// "users" is still live, so the "*" entry survives; the exact
	// "messages" entry is scoped only to the removed service.
	reg.PurgePath("messages", []string{"users"})

	runAll(t, reg.List(hooks.PhaseBefore, "messages", "find"), &hooks.Context{})
	assert.Equal(t, []string{"unscoped", "star-scoped"}, trace)
}

func TestRegistry_ListIsSnapshot(t *testing.T) {
	reg := hooks.NewRegistry()
	var trace []string

	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{hooks.AllMethods: {labelHook(&trace, "first")}},
	}))

	fns := reg.List(hooks.PhaseBefore, "messages", "find")

	// A registration after the snapshot must not affect it.
	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{hooks.AllMethods: {labelHook(&trace, "second")}},
	}))

	runAll(t, fns, &hooks.Context{})
	assert.Equal(t, []string{"first"}, trace)
}

func TestRegistry_Clear(t *testing.T) {
	reg := hooks.NewRegistry()

	require.NoError(t, reg.Add(hooks.Map{
		Before: hooks.Methods{hooks.AllMethods: {func(*hooks.Context) error { return nil }}},
		Around: hooks.AroundMethods{hooks.AllMethods: {func(ctx *hooks.Context, next hooks.Next) error { return next(ctx) }}},
	}))

	reg.Clear()

	assert.Empty(t, reg.List(hooks.PhaseBefore, "messages", "find"))
	assert.Empty(t, reg.AroundList("messages", "find"))
}

func TestRegistry_AroundListOrdering(t *testing.T) {
	reg := hooks.NewRegistry()

	var order []string
	mk := func(label string) hooks.AroundFunc {
		return func(ctx *hooks.Context, next hooks.Next) error {
			order = append(order, label)
			return next(ctx)
		}
	}

	require.NoError(t, reg.Add(hooks.Map{
		Around: hooks.AroundMethods{"find": {mk("specific")}},
	}))
	require.NoError(t, reg.Add(hooks.Map{
		Around: hooks.AroundMethods{hooks.AllMethods: {mk("wildcard")}},
	}))

	fns := reg.AroundList("messages", "find")
	require.Len(t, fns, 2)

	chain := hooks.Chain(func(*hooks.Context) error { return nil }, fns)
	require.NoError(t, chain(&hooks.Context{}))
	assert.Equal(t, []string{"wildcard", "specific"}, order)
}
