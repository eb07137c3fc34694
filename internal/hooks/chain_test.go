package hooks_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifoldhq/manifold/internal/hooks"
)

// wrap records pre/post segments around next.
func wrap(trace *[]string, label string) hooks.AroundFunc {
	return func(ctx *hooks.Context, next hooks.Next) error {
		*trace = append(*trace, label+".pre")
		err := next(ctx)
		*trace = append(*trace, label+".post")
		return err
	}
}

func TestChain_OnionNesting(t *testing.T) {
	var trace []string

	leaf := func(ctx *hooks.Context) error {
		trace = append(trace, "leaf")
		return nil
	}

	chain := hooks.Chain(leaf,
		[]hooks.AroundFunc{wrap(&trace, "global1"), wrap(&trace, "global2")},
		[]hooks.AroundFunc{wrap(&trace, "service")},
		[]hooks.AroundFunc{wrap(&trace, "interceptor")},
	)

	require.NoError(t, chain(&hooks.Context{}))
	assert.Equal(t, []string{
		"global1.pre", "global2.pre", "service.pre", "interceptor.pre",
		"leaf",
		"interceptor.post", "service.post", "global2.post", "global1.post",
	}, trace)
}

func TestChain_NoHooksRunsLeaf(t *testing.T) {
	ran := false
	chain := hooks.Chain(func(ctx *hooks.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, chain(&hooks.Context{}))
	assert.True(t, ran)
}

func TestChain_ErrorPropagatesThroughLayers(t *testing.T) {
	var trace []string
	leafErr := errors.New("leaf failed")

	chain := hooks.Chain(
		func(ctx *hooks.Context) error { return leafErr },
		[]hooks.AroundFunc{wrap(&trace, "outer")},
	)

	err := chain(&hooks.Context{})
	assert.ErrorIs(t, err, leafErr)
	// The post segment still ran on the way out.
	assert.Equal(t, []string{"outer.pre", "outer.post"}, trace)
}

func TestChain_AroundHookCatchesInnerError(t *testing.T) {
	leafErr := errors.New("leaf failed")

	catcher := func(ctx *hooks.Context, next hooks.Next) error {
		if err := next(ctx); err != nil {
			ctx.Result = "recovered"
			return nil
		}
		return nil
	}

	chain := hooks.Chain(
		func(ctx *hooks.Context) error { return leafErr },
		[]hooks.AroundFunc{catcher},
	)

	ctx := &hooks.Context{}
	require.NoError(t, chain(ctx))
	assert.Equal(t, "recovered", ctx.Result)
}

func TestChain_ShortCircuitSkipsInnerLayers(t *testing.T) {
	var trace []string

	shortCircuit := func(ctx *hooks.Context, next hooks.Next) error {
		trace = append(trace, "short")
		ctx.Result = "cached"
		return nil // never calls next
	}

	chain := hooks.Chain(
		func(ctx *hooks.Context) error {
			trace = append(trace, "leaf")
			return nil
		},
		[]hooks.AroundFunc{shortCircuit},
		[]hooks.AroundFunc{wrap(&trace, "inner")},
	)

	ctx := &hooks.Context{}
	require.NoError(t, chain(ctx))
	assert.Equal(t, []string{"short"}, trace)
	assert.Equal(t, "cached", ctx.Result)
}
