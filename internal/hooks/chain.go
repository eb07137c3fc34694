// Package hooks - chain.go is the around-chain composer.
//
// DESIGN: Around hooks wrap the remainder of the pipeline through an
// explicit continuation instead of flat list iteration. Chain builds the
// continuation from the outside in: the first scope list is outermost, and
// within one scope the first-registered hook is outermost. The leaf sits at
// the center, so pre-next segments run outer-to-inner and post-next segments
// run back inner-to-outer.
package hooks

// Chain composes the scope around-hook lists and the leaf invocation into a
// single continuation. Invoking the result with the initial context executes
// the entire around phase plus the leaf and returns its error, if any.
func Chain(leaf Next, scopes ...[]AroundFunc) Next {
	next := leaf
	for i := len(scopes) - 1; i >= 0; i-- {
		fns := scopes[i]
		for j := len(fns) - 1; j >= 0; j-- {
			fn := fns[j]
			inner := next
			next = func(ctx *Context) error {
				return fn(ctx, inner)
			}
		}
	}
	return next
}
