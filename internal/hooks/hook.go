package hooks

// Func is a before, after or error hook. It mutates the context in place; a
// non-nil return aborts the current phase and routes the call to the error
// hooks. Error hooks receive the context with Err set and may clear or
// replace it.
type Func func(*Context) error

// Next invokes the remainder of an around chain and returns once everything
// inside it has completed, successfully or with an error the caller may
// catch.
type Next func(*Context) error

// AroundFunc wraps the remainder of the pipeline. It must call next to
// continue the chain unless it short-circuits; an error returned by next may
// be swallowed by returning nil.
type AroundFunc func(*Context, Next) error

// Methods maps a method selector (AllMethods or a method name) to an ordered
// hook list.
type Methods map[string][]Func

// AroundMethods maps a method selector to an ordered around-hook list.
type AroundMethods map[string][]AroundFunc

// Map is one hook registration: phase to selector to hooks.
type Map struct {
	Before Methods
	After  Methods
	Error  Methods
	Around AroundMethods

	// Path restricts a global or interceptor registration to services whose
	// path matches this doublestar pattern. Empty matches every path.
	// Service-scoped registries ignore it.
	Path string
}
