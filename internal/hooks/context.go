// Package hooks implements the per-call context, the scope registries, and
// the around-chain composer used by the dispatcher.
//
// DESIGN: Three independent registries (global, service, interceptor) hold
// ordered hook lists keyed by phase and method selector. Before/after/error
// hooks are plain sequential functions run by list iteration; around hooks
// are continuation-passing and are composed into a single onion by Chain().
// The two mechanisms are deliberately kept separate.
package hooks

import "time"

// Phase identifies the pipeline stage a hook runs in.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
	PhaseAround Phase = "around"
	PhaseError  Phase = "error"
)

// AllMethods is the wildcard method selector. Hooks registered under it run
// for every method, ahead of that scope's method-specific hooks.
const AllMethods = "all"

// Context is the mutable record threaded through one call's lifetime. The
// dispatcher creates it, passes it by reference through every hook and the
// leaf method, and returns it to the caller when the call resolves.
//
// A Context is owned by exactly one in-flight call. Hooks mutate it in place;
// it must never be shared across concurrent calls.
type Context struct {
	// CallID uniquely identifies this call for tracing and the journal.
	CallID string

	// Path identifies the target service.
	Path string

	// Method is the invoked method name, standard or custom.
	Method string

	// Phase is the stage currently executing. Informational; the dispatcher
	// sets it before invoking each hook group.
	Phase Phase

	// Params carries free-form call parameters: query, caller identity,
	// transport metadata.
	Params map[string]any

	// ID is the optional resource identifier (get/update/patch/remove).
	ID string

	// Data is the optional payload (create/update/patch).
	Data any

	// Result holds the value produced by the leaf method or by an error hook
	// that handled a failure. Readable and writable by after- and
	// around-hooks.
	Result any

	// Err holds the failure currently in flight, if any. Cleared only by an
	// error hook that fully handles the failure.
	Err error

	// Service and App are borrowed back-references for hooks that need to
	// call other services or read shared configuration.
	Service any
	App     any

	// StartedAt is when the dispatcher created this context.
	StartedAt time.Time
}
