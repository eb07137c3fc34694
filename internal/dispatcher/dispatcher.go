// Package dispatcher turns a "call a method on a named service" request into
// a fully ordered, layered execution of before/after/around/error hooks plus
// the leaf method invocation.
//
// DESIGN: Three hook scopes nest deterministically around every call:
//
//	before:  global → service → interceptor            (flat, sequential)
//	around:  global ⊃ service ⊃ interceptor ⊃ leaf     (onion, via hooks.Chain)
//	after:   interceptor → service → global            (flat, sequential)
//	error:   interceptor → service → global            (flat, always all scopes)
//
// Within each scope and phase, wildcard ("all") hooks run before
// method-specific hooks, each group in registration order.
//
// Execute returns an error only for structural misuse (unknown path or
// method). Every hook or method failure is captured into Context.Err and the
// resolved context is returned normally; callers branch on Err versus Result.
package dispatcher

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/manifoldhq/manifold/internal/hooks"
)

// Call describes one service call request.
type Call struct {
	Path   string         // target service path
	Method string         // method name, standard or custom
	Params map[string]any // free-form call parameters
	ID     string         // optional resource identifier
	Data   any            // optional payload
}

// Config controls dispatcher behavior.
type Config struct {
	// RecoverFromPanic converts hook and method panics into context errors.
	RecoverFromPanic bool

	// EnableMetrics enables per-method dispatch metrics.
	EnableMetrics bool
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		RecoverFromPanic: true,
		EnableMetrics:    true,
	}
}

// Dispatcher owns the service table and the global and interceptor hook
// registries, and executes calls through the hook pipeline.
type Dispatcher struct {
	mu       sync.RWMutex
	services map[string]*RegisteredService

	global      *hooks.Registry
	interceptor *hooks.Registry

	config  Config
	metrics *Metrics
}

// New creates a dispatcher with the given configuration.
func New(config Config) *Dispatcher {
	d := &Dispatcher{
		services:    make(map[string]*RegisteredService),
		global:      hooks.NewRegistry(),
		interceptor: hooks.NewRegistry(),
		config:      config,
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	return d
}

// NewWithDefaults creates a dispatcher with the default configuration.
func NewWithDefaults() *Dispatcher {
	return New(DefaultConfig())
}

// Register adds a service under path. The returned handle carries the
// service-scoped hook registry.
func (d *Dispatcher) Register(path string, impl any, opts ...ServiceOption) (*RegisteredService, error) {
	if path == "" {
		return nil, fmt.Errorf("service path is required")
	}
	if impl == nil {
		return nil, fmt.Errorf("service implementation is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.services[path]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, path)
	}

	svc := &RegisteredService{path: path, impl: impl, reg: hooks.NewRegistry()}
	for _, opt := range opts {
		opt(svc)
	}
	d.services[path] = svc

	log.Debug().Str("path", path).Msg("service registered")
	return svc, nil
}

// Unregister removes the service at path. Its hook registry is purged, as
// are global and interceptor registrations path-scoped to it. Calls already
// past service resolution are unaffected.
func (d *Dispatcher) Unregister(path string) error {
	d.mu.Lock()
	svc, ok := d.services[path]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrServiceNotFound, path)
	}
	delete(d.services, path)

	live := make([]string, 0, len(d.services))
	for p := range d.services {
		live = append(live, p)
	}
	d.mu.Unlock()

	svc.reg.Clear()
	d.global.PurgePath(path, live)
	d.interceptor.PurgePath(path, live)

	log.Debug().Str("path", path).Msg("service unregistered")
	return nil
}

// Service returns the handle for a registered path.
func (d *Dispatcher) Service(path string) (*RegisteredService, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	svc, ok := d.services[path]
	return svc, ok
}

// Hooks registers global-scope hooks.
func (d *Dispatcher) Hooks(m hooks.Map) error {
	return d.global.Add(m)
}

// InterceptorHooks registers interceptor-scope hooks. The interceptor scope
// nests between the service scope and the leaf method.
func (d *Dispatcher) InterceptorHooks(m hooks.Map) error {
	return d.interceptor.Add(m)
}

// Metrics returns the metrics collector, nil when disabled.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Execute runs one call through the full hook pipeline and returns the
// resolved context. The error return is non-nil only for structural misuse:
// an unknown service path or a method the service does not expose. All other
// failures are captured into the returned context's Err field.
func (d *Dispatcher) Execute(call Call) (*hooks.Context, error) {
	start := time.Now()

	svc, invoke, err := d.resolve(call.Path, call.Method)
	if err != nil {
		return nil, err
	}

	ctx := d.buildContext(call, svc, start)
	d.run(ctx, svc, invoke)

	// Exactly one of Result/Err is live for the caller.
	if ctx.Err != nil {
		ctx.Result = nil
	}

	latency := time.Since(start)
	if d.metrics != nil {
		d.metrics.RecordCall(call.Path, call.Method, ctx.Err == nil, latency)
	}

	log.Debug().
		Str("call_id", ctx.CallID).
		Str("path", call.Path).
		Str("method", call.Method).
		Bool("ok", ctx.Err == nil).
		Dur("duration", latency).
		Msg("call resolved")

	return ctx, nil
}

// resolve looks up the service and its leaf invocation, failing fast on
// structural errors.
func (d *Dispatcher) resolve(path, method string) (*RegisteredService, leafFunc, error) {
	d.mu.RLock()
	svc, ok := d.services[path]
	d.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrServiceNotFound, path)
	}

	invoke, ok := svc.method(method)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s on %s", ErrMethodNotFound, method, path)
	}
	return svc, invoke, nil
}

// buildContext creates the per-call context from the request.
func (d *Dispatcher) buildContext(call Call, svc *RegisteredService, start time.Time) *hooks.Context {
	params := call.Params
	if params == nil {
		params = make(map[string]any)
	}
	return &hooks.Context{
		CallID:    uuid.New().String(),
		Path:      call.Path,
		Method:    call.Method,
		Params:    params,
		ID:        call.ID,
		Data:      call.Data,
		Service:   svc.impl,
		App:       d,
		StartedAt: start,
	}
}

// run drives the phase state machine: before → around → after, with a side
// transition to the error router on any failure.
func (d *Dispatcher) run(ctx *hooks.Context, svc *RegisteredService, invoke leafFunc) {
	if err := d.runBefore(ctx, svc); err != nil {
		d.routeError(ctx, svc, err)
		return
	}
	if err := d.runAround(ctx, svc, invoke); err != nil {
		d.routeError(ctx, svc, err)
		return
	}
	if err := d.runAfter(ctx, svc); err != nil {
		// Earlier after-hooks are not undone.
		d.routeError(ctx, svc, err)
	}
}

// runBefore runs the before phase: global, then service, then interceptor,
// each wildcard-then-specific. The first failing hook aborts the phase.
func (d *Dispatcher) runBefore(ctx *hooks.Context, svc *RegisteredService) error {
	ctx.Phase = hooks.PhaseBefore

	// Snapshot all three scopes at phase start.
	lists := [][]hooks.Func{
		d.global.List(hooks.PhaseBefore, ctx.Path, ctx.Method),
		svc.reg.List(hooks.PhaseBefore, ctx.Path, ctx.Method),
		d.interceptor.List(hooks.PhaseBefore, ctx.Path, ctx.Method),
	}
	for _, fns := range lists {
		for _, fn := range fns {
			if err := d.callHook(ctx, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// runAround composes and runs the around chain with the leaf at its center.
// Nesting is global outermost, then service, then interceptor.
func (d *Dispatcher) runAround(ctx *hooks.Context, svc *RegisteredService, invoke leafFunc) error {
	ctx.Phase = hooks.PhaseAround

	leaf := func(c *hooks.Context) (err error) {
		if d.config.RecoverFromPanic {
			defer d.recoverPanic(c, &err)
		}
		result, err := invoke(c)
		if err != nil {
			return err
		}
		c.Result = result
		return nil
	}

	chain := hooks.Chain(leaf,
		d.global.AroundList(ctx.Path, ctx.Method),
		svc.reg.AroundList(ctx.Path, ctx.Method),
		d.interceptor.AroundList(ctx.Path, ctx.Method),
	)

	return d.callChain(ctx, chain)
}

// runAfter runs the after phase in reverse scope order: interceptor, then
// service, then global.
func (d *Dispatcher) runAfter(ctx *hooks.Context, svc *RegisteredService) error {
	ctx.Phase = hooks.PhaseAfter

	lists := [][]hooks.Func{
		d.interceptor.List(hooks.PhaseAfter, ctx.Path, ctx.Method),
		svc.reg.List(hooks.PhaseAfter, ctx.Path, ctx.Method),
		d.global.List(hooks.PhaseAfter, ctx.Path, ctx.Method),
	}
	for _, fns := range lists {
		for _, fn := range fns {
			if err := d.callHook(ctx, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// routeError applies the error hooks to a failed context, interceptor scope
// first, then service, then global. Every scope's hooks run even when an
// earlier hook clears the error; a hook returning a new error replaces the
// one being routed for the hooks after it.
func (d *Dispatcher) routeError(ctx *hooks.Context, svc *RegisteredService, cause error) {
	ctx.Phase = hooks.PhaseError
	ctx.Err = cause

	lists := [][]hooks.Func{
		d.interceptor.List(hooks.PhaseError, ctx.Path, ctx.Method),
		svc.reg.List(hooks.PhaseError, ctx.Path, ctx.Method),
		d.global.List(hooks.PhaseError, ctx.Path, ctx.Method),
	}
	for _, fns := range lists {
		for _, fn := range fns {
			if err := d.callHook(ctx, fn); err != nil {
				ctx.Err = err
			}
		}
	}
}

// callHook invokes one sequential hook, converting a panic into an error
// when configured.
func (d *Dispatcher) callHook(ctx *hooks.Context, fn hooks.Func) (err error) {
	if d.config.RecoverFromPanic {
		defer d.recoverPanic(ctx, &err)
	}
	return fn(ctx)
}

// callChain invokes the composed around chain. Around-hook panics surface
// here; leaf panics are recovered at the leaf so enclosing around hooks can
// catch them as ordinary errors.
func (d *Dispatcher) callChain(ctx *hooks.Context, chain hooks.Next) (err error) {
	if d.config.RecoverFromPanic {
		defer d.recoverPanic(ctx, &err)
	}
	return chain(ctx)
}

// recoverPanic captures a panic into *err with a truncated stack.
func (d *Dispatcher) recoverPanic(ctx *hooks.Context, err *error) {
	if r := recover(); r != nil {
		stack := make([]byte, 4096)
		n := runtime.Stack(stack, false)

		*err = fmt.Errorf("panic in %s phase for %s.%s: %v", ctx.Phase, ctx.Path, ctx.Method, r)
		log.Error().
			Str("call_id", ctx.CallID).
			Str("path", ctx.Path).
			Str("method", ctx.Method).
			Str("phase", string(ctx.Phase)).
			Str("stack", string(stack[:n])).
			Msg("recovered panic")
	}
}
