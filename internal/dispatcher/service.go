// Package dispatcher - service.go defines the service capability model.
//
// DESIGN: Services are duck-typed. A service object implements any subset of
// the standard capability interfaces below plus, optionally, CustomMethods
// for arbitrary named methods. Method presence is checked at call time; a
// missing method is a structural error, raised before any context or hook
// scaffolding exists.
package dispatcher

import (
	"slices"

	"github.com/manifoldhq/manifold/internal/hooks"
)

// Standard method names.
const (
	MethodFind   = "find"
	MethodGet    = "get"
	MethodCreate = "create"
	MethodUpdate = "update"
	MethodPatch  = "patch"
	MethodRemove = "remove"
)

// Finder lists resources matching the context params.
type Finder interface {
	Find(ctx *hooks.Context) (any, error)
}

// Getter fetches the resource identified by ctx.ID.
type Getter interface {
	Get(ctx *hooks.Context) (any, error)
}

// Creator stores ctx.Data as a new resource.
type Creator interface {
	Create(ctx *hooks.Context) (any, error)
}

// Updater replaces the resource at ctx.ID with ctx.Data.
type Updater interface {
	Update(ctx *hooks.Context) (any, error)
}

// Patcher merges ctx.Data into the resource at ctx.ID.
type Patcher interface {
	Patch(ctx *hooks.Context) (any, error)
}

// Remover deletes the resource at ctx.ID.
type Remover interface {
	Remove(ctx *hooks.Context) (any, error)
}

// CustomMethods exposes non-standard methods by name.
type CustomMethods interface {
	// MethodNames lists the custom methods the service accepts.
	MethodNames() []string

	// Call invokes the named custom method.
	Call(method string, ctx *hooks.Context) (any, error)
}

// leafFunc is the innermost invocation in the around chain.
type leafFunc func(*hooks.Context) (any, error)

// RegisteredService is the handle returned by Register. It owns the
// service-scoped hook registry.
type RegisteredService struct {
	path    string
	impl    any
	reg     *hooks.Registry
	allowed []string // non-nil restricts callable methods
}

// Path returns the path the service was registered under.
func (s *RegisteredService) Path() string { return s.path }

// Impl returns the underlying service object.
func (s *RegisteredService) Impl() any { return s.impl }

// Hooks registers service-scoped hooks. Visible to calls dispatched after it
// returns; calls already past the phase being modified are unaffected.
func (s *RegisteredService) Hooks(m hooks.Map) error {
	return s.reg.Add(m)
}

// method resolves the leaf invocation for a method name, honoring the
// allowlist when one was set.
func (s *RegisteredService) method(name string) (leafFunc, bool) {
	if s.allowed != nil && !slices.Contains(s.allowed, name) {
		return nil, false
	}

	switch name {
	case MethodFind:
		if svc, ok := s.impl.(Finder); ok {
			return svc.Find, true
		}
	case MethodGet:
		if svc, ok := s.impl.(Getter); ok {
			return svc.Get, true
		}
	case MethodCreate:
		if svc, ok := s.impl.(Creator); ok {
			return svc.Create, true
		}
	case MethodUpdate:
		if svc, ok := s.impl.(Updater); ok {
			return svc.Update, true
		}
	case MethodPatch:
		if svc, ok := s.impl.(Patcher); ok {
			return svc.Patch, true
		}
	case MethodRemove:
		if svc, ok := s.impl.(Remover); ok {
			return svc.Remove, true
		}
	default:
		if svc, ok := s.impl.(CustomMethods); ok && slices.Contains(svc.MethodNames(), name) {
			return func(ctx *hooks.Context) (any, error) {
				return svc.Call(name, ctx)
			}, true
		}
	}
	return nil, false
}

// ServiceOption customizes a service registration.
type ServiceOption func(*RegisteredService)

// WithMethods restricts the service to the listed methods. Calls to any
// other method fail as structural errors even when the implementation
// exposes them.
func WithMethods(methods ...string) ServiceOption {
	return func(s *RegisteredService) {
		s.allowed = methods
	}
}
