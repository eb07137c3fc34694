// Package hooks - registry.go provides ordered hook storage for one scope.
//
// DESIGN: Entries keep registration order. The effective list for a call is
// computed on read: path-matching wildcard entries first, then path-matching
// method-specific entries, each group in registration order. Reads copy the
// matched hooks into a fresh slice, so an in-flight call keeps the list it
// read at the start of a phase even if registrations change underneath it.
package hooks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// entry is one registered hook list for a (selector, pattern) pair.
type entry struct {
	selector string
	pattern  string
	fns      []Func
}

// aroundEntry mirrors entry for continuation-passing hooks.
type aroundEntry struct {
	selector string
	pattern  string
	fns      []AroundFunc
}

// Registry stores ordered hook registrations for one scope. Safe for
// concurrent use; registration while calls are in flight is allowed.
type Registry struct {
	mu     sync.RWMutex
	before []entry
	after  []entry
	errs   []entry
	around []aroundEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends every hook list in m to the registry, preserving registration
// order within each phase+selector. It rejects an invalid path pattern.
func (r *Registry) Add(m Map) error {
	if m.Path != "" && !doublestar.ValidatePattern(m.Path) {
		return fmt.Errorf("invalid hook path pattern: %q", m.Path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sel := range sortedSelectors(m.Before) {
		r.before = append(r.before, entry{selector: sel, pattern: m.Path, fns: m.Before[sel]})
	}
	for _, sel := range sortedSelectors(m.After) {
		r.after = append(r.after, entry{selector: sel, pattern: m.Path, fns: m.After[sel]})
	}
	for _, sel := range sortedSelectors(m.Error) {
		r.errs = append(r.errs, entry{selector: sel, pattern: m.Path, fns: m.Error[sel]})
	}

	aroundSels := make([]string, 0, len(m.Around))
	for sel := range m.Around {
		aroundSels = append(aroundSels, sel)
	}
	sort.Strings(aroundSels)
	for _, sel := range aroundSels {
		r.around = append(r.around, aroundEntry{selector: sel, pattern: m.Path, fns: m.Around[sel]})
	}

	return nil
}

// List returns the effective hook list for phase on (path, method). The
// returned slice is a snapshot owned by the caller.
func (r *Registry) List(phase Phase, path, method string) []Func {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []entry
	switch phase {
	case PhaseBefore:
		entries = r.before
	case PhaseAfter:
		entries = r.after
	case PhaseError:
		entries = r.errs
	default:
		return nil
	}

	var out []Func
	for _, e := range entries {
		if e.selector == AllMethods && matchPath(e.pattern, path) {
			out = append(out, e.fns...)
		}
	}
	for _, e := range entries {
		if e.selector == method && matchPath(e.pattern, path) {
			out = append(out, e.fns...)
		}
	}
	return out
}

// AroundList returns the effective around-hook list for (path, method),
// wildcard entries first, as a caller-owned snapshot.
func (r *Registry) AroundList(path, method string) []AroundFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []AroundFunc
	for _, e := range r.around {
		if e.selector == AllMethods && matchPath(e.pattern, path) {
			out = append(out, e.fns...)
		}
	}
	for _, e := range r.around {
		if e.selector == method && matchPath(e.pattern, path) {
			out = append(out, e.fns...)
		}
	}
	return out
}

// PurgePath drops entries that were scoped to a now-unregistered service.
// An entry is scoped to path when its pattern matches path but none of the
// live service paths; pattern-free entries always survive.
func (r *Registry) PurgePath(path string, live []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep := func(pattern string) bool {
		if pattern == "" || !matchPath(pattern, path) {
			return true
		}
		for _, p := range live {
			if matchPath(pattern, p) {
				return true
			}
		}
		return false
	}

	r.before = filterEntries(r.before, keep)
	r.after = filterEntries(r.after, keep)
	r.errs = filterEntries(r.errs, keep)

	kept := r.around[:0:0]
	for _, e := range r.around {
		if keep(e.pattern) {
			kept = append(kept, e)
		}
	}
	r.around = kept
}

// Clear removes every registration. Used when a service registry is purged
// wholesale on unregistration.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.before, r.after, r.errs, r.around = nil, nil, nil, nil
}

func filterEntries(entries []entry, keep func(string) bool) []entry {
	kept := entries[:0:0]
	for _, e := range entries {
		if keep(e.pattern) {
			kept = append(kept, e)
		}
	}
	return kept
}

// matchPath reports whether pattern scopes to path. Patterns were validated
// at Add time, so a match error cannot occur here.
func matchPath(pattern, path string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}

func sortedSelectors(m Methods) []string {
	sels := make([]string, 0, len(m))
	for sel := range m {
		sels = append(sels, sel)
	}
	sort.Strings(sels)
	return sels
}
