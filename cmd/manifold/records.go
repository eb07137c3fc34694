package main

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/manifoldhq/manifold/internal/hooks"
)

// recordsService is a small in-memory resource store exposing the full
// standard method set plus a custom "count" method. It exists so the CLI can
// demonstrate the pipeline without external state.
type recordsService struct {
	mu      sync.Mutex
	records map[string]any
	nextID  int
}

func newRecordsService() *recordsService {
	return &recordsService{records: make(map[string]any), nextID: 1}
}

func (s *recordsService) Find(ctx *hooks.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"id": id, "record": s.records[id]})
	}
	return out, nil
}

func (s *recordsService) Get(ctx *hooks.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[ctx.ID]
	if !ok {
		return nil, fmt.Errorf("record %q not found", ctx.ID)
	}
	return record, nil
}

func (s *recordsService) Create(ctx *hooks.Context) (any, error) {
	if ctx.Data == nil {
		return nil, fmt.Errorf("create requires data")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.Itoa(s.nextID)
	s.nextID++
	s.records[id] = ctx.Data
	return map[string]any{"id": id, "record": ctx.Data}, nil
}

func (s *recordsService) Update(ctx *hooks.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[ctx.ID]; !ok {
		return nil, fmt.Errorf("record %q not found", ctx.ID)
	}
	s.records[ctx.ID] = ctx.Data
	return ctx.Data, nil
}

func (s *recordsService) Remove(ctx *hooks.Context) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[ctx.ID]
	if !ok {
		return nil, fmt.Errorf("record %q not found", ctx.ID)
	}
	delete(s.records, ctx.ID)
	return record, nil
}

func (s *recordsService) MethodNames() []string {
	return []string{"count"}
}

func (s *recordsService) Call(method string, ctx *hooks.Context) (any, error) {
	switch method {
	case "count":
		s.mu.Lock()
		defer s.mu.Unlock()
		return map[string]any{"count": len(s.records)}, nil
	default:
		return nil, fmt.Errorf("unknown custom method %q", method)
	}
}
