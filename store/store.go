// Package store defines the representation store backing widget state: a
// session-scoped key-value store with hierarchical dotted keys. Stores are
// always injected explicitly; there is no process-wide store.
package store

import (
	"sort"

	"github.com/google/uuid"
)

// Store is the minimal contract the state layer needs from a session store.
// Keys are hierarchical dotted strings, e.g. "formstate.Config.amount.0".
type Store interface {
	Get(key string) (any, bool)
	Set(key string, v any)
	Contains(key string) bool
}

// Memory is an in-memory session store. It is single-writer by construction:
// one render pass executes at a time, so no locking is needed, and every Set
// is immediately visible to subsequent Gets within the same pass.
type Memory struct {
	id string
	m  map[string]any
}

// NewMemory returns an empty session store with a fresh session ID.
func NewMemory() *Memory {
	return &Memory{id: uuid.NewString(), m: map[string]any{}}
}

// ID returns the session identifier, used for log correlation.
func (s *Memory) ID() string { return s.id }

// Get returns the value stored under key.
func (s *Memory) Get(key string) (any, bool) {
	v, ok := s.m[key]
	return v, ok
}

// Set stores a value under key.
func (s *Memory) Set(key string, v any) { s.m[key] = v }

// Contains reports whether key holds a value.
func (s *Memory) Contains(key string) bool {
	_, ok := s.m[key]
	return ok
}

// Keys returns all populated keys in sorted order. Intended for tests and
// diagnostics.
func (s *Memory) Keys() []string {
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of populated keys.
func (s *Memory) Len() int { return len(s.m) }
