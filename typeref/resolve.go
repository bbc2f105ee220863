package typeref

import (
	"errors"
	"fmt"
	"strings"
)

// Registry associates type refs with values (typically converters). Entries
// iterate in registration order so resolution is deterministic.
type Registry[V any] struct {
	entries []entry[V]
}

type entry[V any] struct {
	key *Ref
	val V
}

// NewRegistry returns an empty registry.
func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{}
}

// Add registers a value under a type ref, replacing any structurally equal
// key. It returns the registry for chaining.
func (r *Registry[V]) Add(key *Ref, v V) *Registry[V] {
	for i, e := range r.entries {
		if Equal(e.key, key) {
			r.entries[i].val = v
			return r
		}
	}
	r.entries = append(r.entries, entry[V]{key: key, val: v})
	return r
}

// Get returns the value registered under a structurally equal key.
func (r *Registry[V]) Get(key *Ref) (V, bool) {
	for _, e := range r.entries {
		if Equal(e.key, key) {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

// Keys returns the registered refs in registration order.
func (r *Registry[V]) Keys() []*Ref {
	out := make([]*Ref, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.key
	}
	return out
}

// Len returns the number of registered entries.
func (r *Registry[V]) Len() int { return len(r.entries) }

// AmbiguousDispatchError reports that two or more equally specific registry
// keys match a query. It is a configuration error and is never resolved
// silently.
type AmbiguousDispatchError struct {
	Query      *Ref
	Candidates []*Ref
}

func (e *AmbiguousDispatchError) Error() string {
	parts := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		parts = append(parts, c.String())
	}
	return fmt.Sprintf("typeref: ambiguous dispatch for %s: equally specific candidates %s",
		e.Query, strings.Join(parts, ", "))
}

// AsAmbiguousDispatch extracts an AmbiguousDispatchError using errors.As.
func AsAmbiguousDispatch(err error) (*AmbiguousDispatchError, bool) {
	var ad *AmbiguousDispatchError
	if errors.As(err, &ad) {
		return ad, true
	}
	return nil, false
}

// Resolve returns the best-matching value for ref.
//
// A single-type optional is unwrapped first. Parameterized refs are matched
// by recursive compatibility depth over {origin, args} rather than by
// linearization; the unique deepest match wins and an ambiguous depth tie is
// a hard failure. Non-generic refs walk an extended C3 linearization, with
// enum-derived registry keys tried first so that a multi-base enum resolves
// to its enum converter rather than to its primitive backing type.
//
// The boolean result is false when nothing matches; the caller decides
// whether that is fatal.
func Resolve[V any](ref *Ref, reg *Registry[V]) (V, bool, error) {
	var zero V
	ref = ref.Normalize()
	if ref == nil {
		return zero, false, nil
	}

	if ref.origin != nil {
		key, err := matchGeneric(ref, reg.Keys())
		if err != nil {
			return zero, false, err
		}
		if key == nil {
			return zero, false, nil
		}
		v, _ := reg.Get(key)
		return v, true, nil
	}

	if IsSubtype(ref, EnumBase) {
		sub := NewRegistry[V]()
		for _, e := range reg.entries {
			if e.key.IsEnum() {
				sub.Add(e.key, e.val)
			}
		}
		if v, ok, err := lookupLinear(ref, sub); err != nil || ok {
			return v, ok, err
		}
	}

	return lookupLinear(ref, reg)
}

// lookupLinear walks the composed linearization of cls and returns the value
// for the first registered ref. When the first match lives outside cls's own
// declared chain and an unrelated out-of-chain key occupies the next
// position, the lookup refuses to guess.
func lookupLinear[V any](cls *Ref, reg *Registry[V]) (V, bool, error) {
	var zero V
	mro, err := composeMRO(cls, reg.Keys())
	if err != nil {
		return zero, false, err
	}
	own, err := c3MRO(cls, nil)
	if err != nil {
		return zero, false, err
	}
	var match *Ref
	for _, t := range mro {
		if match != nil {
			if _, ok := reg.Get(t); ok &&
				!containsRef(own, t) && !containsRef(own, match) && !IsSubtype(match, t) {
				return zero, false, &AmbiguousDispatchError{Query: cls, Candidates: []*Ref{match, t}}
			}
			break
		}
		if _, ok := reg.Get(t); ok {
			match = t
		}
	}
	if match == nil {
		return zero, false, nil
	}
	v, _ := reg.Get(match)
	return v, true, nil
}

// matchGeneric scores every registry key by compatibility depth against the
// query and returns the unique deepest match, nil when nothing matches, or an
// AmbiguousDispatchError when the maximum depth is shared.
func matchGeneric(ref *Ref, keys []*Ref) (*Ref, error) {
	var best []*Ref
	maxDepth := -1
	for _, k := range keys {
		depth, ok := matchDepth(ref, k, 1)
		if !ok {
			continue
		}
		switch {
		case depth > maxDepth:
			best = []*Ref{k}
			maxDepth = depth
		case depth == maxDepth:
			best = append(best, k)
		}
	}
	switch len(best) {
	case 0:
		return nil, nil
	case 1:
		return best[0], nil
	default:
		return nil, &AmbiguousDispatchError{Query: ref, Candidates: best}
	}
}

// matchDepth reports whether cls is compatible with key, and how specific the
// match is. A wildcard argument matches anything at depth 1; nested generic
// arguments contribute their own matched depth.
func matchDepth(cls, key *Ref, depth int) (int, bool) {
	cls = cls.Normalize()
	key = key.Normalize()

	// A parameterization over a single wildcard means the bare origin.
	if cls.origin != nil && singleWildcard(cls.args) {
		cls = cls.origin
	}
	if key.origin != nil && singleWildcard(key.args) {
		key = key.origin
	}

	switch {
	case cls.origin != nil && key.origin != nil:
		if !IsSubtype(cls.origin, key.origin) {
			return depth, false
		}
		if len(cls.args) != len(key.args) {
			return depth, false
		}
		d := depth
		for i := range cls.args {
			ad, ok := matchDepth(cls.args[i], key.args[i], 1)
			d += ad
			if !ok {
				return depth, false
			}
		}
		return d, true
	case cls.origin != nil:
		// e.g. list[string] against a bare list key.
		return matchDepth(cls.origin, key, depth)
	case key.origin != nil:
		return depth, false
	case key.wildcard:
		return depth, true
	default:
		if IsSubtype(cls, key) {
			// A concrete match outranks a wildcard at the same position.
			return depth + 1, true
		}
		return depth, false
	}
}

func singleWildcard(args []*Ref) bool {
	return len(args) == 1 && args[0] != nil && args[0].wildcard
}
