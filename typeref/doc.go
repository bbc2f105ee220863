// Package typeref implements the type lookup engine: explicit tagged type
// descriptors (Ref), C3 linearization over declared supertypes, and
// generic-aware resolution of registered converters.
//
// Resolution is deterministic and fails fast: an ambiguous match is an
// AmbiguousDispatchError at lookup time, never a silent pick.
package typeref
