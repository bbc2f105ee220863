package formstate

// Package formstate provides:
//
// - Declarative object schemas with typed, constrained fields (schema)
// - Type-directed converter dispatch over a supertype lattice (typeref, factory)
// - A state manager that mirrors one canonical object into widget state keys
//   and folds committed edits back in atomically (Manager, ApplyDelta)
// - Eager and lazy whole-object text editors plus per-field controls
//
// Design policy:
// - Keep only the manager and node model in the root package; put the schema
//   layer under schema/, dispatch under typeref/ and factory/, state backends
//   under store/, and the rendering contract under widget/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  spec := buildSpec()
//  m, err := formstate.New(spec, formstate.WithRenderer(r))
//  v, err := m.Form()
//
//  v, err = m.Widget("threshold")
//  _, err = m.LazyEditor()
//
