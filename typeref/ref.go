package typeref

import (
	"strings"
)

// Ref is an explicit, tagged type descriptor: a named type with ordered
// declared supertypes, optionally parameterized ({origin, args}) or wrapped
// in an optional modifier. Refs are created once, at type-universe setup,
// and compared by identity for named types and structurally for
// parameterized and optional shapes.
type Ref struct {
	name    string
	bases   []*Ref // declared supertypes, in declaration order
	impls   []*Ref // virtual marker supertypes (see Implements)
	marker  bool
	enum    bool
	members []Member

	origin *Ref // non-nil for parameterized refs
	args   []*Ref

	inner *Ref // non-nil for optional wrappers

	wildcard bool
}

// Member is a single enum member: a display name and its backing value.
type Member struct {
	Name  string
	Value any
}

// Built-in refs shared by every type universe. Object is the implicit root
// supertype; Any is the generic wildcard argument.
var (
	Object = &Ref{name: "object"}
	Any    = &Ref{name: "any", wildcard: true}

	Int    = Named("int")
	Float  = Named("float64")
	String = Named("string")
	Bool   = Named("bool")

	Time      = Named("datetime")
	Date      = Named("date")
	TimeOfDay = Named("time")

	// EnumBase is the common supertype of every enum ref. ModelBase is the
	// common supertype of refs describing nested structured schemas.
	EnumBase  = Named("enum")
	ModelBase = Named("model")

	// Color values are hex strings, so Color subtypes String.
	Color = Named("color", String)

	// Container origins for parameterized refs.
	List  = Named("list")
	Set   = Named("set")
	Map   = Named("map")
	Tuple = Named("tuple")
)

// Named declares a new named type with the given supertypes. A type declared
// without supertypes derives from Object.
func Named(name string, bases ...*Ref) *Ref {
	r := &Ref{name: name, bases: bases}
	if len(bases) == 0 {
		r.bases = []*Ref{Object}
	}
	return r
}

// Marker declares an abstract marker type. Markers participate in
// linearization as virtual bases of the types that implement them.
func Marker(name string, bases ...*Ref) *Ref {
	r := Named(name, bases...)
	r.marker = true
	return r
}

// Enum declares an enum type backed by the given primitive (for example a
// string-backed enum) with the given members. The backing type and EnumBase
// both become declared supertypes, backing first, mirroring the usual
// multi-base enum declaration order.
func Enum(name string, backing *Ref, members ...Member) *Ref {
	bases := []*Ref{EnumBase}
	if backing != nil {
		bases = []*Ref{backing, EnumBase}
	}
	r := Named(name, bases...)
	r.enum = true
	r.members = members
	return r
}

// Generic parameterizes an origin type with ordered type arguments,
// for example Generic(List, String).
func Generic(origin *Ref, args ...*Ref) *Ref {
	return &Ref{name: origin.name, origin: origin, args: args}
}

// Optional wraps a type in an optional (nullable) modifier. Lookup
// normalizes a single-type optional to its inner type.
func Optional(inner *Ref) *Ref {
	return &Ref{name: "optional", inner: inner}
}

// Implements records virtual marker supertypes that do not appear in the
// declared base chain. It returns r for chaining at declaration sites.
func (r *Ref) Implements(markers ...*Ref) *Ref {
	r.impls = append(r.impls, markers...)
	return r
}

// Normalize unwraps optional modifiers until a concrete ref remains.
func (r *Ref) Normalize() *Ref {
	for r != nil && r.inner != nil {
		r = r.inner
	}
	return r
}

// Origin returns the unparameterized origin for generic refs, or nil.
func (r *Ref) Origin() *Ref { return r.origin }

// Args returns the ordered type arguments for generic refs.
func (r *Ref) Args() []*Ref { return r.args }

// Bases returns the declared supertypes in declaration order.
func (r *Ref) Bases() []*Ref { return r.bases }

// Members returns the enum members, if any.
func (r *Ref) Members() []Member { return r.members }

// IsGeneric reports whether the ref is parameterized.
func (r *Ref) IsGeneric() bool { return r.origin != nil }

// IsOptional reports whether the ref is an optional wrapper.
func (r *Ref) IsOptional() bool { return r.inner != nil }

// IsAny reports whether the ref is the wildcard.
func (r *Ref) IsAny() bool { return r.wildcard }

// IsMarker reports whether the ref is an abstract marker.
func (r *Ref) IsMarker() bool { return r.marker }

// IsEnum reports whether the ref is an enum or derives from EnumBase.
func (r *Ref) IsEnum() bool { return r.enum || IsSubtype(r, EnumBase) }

// String renders the ref for error messages, e.g. "list[string]" or
// "optional[int]".
func (r *Ref) String() string {
	switch {
	case r == nil:
		return "<nil>"
	case r.inner != nil:
		return "optional[" + r.inner.String() + "]"
	case r.origin != nil:
		parts := make([]string, 0, len(r.args))
		for _, a := range r.args {
			parts = append(parts, a.String())
		}
		return r.origin.String() + "[" + strings.Join(parts, ", ") + "]"
	default:
		return r.name
	}
}

// Equal reports structural equality. Named refs are compared by identity;
// generic and optional refs compare their shape recursively.
func Equal(a, b *Ref) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.inner != nil || b.inner != nil {
		if a.inner == nil || b.inner == nil {
			return false
		}
		return Equal(a.inner, b.inner)
	}
	if a.origin != nil || b.origin != nil {
		if a.origin == nil || b.origin == nil {
			return false
		}
		if !Equal(a.origin, b.origin) || len(a.args) != len(b.args) {
			return false
		}
		for i := range a.args {
			if !Equal(a.args[i], b.args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// IsSubtype reports whether a derives from b through declared bases or
// virtual marker implementations. Every ref is a subtype of Object and of
// the wildcard.
func IsSubtype(a, b *Ref) bool {
	if a == nil || b == nil {
		return false
	}
	if Equal(a, b) {
		return true
	}
	if b == Object || b.wildcard {
		return true
	}
	if a.inner != nil {
		return IsSubtype(a.inner, b)
	}
	if b.origin != nil {
		// Generic supertypes only match structurally; handled by Equal above.
		return false
	}
	if a.origin != nil {
		return IsSubtype(a.origin, b)
	}
	for _, s := range a.bases {
		if IsSubtype(s, b) {
			return true
		}
	}
	for _, s := range a.impls {
		if IsSubtype(s, b) {
			return true
		}
	}
	return false
}
