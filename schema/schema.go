// Package schema provides the field metadata and whole-object parse/serialize
// pair the state layer binds widgets to: typed fields with defaults and
// constraints, declaration-ordered JSON text rendering, and a validating
// constructor that never partially applies an edit.
package schema

import (
	"fmt"
	"sort"

	"github.com/formstate/formstate/i18n"
	"github.com/formstate/formstate/typeref"
	"github.com/formstate/formstate/widget"
)

// Field describes one declared field of a structured type.
type Field struct {
	Name string
	Type *typeref.Ref

	// Default is applied when the field is absent from input. A nil Default
	// means the field has none.
	Default any

	Title       string
	Description string

	// AllowAbsent permits the field to be missing or null without a default.
	AllowAbsent bool

	// Numeric bounds. Inclusive and exclusive bounds are tracked separately
	// so widget option mapping can adjust exclusive bounds by one step.
	Min, Max                   any
	ExclusiveMin, ExclusiveMax any
	// Step is the multiple-of constraint.
	Step any
	// MaxLength bounds string length; zero means unbounded.
	MaxLength int

	// Model is non-nil when the field's type is itself a structured schema.
	Model Model

	// Widget optionally overrides type-based control selection.
	Widget widget.Kind
}

// Label returns the human title, falling back to the field name.
func (f Field) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// Model is the schema-provider contract consumed by the state layer.
// Object values are opaque to the caller; ObjectSpec uses map[string]any.
type Model interface {
	Name() string
	// Fields lists the declared fields in declaration order.
	Fields() []Field
	// Get returns the named attribute of an object value.
	Get(obj any, name string) any
	// New validates candidate data and constructs an object, applying
	// defaults and cross-field rules. It returns Issues on failure and never
	// mutates its input.
	New(data map[string]any) (any, error)
	// Parse validates serialized text and reconstructs an object.
	Parse(text string) (any, error)
	// Serialize renders an object as indented text with stable key ordering
	// equal to declaration order.
	Serialize(obj any) (string, error)
}

// YAMLRenderer is implemented by models that can additionally render objects
// as YAML with stable key ordering, for read-only views.
type YAMLRenderer interface {
	YAML(obj any) (string, error)
}

// Refiner is an object-level cross-field rule, executed after every field
// validates individually.
type refine struct {
	name string
	fn   func(data map[string]any) error
}

// ObjectSpec is the reference Model implementation. Values are
// map[string]any keyed by field name.
type ObjectSpec struct {
	name    string
	ref     *typeref.Ref
	fields  []Field
	index   map[string]int
	refines []refine
	indent  int
}

var _ Model = (*ObjectSpec)(nil)
var _ YAMLRenderer = (*ObjectSpec)(nil)

// Name returns the schema name.
func (s *ObjectSpec) Name() string { return s.name }

// Ref returns the type descriptor for this schema; it derives from
// typeref.ModelBase so model converters resolve for fields of this type.
func (s *ObjectSpec) Ref() *typeref.Ref { return s.ref }

// Fields returns the declared fields in declaration order.
func (s *ObjectSpec) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the declared field with the given name.
func (s *ObjectSpec) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Get returns the named attribute of an object value.
func (s *ObjectSpec) Get(obj any, name string) any {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil
	}
	return m[name]
}

// Default constructs the object built purely from field defaults.
func (s *ObjectSpec) Default() (any, error) {
	return s.New(map[string]any{})
}

// New validates candidate data and constructs a fresh object.
func (s *ObjectSpec) New(data map[string]any) (any, error) {
	out := make(map[string]any, len(s.fields))
	var iss Issues
	for _, f := range s.fields {
		raw, present := data[f.Name]
		if !present {
			switch {
			case f.Default != nil:
				out[f.Name] = f.Default
			case f.AllowAbsent:
				out[f.Name] = nil
			default:
				iss = AppendIssues(iss, Issue{
					Path: "/" + f.Name, Code: CodeRequired, Message: i18n.T(CodeRequired, nil),
				})
			}
			continue
		}
		v, i2 := coerceField(f, raw)
		if len(i2) > 0 {
			iss = AppendIssues(iss, i2...)
			continue
		}
		out[f.Name] = v
	}

	// unknown keys in sorted order for deterministic issue lists
	var unknown []string
	for k := range data {
		if _, known := s.index[k]; !known {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		iss = AppendIssues(iss, Issue{Path: "/" + k, Code: CodeUnknownKey, Message: i18n.T(CodeUnknownKey, nil)})
	}

	if len(iss) > 0 {
		return nil, iss
	}

	for _, r := range s.refines {
		if err := r.fn(out); err != nil {
			if child, ok := AsIssues(err); ok {
				return nil, child
			}
			return nil, Issues{{
				Path: "/", Code: CodeBusinessRule, Message: err.Error(), Cause: err, Rule: r.name,
			}}
		}
	}
	return out, nil
}

// ObjectBuilder assembles an ObjectSpec. The zero indent defaults to two
// spaces per level.
type ObjectBuilder struct {
	name    string
	fields  []Field
	refines []refine
	indent  int
	errs    []error
}

// NewObject creates a builder for a schema with the given name.
func NewObject(name string) *ObjectBuilder {
	return &ObjectBuilder{name: name, indent: 2}
}

// FieldStep scopes chained option calls to the most recently added field.
type FieldStep struct {
	b *ObjectBuilder
	i int
}

// Field declares a field with the given type.
func (b *ObjectBuilder) Field(name string, t *typeref.Ref) *FieldStep {
	b.fields = append(b.fields, Field{Name: name, Type: t})
	return &FieldStep{b: b, i: len(b.fields) - 1}
}

// Nested declares a field whose type is another structured schema.
func (b *ObjectBuilder) Nested(name string, m Model) *FieldStep {
	t := typeref.ModelBase
	if os, ok := m.(*ObjectSpec); ok {
		t = os.Ref()
	}
	b.fields = append(b.fields, Field{Name: name, Type: t, Model: m})
	return &FieldStep{b: b, i: len(b.fields) - 1}
}

// Refine adds a named cross-field rule, executed after per-field validation.
func (b *ObjectBuilder) Refine(name string, fn func(data map[string]any) error) *ObjectBuilder {
	if fn != nil {
		b.refines = append(b.refines, refine{name: name, fn: fn})
	}
	return b
}

// Indent sets the serialization indent size.
func (b *ObjectBuilder) Indent(n int) *ObjectBuilder {
	if n > 0 {
		b.indent = n
	}
	return b
}

// Build validates the declaration and produces an immutable ObjectSpec.
func (b *ObjectBuilder) Build() (*ObjectSpec, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	index := make(map[string]int, len(b.fields))
	for i, f := range b.fields {
		if f.Type == nil {
			return nil, fmt.Errorf("schema: field %q of %q has no type", f.Name, b.name)
		}
		if _, dup := index[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q in %q", f.Name, b.name)
		}
		index[f.Name] = i
	}
	fields := make([]Field, len(b.fields))
	copy(fields, b.fields)
	return &ObjectSpec{
		name:    b.name,
		ref:     typeref.Named(b.name, typeref.ModelBase),
		fields:  fields,
		index:   index,
		refines: append([]refine(nil), b.refines...),
		indent:  b.indent,
	}, nil
}

// MustBuild is Build for declaration sites that treat schema errors as fatal.
func (b *ObjectBuilder) MustBuild() *ObjectSpec {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func (f *FieldStep) field() *Field { return &f.b.fields[f.i] }

// Default sets the value applied when the field is absent.
func (f *FieldStep) Default(v any) *FieldStep { f.field().Default = v; return f }

// Title sets the human title used as the widget label.
func (f *FieldStep) Title(s string) *FieldStep { f.field().Title = s; return f }

// Help sets the description used as widget help text.
func (f *FieldStep) Help(s string) *FieldStep { f.field().Description = s; return f }

// Min sets the inclusive lower bound.
func (f *FieldStep) Min(v any) *FieldStep { f.field().Min = v; return f }

// Max sets the inclusive upper bound.
func (f *FieldStep) Max(v any) *FieldStep { f.field().Max = v; return f }

// ExclusiveMin sets the exclusive lower bound.
func (f *FieldStep) ExclusiveMin(v any) *FieldStep { f.field().ExclusiveMin = v; return f }

// ExclusiveMax sets the exclusive upper bound.
func (f *FieldStep) ExclusiveMax(v any) *FieldStep { f.field().ExclusiveMax = v; return f }

// Step sets the multiple-of constraint.
func (f *FieldStep) Step(v any) *FieldStep { f.field().Step = v; return f }

// MaxLength bounds string length.
func (f *FieldStep) MaxLength(n int) *FieldStep { f.field().MaxLength = n; return f }

// AllowAbsent permits the field to be missing or null without a default.
func (f *FieldStep) AllowAbsent() *FieldStep { f.field().AllowAbsent = true; return f }

// Widget overrides the type-based control selection for this field.
func (f *FieldStep) Widget(k widget.Kind) *FieldStep { f.field().Widget = k; return f }

// Field starts the next field declaration.
func (f *FieldStep) Field(name string, t *typeref.Ref) *FieldStep { return f.b.Field(name, t) }

// Nested starts the next field declaration with a nested schema.
func (f *FieldStep) Nested(name string, m Model) *FieldStep { return f.b.Nested(name, m) }

// Refine delegates to the builder-level Refine.
func (f *FieldStep) Refine(name string, fn func(data map[string]any) error) *ObjectBuilder {
	return f.b.Refine(name, fn)
}

// Build delegates to the builder-level Build.
func (f *FieldStep) Build() (*ObjectSpec, error) { return f.b.Build() }

// MustBuild delegates to the builder-level MustBuild.
func (f *FieldStep) MustBuild() *ObjectSpec { return f.b.MustBuild() }
