// Package factory associates conversion functions with field names or type
// descriptors, and resolves the converter triple (widget, encode, decode) for
// each declared field. Registration is an explicit static table built through
// a Builder; there is no runtime introspection.
package factory

import (
	"errors"
	"fmt"

	"github.com/formstate/formstate/schema"
	"github.com/formstate/formstate/typeref"
	"github.com/formstate/formstate/widget"
)

// Role names the conversion a converter performs.
type Role string

const (
	RoleWidget Role = "widget"
	RoleEncode Role = "encode" // canonical value -> display representation
	RoleDecode Role = "decode" // display representation -> canonical value
)

// WidgetConverter builds the control spec builder for a field. The returned
// function maps the field's current value to a Spec; the state layer fills in
// the store key and change handlers before rendering.
type WidgetConverter func(f schema.Field) func(v any) widget.Spec

// CodecConverter builds one direction of the display codec for a field.
type CodecConverter func(f schema.Field) func(v any) (any, error)

// Selector picks the fields a converter applies to: either an explicit set
// of field names or a set of type descriptors, never both.
type Selector struct {
	Fields []string
	Types  []*typeref.Ref
}

// ForFields selects by explicit field names.
func ForFields(names ...string) Selector { return Selector{Fields: names} }

// ForTypes selects by type descriptors.
func ForTypes(refs ...*typeref.Ref) Selector { return Selector{Types: refs} }

// AmbiguousAssociationError reports a converter registered with conflicting
// selector kinds. It is fatal at Build time.
type AmbiguousAssociationError struct {
	Converter string
	Role      Role
}

func (e *AmbiguousAssociationError) Error() string {
	return fmt.Sprintf("factory: converter %q (%s) must select either fields or types, not both and not neither",
		e.Converter, e.Role)
}

// UnsupportedTypeError reports a field whose declared type resolves no widget
// converter. It is fatal when the field's node is constructed.
type UnsupportedTypeError struct {
	Field string
	Type  *typeref.Ref
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("factory: no widget converter for field %q of type %s", e.Field, e.Type)
}

// AsUnsupportedType extracts an UnsupportedTypeError using errors.As.
func AsUnsupportedType(err error) (*UnsupportedTypeError, bool) {
	var ut *UnsupportedTypeError
	if errors.As(err, &ut) {
		return ut, true
	}
	return nil, false
}

// association is one immutable registration row.
type association struct {
	name     string
	role     Role
	selector Selector
	widget   WidgetConverter
	codec    CodecConverter
}

// Builder assembles the registration table for a Factory.
type Builder struct {
	rows []association
}

// NewBuilder returns an empty registration table.
func NewBuilder() *Builder { return &Builder{} }

// Widget registers a named widget converter under a selector.
func (b *Builder) Widget(name string, sel Selector, fn WidgetConverter) *Builder {
	b.rows = append(b.rows, association{name: name, role: RoleWidget, selector: sel, widget: fn})
	return b
}

// Encode registers a named serialize-for-display converter under a selector.
func (b *Builder) Encode(name string, sel Selector, fn CodecConverter) *Builder {
	b.rows = append(b.rows, association{name: name, role: RoleEncode, selector: sel, codec: fn})
	return b
}

// Decode registers a named parse-from-display converter under a selector.
func (b *Builder) Decode(name string, sel Selector, fn CodecConverter) *Builder {
	b.rows = append(b.rows, association{name: name, role: RoleDecode, selector: sel, codec: fn})
	return b
}

// Build validates every association and produces an immutable Factory.
func (b *Builder) Build() (*Factory, error) {
	for _, row := range b.rows {
		hasFields := len(row.selector.Fields) > 0
		hasTypes := len(row.selector.Types) > 0
		if hasFields == hasTypes {
			return nil, &AmbiguousAssociationError{Converter: row.name, Role: row.role}
		}
	}
	f := &Factory{
		rows:      append([]association(nil), b.rows...),
		fieldMaps: map[Role]map[string]association{},
		typeMaps:  map[Role]*typeref.Registry[association]{},
	}
	return f, nil
}

// MustBuild is Build for declaration sites that treat registration errors as
// fatal configuration errors.
func (b *Builder) MustBuild() *Factory {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// Converters is the resolved triple for one field. Encode and Decode default
// to the identity.
type Converters struct {
	Widget func(v any) widget.Spec
	Encode func(v any) (any, error)
	Decode func(v any) (any, error)
}

// Factory resolves converters for fields. Per-role selector maps are built
// lazily and memoized for the factory's lifetime; the factory itself is
// immutable after Build.
type Factory struct {
	rows      []association
	fieldMaps map[Role]map[string]association
	typeMaps  map[Role]*typeref.Registry[association]
}

func identity(v any) (any, error) { return v, nil }

// ForField resolves the converter triple for one declared field. Field-name
// selectors take precedence over type-based resolution; a field with no
// widget converter is an UnsupportedTypeError.
func (f *Factory) ForField(fld schema.Field) (Converters, error) {
	out := Converters{
		Encode: identity,
		Decode: identity,
	}

	w, ok, err := f.lookup(RoleWidget, fld)
	if err != nil {
		return Converters{}, err
	}
	if !ok {
		return Converters{}, &UnsupportedTypeError{Field: fld.Name, Type: fld.Type}
	}
	out.Widget = w.widget(fld)

	if enc, ok, err := f.lookup(RoleEncode, fld); err != nil {
		return Converters{}, err
	} else if ok {
		out.Encode = enc.codec(fld)
	}
	if dec, ok, err := f.lookup(RoleDecode, fld); err != nil {
		return Converters{}, err
	} else if ok {
		out.Decode = dec.codec(fld)
	}
	return out, nil
}

func (f *Factory) lookup(role Role, fld schema.Field) (association, bool, error) {
	if row, ok := f.fieldMap(role)[fld.Name]; ok {
		return row, true, nil
	}
	row, ok, err := typeref.Resolve(fld.Type, f.typeMap(role))
	if err != nil {
		return association{}, false, err
	}
	return row, ok, nil
}

func (f *Factory) fieldMap(role Role) map[string]association {
	if m, ok := f.fieldMaps[role]; ok {
		return m
	}
	m := map[string]association{}
	for _, row := range f.rows {
		if row.role != role {
			continue
		}
		for _, name := range row.selector.Fields {
			m[name] = row
		}
	}
	f.fieldMaps[role] = m
	return m
}

func (f *Factory) typeMap(role Role) *typeref.Registry[association] {
	if r, ok := f.typeMaps[role]; ok {
		return r
	}
	r := typeref.NewRegistry[association]()
	for _, row := range f.rows {
		if row.role != role {
			continue
		}
		for _, t := range row.selector.Types {
			r.Add(t, row)
		}
	}
	f.typeMaps[role] = r
	return r
}
