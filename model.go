package formstate

import (
	"fmt"

	"github.com/formstate/formstate/factory"
	"github.com/formstate/formstate/schema"
	"github.com/formstate/formstate/widget"
)

// ModelNode is a Node whose canonical value is a structured object. It owns
// one child node per declared field; after any successful synchronization
// every child's value equals the matching attribute of the canonical object.
type ModelNode struct {
	Node

	spec     schema.Model
	fac      *factory.Factory
	order    []string
	children map[string]FieldNode
}

var _ FieldNode = (*ModelNode)(nil)

// NewModelNode binds a schema to a node tree. Every declared field resolves
// its converter triple through the factory (field-name selectors first) and
// becomes a child node; fields carrying a nested schema become nested
// ModelNodes. Construction fails on the first field whose type resolves no
// widget converter.
func NewModelNode(value any, spec schema.Model, fac *factory.Factory, cfg NodeConfig) (*ModelNode, error) {
	if spec == nil {
		return nil, fmt.Errorf("formstate: model node needs a schema")
	}
	if cfg.BaseKey == "" {
		cfg.BaseKey = "formstate." + spec.Name()
	}
	if cfg.Name == "" {
		cfg.Name = spec.Name()
	}
	// The whole-object codec is the schema's own serialize/parse pair.
	if cfg.Encode == nil {
		cfg.Encode = func(v any) (any, error) { return spec.Serialize(v) }
	}
	if cfg.Decode == nil {
		cfg.Decode = func(raw any) (any, error) {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("formstate: %s expects serialized text, got %T", spec.Name(), raw)
			}
			return spec.Parse(s)
		}
	}
	if cfg.Widget == nil {
		label := cfg.Name
		cfg.Widget = func(v any) widget.Spec {
			return widget.Spec{Kind: widget.TextArea, Label: label, Value: v}
		}
	}

	base, err := NewNode(value, cfg)
	if err != nil {
		return nil, err
	}
	mn := &ModelNode{
		Node:     *base,
		spec:     spec,
		fac:      fac,
		children: map[string]FieldNode{},
	}
	mn.Node.afterSync = mn.pushChildren

	for _, f := range spec.Fields() {
		fv := spec.Get(value, f.Name)
		convs, err := fac.ForField(f)
		if err != nil {
			return nil, err
		}
		childCfg := NodeConfig{
			Name:    f.Name,
			BaseKey: cfg.BaseKey + "." + f.Name,
			Store:   cfg.Store,
			Logger:  cfg.Logger,
			Widget:  convs.Widget,
		}
		var child FieldNode
		if f.Model != nil {
			// Nested models serialize through their own schema.
			child, err = NewModelNode(fv, f.Model, fac, childCfg)
		} else {
			childCfg.Encode = convs.Encode
			childCfg.Decode = convs.Decode
			child, err = NewNode(fv, childCfg)
		}
		if err != nil {
			return nil, err
		}
		mn.order = append(mn.order, f.Name)
		mn.children[f.Name] = child
	}
	return mn, nil
}

// Spec returns the bound schema.
func (mn *ModelNode) Spec() schema.Model { return mn.spec }

// FieldNames returns the child field names in declaration order.
func (mn *ModelNode) FieldNames() []string {
	out := make([]string, len(mn.order))
	copy(out, mn.order)
	return out
}

// Child returns the node bound to the named field.
func (mn *ModelNode) Child(name string) (FieldNode, bool) {
	c, ok := mn.children[name]
	return c, ok
}

// pushChildren propagates the canonical object's attribute values down into
// the child nodes, parent to children only.
func (mn *ModelNode) pushChildren(bool) error {
	obj := mn.Node.Value()
	for _, name := range mn.order {
		child := mn.children[name]
		if err := child.SetValue(mn.spec.Get(obj, name)); err != nil {
			return fmt.Errorf("formstate: %s.%s: %w", mn.Name(), name, err)
		}
	}
	return nil
}
