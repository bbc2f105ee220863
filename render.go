package formstate

import (
	"fmt"

	"github.com/formstate/formstate/widget"
)

// WidgetOption adjusts how a control is rendered.
type WidgetOption func(*widgetOptions)

type widgetOptions struct {
	key       string
	keySuffix string
	label     string
	onChange  []func()
	validate  bool
	exclude   map[string]struct{}
}

func newWidgetOptions(opts []WidgetOption) widgetOptions {
	o := widgetOptions{validate: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithKey pins the control to an explicit representation key.
func WithKey(key string) WidgetOption { return func(o *widgetOptions) { o.key = key } }

// WithKeySuffix derives the representation key as "{base}.{suffix}".
func WithKeySuffix(suffix string) WidgetOption {
	return func(o *widgetOptions) { o.keySuffix = suffix }
}

// WithLabel overrides the control label.
func WithLabel(label string) WidgetOption { return func(o *widgetOptions) { o.label = label } }

// OnChange appends a handler to run after the built-in delta application.
func OnChange(fn func()) WidgetOption {
	return func(o *widgetOptions) { o.onChange = append(o.onChange, fn) }
}

// RawOutput returns the control's raw value instead of decoding it.
func RawOutput() WidgetOption { return func(o *widgetOptions) { o.validate = false } }

// Exclude skips the named fields when rendering a whole form.
func Exclude(names ...string) WidgetOption {
	return func(o *widgetOptions) {
		if o.exclude == nil {
			o.exclude = map[string]struct{}{}
		}
		for _, n := range names {
			o.exclude[n] = struct{}{}
		}
	}
}

// renderNode commits a replicated key for the control, renders it with the
// delta-application handler first in the change chain, and returns the
// (decoded) output.
func (m *Manager) renderNode(n FieldNode, o widgetOptions) (any, error) {
	if o.key != "" && o.keySuffix != "" {
		return nil, fmt.Errorf("formstate: only one of key and key suffix may be set")
	}
	key := o.key
	if key == "" {
		k, err := n.GenKey(o.keySuffix)
		if err != nil {
			return nil, err
		}
		key = k
	}
	if err := n.CommitKey(key, KeyReplicated); err != nil {
		return nil, err
	}

	enc, err := n.Encode(n.Value())
	if err != nil {
		return nil, err
	}
	spec := n.WidgetSpec(enc)
	spec.Key = key
	if o.label != "" {
		spec.Label = o.label
	}
	if spec.Label == "" {
		spec.Label = n.Name()
	}
	spec.OnChange = nil
	spec.AddOnChange(func() { m.ApplyDelta(key) })
	spec.AddOnChange(o.onChange...)

	raw := m.renderer.Render(spec)
	if o.validate {
		return n.Decode(raw)
	}
	return raw, nil
}

// Widget renders the control for one declared field and returns its decoded
// value.
func (m *Manager) Widget(fieldName string, opts ...WidgetOption) (any, error) {
	child, ok := m.node.Child(fieldName)
	if !ok {
		return nil, fmt.Errorf("formstate: %s has no field %q", m.spec.Name(), fieldName)
	}
	return m.renderNode(child, newWidgetOptions(opts))
}

// Form renders one control per declared field, in declaration order, and
// returns the canonical object.
func (m *Manager) Form(opts ...WidgetOption) (any, error) {
	o := newWidgetOptions(opts)
	for _, name := range m.node.FieldNames() {
		if _, skip := o.exclude[name]; skip {
			continue
		}
		child, _ := m.node.Child(name)
		fo := o
		fo.label = ""
		if _, err := m.renderNode(child, fo); err != nil {
			return nil, err
		}
	}
	return m.Value(), nil
}

// Editor renders the whole-object text editor in eager mode: every committed
// edit immediately re-derives the canonical object.
func (m *Manager) Editor(opts ...WidgetOption) (any, error) {
	return m.renderNode(m.node, newWidgetOptions(opts))
}

// LazyEditor renders the whole-object text editor in lazy mode: the text
// evolves independently and is pulled into the canonical object only when
// the adjacent Apply control fires.
func (m *Manager) LazyEditor(opts ...WidgetOption) (string, error) {
	o := newWidgetOptions(opts)
	if o.key != "" && o.keySuffix != "" {
		return "", fmt.Errorf("formstate: only one of key and key suffix may be set")
	}
	key := o.key
	if key == "" {
		k, err := m.node.GenKey(o.keySuffix)
		if err != nil {
			return "", err
		}
		key = k
	}
	if err := m.node.CommitKey(key, KeyLazy); err != nil {
		return "", err
	}

	current, _ := m.st.Get(key)
	spec := m.node.WidgetSpec(current)
	spec.Kind = widget.TextArea
	spec.Key = key
	if o.label != "" {
		spec.Label = o.label
	}
	if spec.Label == "" {
		spec.Label = m.spec.Name()
	}
	spec.OnChange = nil
	raw := m.renderer.Render(spec)

	apply := func() {
		text, _ := m.st.Get(key)
		obj, err := m.node.Decode(text)
		if err != nil {
			m.surface(err)
			return
		}
		m.lastErr = nil
		// SetValue re-syncs lazy keys, so the editor snaps back to the
		// canonical rendering of what was just applied.
		if err := m.node.SetValue(obj); err != nil {
			m.surface(err)
		}
	}
	button := widget.Spec{
		Kind:  widget.Button,
		Key:   key + "._button",
		Label: "Apply",
	}
	button.AddOnChange(apply)
	button.AddOnChange(o.onChange...)
	m.renderer.Render(button)

	s, _ := raw.(string)
	return s, nil
}

// Code renders the canonical serialized text read-only.
func (m *Manager) Code() (string, error) {
	raw, _ := m.st.Get(m.node.BaseKey())
	text, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("formstate: base key %q holds %T, expected serialized text", m.node.BaseKey(), raw)
	}
	m.renderer.Render(widget.Spec{
		Kind:     widget.Code,
		Key:      m.node.BaseKey() + "._code",
		Language: "json",
		Value:    text,
	})
	return text, nil
}
