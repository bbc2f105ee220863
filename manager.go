package formstate

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"

	"github.com/formstate/formstate/factory"
	"github.com/formstate/formstate/schema"
	"github.com/formstate/formstate/store"
	"github.com/formstate/formstate/widget"
)

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	store    store.Store
	renderer widget.Renderer
	factory  *factory.Factory
	logger   *slog.Logger
	baseKey  string
	onError  func(error)
}

// WithStore injects the session representation store.
func WithStore(st store.Store) Option { return func(c *managerConfig) { c.store = st } }

// WithRenderer attaches the widget toolkit.
func WithRenderer(r widget.Renderer) Option { return func(c *managerConfig) { c.renderer = r } }

// WithFactory replaces the converter factory.
func WithFactory(f *factory.Factory) Option { return func(c *managerConfig) { c.factory = f } }

// WithLogger attaches a structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *managerConfig) { c.logger = l } }

// WithBaseKey overrides the root representation key.
func WithBaseKey(key string) Option { return func(c *managerConfig) { c.baseKey = key } }

// WithErrorHandler replaces how recoverable validation failures are surfaced.
func WithErrorHandler(fn func(error)) Option { return func(c *managerConfig) { c.onError = fn } }

// Manager binds one schema to a node tree and applies representation deltas:
// whenever a UI edit reports a changed key, the manager re-derives the
// canonical object from the representations and either commits it atomically
// or rolls back and surfaces the validation failure.
type Manager struct {
	spec     schema.Model
	node     *ModelNode
	st       store.Store
	renderer widget.Renderer
	log      *slog.Logger
	onError  func(error)
	lastErr  error
}

// New binds a schema. When the base key already holds serialized text in the
// store (a previous render pass committed it), the canonical value is
// reconstructed from that text instead of the schema defaults.
func New(spec schema.Model, opts ...Option) (*Manager, error) {
	cfg := managerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.store == nil {
		cfg.store = store.NewMemory()
	}
	if cfg.renderer == nil {
		cfg.renderer = widget.Discard{}
	}
	if cfg.factory == nil {
		cfg.factory = factory.Default()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	// Stores carrying a session ID get it attached to every log record.
	if ider, ok := cfg.store.(interface{ ID() string }); ok {
		cfg.logger = cfg.logger.With("session", ider.ID())
	}
	if cfg.baseKey == "" {
		cfg.baseKey = "formstate." + spec.Name()
	}

	var value any
	if raw, ok := cfg.store.Get(cfg.baseKey); ok {
		text, isText := raw.(string)
		if !isText {
			return nil, fmt.Errorf("formstate: base key %q holds %T, expected serialized text", cfg.baseKey, raw)
		}
		v, err := spec.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("formstate: base key %q: %w", cfg.baseKey, err)
		}
		value = v
	} else {
		v, err := spec.New(map[string]any{})
		if err != nil {
			return nil, fmt.Errorf("formstate: %s defaults: %w", spec.Name(), err)
		}
		value = v
	}

	node, err := NewModelNode(value, spec, cfg.factory, NodeConfig{
		BaseKey: cfg.baseKey,
		Store:   cfg.store,
		Logger:  cfg.logger,
	})
	if err != nil {
		return nil, err
	}

	m := &Manager{
		spec:     spec,
		node:     node,
		st:       cfg.store,
		renderer: cfg.renderer,
		log:      cfg.logger,
	}
	m.onError = cfg.onError
	if m.onError == nil {
		m.onError = func(err error) {
			m.log.Error("validation failure", "schema", spec.Name(), "error", err)
			m.renderer.Render(widget.Spec{
				Kind:  widget.ErrorBox,
				Key:   node.BaseKey() + "._error",
				Value: err.Error(),
			})
		}
	}
	return m, nil
}

// Node returns the root model node.
func (m *Manager) Node() *ModelNode { return m.node }

// BaseKey returns the root representation key.
func (m *Manager) BaseKey() string { return m.node.BaseKey() }

// Value returns the canonical object.
func (m *Manager) Value() any { return m.node.Value() }

// SetValue replaces the canonical object and re-synchronizes every
// representation.
func (m *Manager) SetValue(v any) error { return m.node.SetValue(v) }

// Sync re-synchronizes representations from the current canonical object.
func (m *Manager) Sync(updateLazy bool) error { return m.node.Sync(updateLazy) }

// Err returns the most recently surfaced validation failure, or nil when the
// last delta applied cleanly.
func (m *Manager) Err() error { return m.lastErr }

func (m *Manager) surface(err error) {
	m.lastErr = err
	m.onError(err)
}

// ApplyDelta re-derives the canonical object after the representation behind
// key changed. Whole-object keys go through the schema's parse; field keys
// reconstruct candidate data from every field's representation so cross-field
// rules see the whole object. A validation failure rolls the canonical value
// back untouched.
func (m *Manager) ApplyDelta(key string) {
	if m.node.OwnsKey(key) {
		m.applyObjectDelta(key)
	}
	for _, name := range m.node.FieldNames() {
		child, _ := m.node.Child(name)
		if child.OwnsKey(key) {
			m.applyFieldDelta(key, name)
		}
	}
}

func (m *Manager) applyObjectDelta(key string) {
	original := m.node.Value()
	raw, _ := m.st.Get(key)
	obj, err := m.node.Decode(raw)
	if err != nil {
		m.surface(err)
		if err2 := m.node.SetValue(original); err2 != nil {
			m.log.Error("rollback failed", "key", key, "error", err2)
		}
		return
	}
	m.lastErr = nil
	if err := m.node.SetValue(obj); err != nil {
		m.surface(err)
	}
}

func (m *Manager) applyFieldDelta(key, fieldName string) {
	original := m.node.Value()
	rollback := func() {
		if err := m.node.SetValue(original); err != nil {
			m.log.Error("rollback failed", "key", key, "error", err)
		}
	}

	data := make(map[string]any, len(m.node.FieldNames()))
	for _, name := range m.node.FieldNames() {
		child, _ := m.node.Child(name)
		srcKey := child.BaseKey()
		if name == fieldName {
			srcKey = key
		}
		raw, _ := m.st.Get(srcKey)
		v, err := child.Decode(raw)
		if err != nil {
			m.surface(err)
			rollback()
			return
		}
		data[name] = v
	}

	obj, err := m.spec.New(data)
	if err != nil {
		m.surface(err)
		rollback()
		return
	}
	m.lastErr = nil
	if err := m.node.SetValue(obj); err != nil {
		m.surface(err)
	}
}

// Dump renders the canonical object as a deep value dump for debugging.
func (m *Manager) Dump() string {
	s := spew.Sdump(m.Value())
	m.renderer.Render(widget.Spec{
		Kind:     widget.Code,
		Key:      m.node.BaseKey() + "._dump",
		Language: "go",
		Value:    s,
	})
	return s
}

// YAML renders the canonical object read-only as YAML, using the schema's
// stable-ordered rendering when it provides one.
func (m *Manager) YAML() (string, error) {
	var text string
	if yr, ok := m.spec.(schema.YAMLRenderer); ok {
		y, err := yr.YAML(m.Value())
		if err != nil {
			return "", err
		}
		text = y
	} else {
		b, err := yaml.Marshal(m.Value())
		if err != nil {
			return "", err
		}
		text = string(b)
	}
	m.renderer.Render(widget.Spec{
		Kind:     widget.Code,
		Key:      m.node.BaseKey() + "._yaml",
		Language: "yaml",
		Value:    text,
	})
	return text, nil
}
