package formstate

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/formstate/formstate/store"
	"github.com/formstate/formstate/widget"
)

// KeyKind classifies a representation key.
type KeyKind int

const (
	// KeyBase backs the canonical serialized representation.
	KeyBase KeyKind = iota
	// KeyReplicated (eager) representations mirror the canonical value; they
	// receive the base representation on commit and the toolkit's own change
	// propagation keeps them current between commits.
	KeyReplicated
	// KeyLazy representations evolve independently until an explicit pull.
	KeyLazy
)

// FieldNode is the contract shared by leaf nodes and composite model nodes.
type FieldNode interface {
	Name() string
	BaseKey() string
	Value() any
	SetValue(v any) error
	Sync(updateLazy bool) error
	CommitKey(key string, kind KeyKind) error
	NextKey() (string, error)
	GenKey(suffix string) (string, error)
	Keys() []string
	OwnsKey(key string) bool
	Encode(v any) (any, error)
	Decode(raw any) (any, error)
	WidgetSpec(v any) widget.Spec
}

// NodeConfig carries the dependencies a node needs. Store and BaseKey are
// required; Encode/Decode default to the identity.
type NodeConfig struct {
	Name    string
	BaseKey string
	Store   store.Store
	Logger  *slog.Logger
	Widget  func(v any) widget.Spec
	Encode  func(v any) (any, error)
	Decode  func(raw any) (any, error)
}

// Node is a value with one or more synchronized representations: a canonical
// value, a base representation key holding its serialized form, and ordered
// sets of replicated and lazy keys.
type Node struct {
	name       string
	baseKey    string
	replicated []string
	lazy       []string
	keySet     map[string]struct{}

	value   any
	initial any

	st  store.Store
	log *slog.Logger

	widgetFn func(v any) widget.Spec
	encode   func(v any) (any, error)
	decode   func(raw any) (any, error)

	// afterSync runs at the end of every Sync; composite nodes use it to
	// push attribute values down into their children.
	afterSync func(updateLazy bool) error
}

var _ FieldNode = (*Node)(nil)

func identityConv(v any) (any, error) { return v, nil }

// NewNode constructs a leaf node and commits the initial serialized value to
// the base key unless the store already holds one.
func NewNode(value any, cfg NodeConfig) (*Node, error) {
	if cfg.BaseKey == "" {
		return nil, fmt.Errorf("formstate: node %q needs a base key", cfg.Name)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("formstate: node %q needs a store", cfg.Name)
	}
	n := &Node{
		name:     cfg.Name,
		baseKey:  cfg.BaseKey,
		keySet:   map[string]struct{}{cfg.BaseKey: {}},
		st:       cfg.Store,
		log:      cfg.Logger,
		widgetFn: cfg.Widget,
		encode:   cfg.Encode,
		decode:   cfg.Decode,
	}
	if n.log == nil {
		n.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if n.encode == nil {
		n.encode = identityConv
	}
	if n.decode == nil {
		n.decode = identityConv
	}
	if n.widgetFn == nil {
		name := n.name
		n.widgetFn = func(v any) widget.Spec {
			return widget.Spec{Kind: widget.TextInput, Label: name, Value: v}
		}
	}

	// The initial value persists across render passes so dependent state
	// survives reconstruction.
	initialKey := n.baseKey + "._initial_value"
	if stored, ok := n.st.Get(initialKey); ok {
		n.initial = stored
	} else {
		n.st.Set(initialKey, value)
		n.initial = value
	}

	n.value = value
	if !n.st.Contains(n.baseKey) {
		enc, err := n.encode(value)
		if err != nil {
			return nil, fmt.Errorf("formstate: node %q: %w", n.name, err)
		}
		n.st.Set(n.baseKey, enc)
	}
	return n, nil
}

// Name returns the node's display name.
func (n *Node) Name() string { return n.name }

// BaseKey returns the key backing the canonical serialized representation.
func (n *Node) BaseKey() string { return n.baseKey }

// InitialValue returns the value the node was first constructed with in this
// session.
func (n *Node) InitialValue() any { return n.initial }

// Value returns the canonical value.
func (n *Node) Value() any { return n.value }

// SetValue replaces the canonical value, writes its serialized form to the
// base key, and propagates to every dependent representation including lazy
// keys.
func (n *Node) SetValue(v any) error {
	n.value = v
	return n.Sync(true)
}

// Sync recomputes the serialized representation once and writes it to the
// base key, and to every lazy key when updateLazy is set. Replicated keys are
// written on commit only; rewriting them every sync would fight user edits
// mid-keystroke.
func (n *Node) Sync(updateLazy bool) error {
	enc, err := n.encode(n.value)
	if err != nil {
		return fmt.Errorf("formstate: node %q: %w", n.name, err)
	}
	n.log.Debug("sync", "node", n.name, "base_key", n.baseKey, "update_lazy", updateLazy)
	n.st.Set(n.baseKey, enc)
	if updateLazy {
		for _, k := range n.lazy {
			n.st.Set(k, enc)
		}
	}
	if n.afterSync != nil {
		return n.afterSync(updateLazy)
	}
	return nil
}

// CommitKey registers a representation key. Committing a replicated key
// copies the base representation into it; committing a lazy key copies only
// when the key holds no value yet, so repeated commits across render passes
// are idempotent.
func (n *Node) CommitKey(key string, kind KeyKind) error {
	switch kind {
	case KeyBase:
		n.baseKey = key
		n.keySet[key] = struct{}{}
	case KeyReplicated:
		if _, tracked := n.keySet[key]; !tracked {
			n.replicated = append(n.replicated, key)
			n.keySet[key] = struct{}{}
		}
		v, _ := n.st.Get(n.baseKey)
		n.st.Set(key, v)
	case KeyLazy:
		if _, tracked := n.keySet[key]; !tracked {
			n.lazy = append(n.lazy, key)
			n.keySet[key] = struct{}{}
		}
		if !n.st.Contains(key) {
			v, _ := n.st.Get(n.baseKey)
			n.st.Set(key, v)
		}
	default:
		return fmt.Errorf("formstate: node %q: unknown key kind %d", n.name, kind)
	}
	return nil
}

// NextKey produces a representation key guaranteed not to collide with any
// key this node already tracks.
func (n *Node) NextKey() (string, error) {
	return nextAvailableKey(n.baseKey+"._state_ref", func(k string) bool {
		_, taken := n.keySet[k]
		return taken
	}, maxProbedKeys)
}

// GenKey returns "{base}.{suffix}", or a fresh probed key when suffix is
// empty.
func (n *Node) GenKey(suffix string) (string, error) {
	if suffix == "" {
		return n.NextKey()
	}
	return n.baseKey + "." + suffix, nil
}

// Keys returns the base, replicated, and lazy keys in that order.
func (n *Node) Keys() []string {
	out := make([]string, 0, 1+len(n.replicated)+len(n.lazy))
	out = append(out, n.baseKey)
	out = append(out, n.replicated...)
	out = append(out, n.lazy...)
	return out
}

// OwnsKey reports whether the node tracks the given representation key.
func (n *Node) OwnsKey(key string) bool {
	_, ok := n.keySet[key]
	return ok
}

// Encode serializes a value for display.
func (n *Node) Encode(v any) (any, error) { return n.encode(v) }

// Decode parses a display representation back into a canonical value.
func (n *Node) Decode(raw any) (any, error) { return n.decode(raw) }

// WidgetSpec builds the control spec displaying the given representation.
func (n *Node) WidgetSpec(v any) widget.Spec { return n.widgetFn(v) }
