// Package widgettest provides a scripted Renderer for tests. It emulates a
// toolkit's commit cycle: a queued edit is written to the control's store
// slot, the spec's change handlers fire, and the stored value is returned as
// the control's raw value.
package widgettest

import (
	"github.com/formstate/formstate/store"
	"github.com/formstate/formstate/widget"
)

// Renderer records every rendered spec and replays queued edits.
type Renderer struct {
	st store.Store

	// Rendered collects specs in render order.
	Rendered []widget.Spec

	edits  map[string]any
	clicks map[string]bool
}

// New returns a scripted renderer bound to the given session store.
func New(st store.Store) *Renderer {
	return &Renderer{st: st, edits: map[string]any{}, clicks: map[string]bool{}}
}

// Edit queues a raw value to be committed the next time a control with the
// given key renders.
func (r *Renderer) Edit(key string, raw any) {
	r.edits[key] = raw
}

// Click queues a press for the button with the given key.
func (r *Renderer) Click(key string) {
	r.clicks[key] = true
}

// Render implements widget.Renderer.
func (r *Renderer) Render(s widget.Spec) any {
	r.Rendered = append(r.Rendered, s)

	if s.Kind == widget.Button {
		if r.clicks[s.Key] {
			delete(r.clicks, s.Key)
			s.FireChange()
			return true
		}
		return false
	}

	if raw, ok := r.edits[s.Key]; ok {
		delete(r.edits, s.Key)
		r.st.Set(s.Key, raw)
		s.FireChange()
	}
	if v, ok := r.st.Get(s.Key); ok {
		return v
	}
	return s.Value
}

// Specs returns the rendered specs for a key, in render order.
func (r *Renderer) Specs(key string) []widget.Spec {
	var out []widget.Spec
	for _, s := range r.Rendered {
		if s.Key == key {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the most recently rendered spec of the given kind.
func (r *Renderer) Last(kind widget.Kind) (widget.Spec, bool) {
	for i := len(r.Rendered) - 1; i >= 0; i-- {
		if r.Rendered[i].Kind == kind {
			return r.Rendered[i], true
		}
	}
	return widget.Spec{}, false
}

// Reset clears the render log between passes.
func (r *Renderer) Reset() {
	r.Rendered = nil
}
