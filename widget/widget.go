// Package widget defines the boundary to the rendering toolkit. The toolkit
// itself is opaque: a Renderer displays a control described by a Spec and
// returns the captured raw value. Change notification is an explicit ordered
// handler list on the Spec, invoked by the renderer after the raw value is
// captured and written to the backing store slot.
package widget

// Kind identifies the control a Spec describes.
type Kind string

const (
	NumberInput Kind = "number_input"
	Slider      Kind = "slider"
	TextInput   Kind = "text_input"
	TextArea    Kind = "text_area"
	Checkbox    Kind = "checkbox"
	Select      Kind = "select"
	MultiSelect Kind = "multi_select"
	DateInput   Kind = "date_input"
	TimeInput   Kind = "time_input"
	ColorPicker Kind = "color_picker"
	Code        Kind = "code"
	Button      Kind = "button"
	ErrorBox    Kind = "error"
)

// Option is a selectable choice for Select/MultiSelect controls.
type Option struct {
	Label string
	Value any
}

// Spec describes one control for one render pass. Key identifies the store
// slot backing the control; OnChange handlers run in order after an edit is
// committed to that slot.
type Spec struct {
	Kind    Kind
	Key     string
	Label   string
	Help    string
	Value   any
	Min     any
	Max     any
	Step    any
	Options []Option
	// MaxLength bounds text input length; zero means unbounded.
	MaxLength int
	// Language hints syntax highlighting for Code views.
	Language string
	OnChange []func()
}

// AddOnChange appends a handler to the ordered change-handler list.
func (s *Spec) AddOnChange(fns ...func()) {
	for _, fn := range fns {
		if fn != nil {
			s.OnChange = append(s.OnChange, fn)
		}
	}
}

// FireChange invokes the change handlers in order. Renderers call this after
// committing an edited raw value to the store slot named by Key.
func (s *Spec) FireChange() {
	for _, fn := range s.OnChange {
		fn()
	}
}

// Renderer displays a control and returns its current raw value. It is
// called once per representation per render pass.
type Renderer interface {
	Render(s Spec) any
}

// Discard is a Renderer that displays nothing and echoes the spec value.
// Useful as a default when no toolkit is attached.
type Discard struct{}

func (Discard) Render(s Spec) any { return s.Value }
