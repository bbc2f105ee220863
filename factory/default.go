package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/formstate/formstate/schema"
	"github.com/formstate/formstate/typeref"
	"github.com/formstate/formstate/widget"
)

// Default builds the stock factory: converters for the primitive types,
// date/time kinds, enums, colors, nested models, and newline-joined string
// lists. Widget options are derived from field constraints (bounds, step,
// max length) and metadata (title, description).
func Default() *Factory {
	return NewBuilder().
		Widget("number", ForTypes(typeref.Int, typeref.Float), numberWidget).
		Widget("string", ForTypes(typeref.String), stringWidget).
		Widget("bool", ForTypes(typeref.Bool), boolWidget).
		Widget("date", ForTypes(typeref.Time, typeref.Date), dateWidget).
		Widget("time", ForTypes(typeref.TimeOfDay), timeWidget).
		Widget("enum", ForTypes(typeref.EnumBase), enumWidget).
		Widget("color", ForTypes(typeref.Color), colorWidget).
		Widget("model", ForTypes(typeref.ModelBase), modelWidget).
		Widget("string-list", ForTypes(typeref.Generic(typeref.List, typeref.String)), stringListWidget).
		Encode("datetime", ForTypes(typeref.Time), encodeDatetime).
		Decode("datetime", ForTypes(typeref.Time), decodeDatetime).
		Encode("model", ForTypes(typeref.ModelBase), encodeModel).
		Decode("model", ForTypes(typeref.ModelBase), decodeModel).
		Encode("decimal-int", ForTypes(typeref.Int), encodeInt).
		Decode("decimal-int", ForTypes(typeref.Int), decodeInt).
		Encode("string-list", ForTypes(typeref.Generic(typeref.List, typeref.String)), encodeStringList).
		Decode("string-list", ForTypes(typeref.Generic(typeref.List, typeref.String)), decodeStringList).
		MustBuild()
}

// kindFor honors a per-field widget override.
func kindFor(f schema.Field, computed widget.Kind) widget.Kind {
	if f.Widget != "" {
		return f.Widget
	}
	return computed
}

func baseSpec(f schema.Field, kind widget.Kind, v any) widget.Spec {
	return widget.Spec{
		Kind:  kindFor(f, kind),
		Label: f.Label(),
		Help:  f.Description,
		Value: v,
	}
}

func numberWidget(f schema.Field) func(v any) widget.Spec {
	isFloat := typeref.IsSubtype(f.Type.Normalize(), typeref.Float)
	step := f.Step
	if step == nil {
		if isFloat {
			step = 0.01
		} else {
			step = 1
		}
	}

	min := f.Min
	max := f.Max
	// Exclusive bounds tighten to the nearest reachable value.
	if f.ExclusiveMin != nil {
		min = stepAdd(f.ExclusiveMin, step, +1)
	}
	if f.ExclusiveMax != nil {
		max = stepAdd(f.ExclusiveMax, step, -1)
	}

	kind := widget.NumberInput
	if min != nil && max != nil {
		kind = widget.Slider
	}
	return func(v any) widget.Spec {
		s := baseSpec(f, kind, v)
		s.Min, s.Max, s.Step = min, max, step
		return s
	}
}

func stringWidget(f schema.Field) func(v any) widget.Spec {
	kind := widget.TextInput
	if d, ok := f.Default.(string); ok && strings.Contains(d, "\n") {
		kind = widget.TextArea
	}
	return func(v any) widget.Spec {
		s := baseSpec(f, kind, v)
		s.MaxLength = f.MaxLength
		return s
	}
}

func boolWidget(f schema.Field) func(v any) widget.Spec {
	return func(v any) widget.Spec {
		return baseSpec(f, widget.Checkbox, v)
	}
}

func dateWidget(f schema.Field) func(v any) widget.Spec {
	return func(v any) widget.Spec {
		s := baseSpec(f, widget.DateInput, v)
		s.Min, s.Max = f.Min, f.Max
		return s
	}
}

func timeWidget(f schema.Field) func(v any) widget.Spec {
	return func(v any) widget.Spec {
		return baseSpec(f, widget.TimeInput, v)
	}
}

func enumWidget(f schema.Field) func(v any) widget.Spec {
	members := f.Type.Normalize().Members()
	opts := make([]widget.Option, 0, len(members))
	for _, m := range members {
		opts = append(opts, widget.Option{Label: m.Name, Value: m.Value})
	}
	return func(v any) widget.Spec {
		s := baseSpec(f, widget.Select, v)
		s.Options = opts
		return s
	}
}

func colorWidget(f schema.Field) func(v any) widget.Spec {
	return func(v any) widget.Spec {
		return baseSpec(f, widget.ColorPicker, v)
	}
}

func modelWidget(f schema.Field) func(v any) widget.Spec {
	return func(v any) widget.Spec {
		return baseSpec(f, widget.TextArea, v)
	}
}

func stringListWidget(f schema.Field) func(v any) widget.Spec {
	return func(v any) widget.Spec {
		return baseSpec(f, widget.TextArea, v)
	}
}

// encodeDatetime floors datetimes to midnight so a date control can display
// them.
func encodeDatetime(schema.Field) func(v any) (any, error) {
	return func(v any) (any, error) {
		if ts, ok := v.(time.Time); ok {
			return ts.Truncate(24 * time.Hour), nil
		}
		return v, nil
	}
}

func decodeDatetime(schema.Field) func(v any) (any, error) {
	return func(v any) (any, error) {
		switch ts := v.(type) {
		case time.Time:
			return ts, nil
		case string:
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				parsed, err = time.Parse("2006-01-02", ts)
			}
			if err != nil {
				return nil, err
			}
			return parsed, nil
		}
		return v, nil
	}
}

func encodeModel(f schema.Field) func(v any) (any, error) {
	return func(v any) (any, error) {
		if f.Model == nil {
			return v, nil
		}
		return f.Model.Serialize(v)
	}
}

func decodeModel(f schema.Field) func(v any) (any, error) {
	return func(v any) (any, error) {
		if f.Model == nil {
			return v, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("factory: field %q expects serialized text, got %T", f.Name, v)
		}
		return f.Model.Parse(s)
	}
}

func encodeInt(schema.Field) func(v any) (any, error) {
	return func(v any) (any, error) { return v, nil }
}

// decodeInt turns widget numbers back into ints; number controls may hand
// back float64.
func decodeInt(f schema.Field) func(v any) (any, error) {
	return func(v any) (any, error) {
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			return int(n), nil
		}
		return nil, fmt.Errorf("factory: field %q expects a number, got %T", f.Name, v)
	}
}

func encodeStringList(schema.Field) func(v any) (any, error) {
	return func(v any) (any, error) {
		switch items := v.(type) {
		case nil:
			return "", nil
		case []string:
			return strings.Join(items, "\n"), nil
		case []any:
			parts := make([]string, 0, len(items))
			for _, it := range items {
				parts = append(parts, fmt.Sprint(it))
			}
			return strings.Join(parts, "\n"), nil
		}
		return v, nil
	}
}

func decodeStringList(schema.Field) func(v any) (any, error) {
	return func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		if s == "" {
			return []any{}, nil
		}
		parts := strings.Split(s, "\n")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			out = append(out, p)
		}
		return out, nil
	}
}

// stepAdd tightens an exclusive bound by one step in the given direction,
// keeping int arithmetic for int-valued bounds.
func stepAdd(bound, step any, dir int) any {
	bi, bOK := toInt(bound)
	si, sOK := toInt(step)
	if bOK && sOK {
		return bi + dir*si
	}
	bf, bOK2 := toFloat(bound)
	sf, sOK2 := toFloat(step)
	if bOK2 && sOK2 {
		return bf + float64(dir)*sf
	}
	return bound
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
