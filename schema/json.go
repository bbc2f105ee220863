package schema

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/formstate/formstate/i18n"
)

// Serialize renders an object as indented JSON text. Key ordering is stable
// and equals field declaration order, so serialized text is byte-identical
// for equal objects.
func (s *ObjectSpec) Serialize(obj any) (string, error) {
	var b strings.Builder
	if err := s.writeObject(&b, obj, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *ObjectSpec) writeObject(b *strings.Builder, obj any, level int) error {
	m, ok := obj.(map[string]any)
	if !ok {
		return fmt.Errorf("schema: %s: cannot serialize %T", s.name, obj)
	}
	pad := strings.Repeat(" ", s.indent*(level+1))
	closePad := strings.Repeat(" ", s.indent*level)

	b.WriteString("{")
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
		b.WriteString(pad)
		key, err := json.Marshal(f.Name)
		if err != nil {
			return err
		}
		b.Write(key)
		b.WriteString(": ")

		v := m[f.Name]
		if f.Model != nil && v != nil {
			if err := s.writeNested(b, f.Model, v, level+1); err != nil {
				return err
			}
			continue
		}
		enc, err := json.MarshalIndent(v, pad, strings.Repeat(" ", s.indent))
		if err != nil {
			return fmt.Errorf("schema: %s.%s: %w", s.name, f.Name, err)
		}
		b.Write(enc)
	}
	if len(s.fields) > 0 {
		b.WriteString("\n")
		b.WriteString(closePad)
	}
	b.WriteString("}")
	return nil
}

// writeNested embeds a nested model's own stable-order serialization,
// re-indented to this nesting level.
func (s *ObjectSpec) writeNested(b *strings.Builder, m Model, v any, level int) error {
	if sub, ok := m.(*ObjectSpec); ok {
		return sub.writeObject(b, v, level)
	}
	text, err := m.Serialize(v)
	if err != nil {
		return err
	}
	pad := strings.Repeat(" ", s.indent*level)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
			b.WriteString(pad)
		}
		b.WriteString(line)
	}
	return nil
}

// Parse validates serialized JSON text and reconstructs an object. A parse
// or validation failure is reported as Issues and never partially applies.
func (s *ObjectSpec) Parse(text string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, Issues{{
			Path: "/", Code: CodeParseError, Message: i18n.T(CodeParseError, nil), Cause: err,
		}}
	}
	return s.New(data)
}
