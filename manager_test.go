package formstate_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formstate/formstate"
	"github.com/formstate/formstate/schema"
	"github.com/formstate/formstate/store"
	"github.com/formstate/formstate/typeref"
	"github.com/formstate/formstate/widget"
	"github.com/formstate/formstate/widget/widgettest"
)

func newPairManager(t *testing.T) (*formstate.Manager, *store.Memory, *widgettest.Renderer) {
	t.Helper()
	st := store.NewMemory()
	r := widgettest.New(st)
	m, err := formstate.New(pairSpec(t),
		formstate.WithStore(st),
		formstate.WithRenderer(r),
	)
	require.NoError(t, err)
	return m, st, r
}

func TestManager_DefaultsFromSchema(t *testing.T) {
	m, st, _ := newPairManager(t)

	assert.Equal(t, map[string]any{"a": 5.0, "b": 10.0}, m.Value())
	assert.Equal(t, "formstate.pair", m.BaseKey())

	raw, ok := st.Get("formstate.pair")
	require.True(t, ok)
	assert.Contains(t, raw.(string), `"a": 5`)
}

func TestManager_BootstrapsFromStoredText(t *testing.T) {
	spec := pairSpec(t)
	st := store.NewMemory()
	text, err := spec.Serialize(map[string]any{"a": 1.0, "b": 2.0})
	require.NoError(t, err)
	st.Set("formstate.pair", text)

	m, err := formstate.New(spec, formstate.WithStore(st))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, m.Value())
}

func TestManager_BootstrapRejectsCorruptText(t *testing.T) {
	st := store.NewMemory()
	st.Set("formstate.pair", "{broken")

	_, err := formstate.New(pairSpec(t), formstate.WithStore(st))
	require.Error(t, err)
}

func TestManager_LogsCarrySessionID(t *testing.T) {
	st := store.NewMemory()
	r := widgettest.New(st)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m, err := formstate.New(pairSpec(t),
		formstate.WithStore(st),
		formstate.WithRenderer(r),
		formstate.WithLogger(logger),
	)
	require.NoError(t, err)

	key := "formstate.pair.a.w"
	r.Edit(key, 7.0)
	_, err = m.Widget("a", formstate.WithKeySuffix("w"))
	require.NoError(t, err)

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), "session="+st.ID())
}

func TestManager_FieldEditAppliesAtomically(t *testing.T) {
	m, st, r := newPairManager(t)

	key := "formstate.pair.a.w"
	r.Edit(key, 7.0)
	v, err := m.Widget("a", formstate.WithKeySuffix("w"))
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	// The whole object was re-derived, not just the edited field.
	assert.Equal(t, map[string]any{"a": 7.0, "b": 10.0}, m.Value())
	assert.NoError(t, m.Err())

	raw, _ := st.Get("formstate.pair")
	assert.Contains(t, raw.(string), `"a": 7`)
}

func TestManager_FieldEditViolatingRuleRollsBack(t *testing.T) {
	spec := schema.NewObject("window").
		Field("lo", typeref.Float).Default(0.0).
		Field("hi", typeref.Float).Default(10.0).
		Refine("lo-below-hi", func(data map[string]any) error {
			if data["lo"].(float64) >= data["hi"].(float64) {
				return schema.Issues{{Path: "/lo", Code: schema.CodeBusinessRule, Message: "lo must be below hi"}}
			}
			return nil
		}).
		MustBuild()

	st := store.NewMemory()
	r := widgettest.New(st)
	m, err := formstate.New(spec, formstate.WithStore(st), formstate.WithRenderer(r))
	require.NoError(t, err)

	key := "formstate.window.lo.w"
	r.Edit(key, 50.0)
	_, err = m.Widget("lo", formstate.WithKeySuffix("w"))
	require.NoError(t, err) // decoding the raw value itself succeeds

	assert.Equal(t, map[string]any{"lo": 0.0, "hi": 10.0}, m.Value())
	require.Error(t, m.Err())
	iss, ok := schema.AsIssues(m.Err())
	require.True(t, ok)
	assert.Equal(t, schema.CodeBusinessRule, iss[0].Code)

	eb, found := r.Last(widget.ErrorBox)
	require.True(t, found)
	assert.Equal(t, "formstate.window._error", eb.Key)
}

func TestManager_ErrClearsAfterCleanEdit(t *testing.T) {
	m, _, r := newPairManager(t)

	key := "formstate.pair.editor"
	r.Edit(key, "{broken")
	_, err := m.Editor(formstate.WithKeySuffix("editor"))
	require.Error(t, err)
	require.Error(t, m.Err())
	assert.Equal(t, map[string]any{"a": 5.0, "b": 10.0}, m.Value())

	r.Edit(key, `{"a": 1.0, "b": 2.0}`)
	v, err := m.Editor(formstate.WithKeySuffix("editor"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, v)
	assert.NoError(t, m.Err())
}

func TestManager_FormRendersEveryField(t *testing.T) {
	m, _, r := newPairManager(t)

	v, err := m.Form()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 5.0, "b": 10.0}, v)

	kinds := make([]widget.Kind, 0, len(r.Rendered))
	labels := make([]string, 0, len(r.Rendered))
	for _, s := range r.Rendered {
		kinds = append(kinds, s.Kind)
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []widget.Kind{widget.NumberInput, widget.NumberInput}, kinds)
	assert.Equal(t, []string{"a", "b"}, labels)
}

func TestManager_FormExcludesFields(t *testing.T) {
	m, _, r := newPairManager(t)

	_, err := m.Form(formstate.Exclude("b"))
	require.NoError(t, err)
	require.Len(t, r.Rendered, 1)
	assert.Equal(t, "a", r.Rendered[0].Label)
}

func TestManager_WidgetUnknownField(t *testing.T) {
	m, _, _ := newPairManager(t)

	_, err := m.Widget("nope")
	require.Error(t, err)
}

func TestManager_WidgetRejectsConflictingKeyOptions(t *testing.T) {
	m, _, _ := newPairManager(t)

	_, err := m.Widget("a", formstate.WithKey("x"), formstate.WithKeySuffix("y"))
	require.Error(t, err)
}

func TestManager_RawOutputSkipsDecoding(t *testing.T) {
	spec := schema.NewObject("s").
		Field("n", typeref.Int).Default(3).
		MustBuild()
	st := store.NewMemory()
	r := widgettest.New(st)
	m, err := formstate.New(spec, formstate.WithStore(st), formstate.WithRenderer(r))
	require.NoError(t, err)

	r.Edit("formstate.s.n.w", float64(4))
	v, err := m.Widget("n", formstate.WithKeySuffix("w"), formstate.RawOutput())
	require.NoError(t, err)
	assert.Equal(t, float64(4), v)
	assert.Equal(t, 4, m.Value().(map[string]any)["n"])
}

func TestManager_LazyEditorAppliesOnButton(t *testing.T) {
	m, st, r := newPairManager(t)

	key := "formstate.pair.lazy"
	text, err := m.LazyEditor(formstate.WithKeySuffix("lazy"))
	require.NoError(t, err)
	assert.Contains(t, text, `"a": 5`)

	// Typing alone leaves the canonical object untouched.
	r.Edit(key, `{"a": 1.0, "b": 2.0}`)
	text, err = m.LazyEditor(formstate.WithKeySuffix("lazy"))
	require.NoError(t, err)
	assert.Contains(t, text, `"a": 1`)
	assert.Equal(t, map[string]any{"a": 5.0, "b": 10.0}, m.Value())

	// The apply control pulls the text in.
	r.Click(key + "._button")
	_, err = m.LazyEditor(formstate.WithKeySuffix("lazy"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, m.Value())
	assert.NoError(t, m.Err())

	// And the lazy key snaps back to the canonical serialization.
	lv, _ := st.Get(key)
	assert.Contains(t, lv.(string), `"b": 2`)
}

func TestManager_LazyEditorSurfacesBadText(t *testing.T) {
	m, _, r := newPairManager(t)

	key := "formstate.pair.lazy"
	_, err := m.LazyEditor(formstate.WithKeySuffix("lazy"))
	require.NoError(t, err)

	r.Edit(key, "{broken")
	r.Click(key + "._button")
	_, err = m.LazyEditor(formstate.WithKeySuffix("lazy"))
	require.NoError(t, err)
	require.Error(t, m.Err())
	assert.Equal(t, map[string]any{"a": 5.0, "b": 10.0}, m.Value())
}

func TestManager_CodeRendersCanonicalText(t *testing.T) {
	m, _, r := newPairManager(t)

	text, err := m.Code()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "{"))
	assert.Contains(t, text, `"b": 10`)

	s, found := r.Last(widget.Code)
	require.True(t, found)
	assert.Equal(t, "json", s.Language)
}

func TestManager_DumpAndYAML(t *testing.T) {
	m, _, _ := newPairManager(t)

	dump := m.Dump()
	assert.Contains(t, dump, "map[string]interface {}")

	y, err := m.YAML()
	require.NoError(t, err)
	iA := strings.Index(y, "a:")
	iB := strings.Index(y, "b:")
	require.True(t, iA >= 0 && iB >= 0, "keys present: %s", y)
	assert.True(t, iA < iB)
}

func TestManager_CustomErrorHandler(t *testing.T) {
	spec := pairSpec(t)
	st := store.NewMemory()
	r := widgettest.New(st)
	var captured error
	m, err := formstate.New(spec,
		formstate.WithStore(st),
		formstate.WithRenderer(r),
		formstate.WithErrorHandler(func(e error) { captured = e }),
	)
	require.NoError(t, err)

	r.Edit("formstate.pair.editor", "{broken")
	_, err = m.Editor(formstate.WithKeySuffix("editor"))
	require.Error(t, err)
	require.Error(t, captured)

	_, found := r.Last(widget.ErrorBox)
	assert.False(t, found)
}
