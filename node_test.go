package formstate_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formstate/formstate"
	"github.com/formstate/formstate/store"
)

func floatNode(t *testing.T, st store.Store, value float64) *formstate.Node {
	t.Helper()
	n, err := formstate.NewNode(value, formstate.NodeConfig{
		Name:    "amount",
		BaseKey: "app.amount",
		Store:   st,
	})
	require.NoError(t, err)
	return n
}

func TestNode_SeedsBaseAndInitialValue(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)

	v, ok := st.Get("app.amount")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	iv, ok := st.Get("app.amount._initial_value")
	require.True(t, ok)
	assert.Equal(t, 5.0, iv)
	assert.Equal(t, 5.0, n.InitialValue())
}

func TestNode_ExistingBaseKeySurvivesConstruction(t *testing.T) {
	st := store.NewMemory()
	st.Set("app.amount", 9.0)

	floatNode(t, st, 5.0)

	v, _ := st.Get("app.amount")
	assert.Equal(t, 9.0, v)
}

func TestNode_InitialValuePersistsAcrossReconstruction(t *testing.T) {
	st := store.NewMemory()
	floatNode(t, st, 5.0)

	n2 := floatNode(t, st, 7.0)
	assert.Equal(t, 5.0, n2.InitialValue())
}

func TestNode_SetValueUpdatesBaseAndLazyKeys(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)
	require.NoError(t, n.CommitKey("app.amount.lazy", formstate.KeyLazy))

	require.NoError(t, n.SetValue(6.0))

	v, _ := st.Get("app.amount")
	assert.Equal(t, 6.0, v)
	lv, _ := st.Get("app.amount.lazy")
	assert.Equal(t, 6.0, lv)
}

func TestNode_SyncSkipsLazyKeysUnlessAsked(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)
	require.NoError(t, n.CommitKey("app.amount.lazy", formstate.KeyLazy))

	st.Set("app.amount.lazy", 99.0) // an in-flight user edit
	require.NoError(t, n.Sync(false))
	lv, _ := st.Get("app.amount.lazy")
	assert.Equal(t, 99.0, lv)

	require.NoError(t, n.Sync(true))
	lv, _ = st.Get("app.amount.lazy")
	assert.Equal(t, 5.0, lv)
}

func TestNode_SyncLeavesReplicatedKeysAlone(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)
	require.NoError(t, n.CommitKey("app.amount.w", formstate.KeyReplicated))

	st.Set("app.amount.w", 99.0)
	require.NoError(t, n.Sync(true))

	wv, _ := st.Get("app.amount.w")
	assert.Equal(t, 99.0, wv)
}

func TestNode_CommitReplicatedCopiesBaseEveryTime(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)

	require.NoError(t, n.CommitKey("app.amount.w", formstate.KeyReplicated))
	wv, _ := st.Get("app.amount.w")
	assert.Equal(t, 5.0, wv)

	st.Set("app.amount.w", 99.0)
	require.NoError(t, n.CommitKey("app.amount.w", formstate.KeyReplicated))
	wv, _ = st.Get("app.amount.w")
	assert.Equal(t, 5.0, wv)

	// Tracking stays deduplicated.
	assert.Equal(t, []string{"app.amount", "app.amount.w"}, n.Keys())
}

func TestNode_OwnsKey(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)
	require.NoError(t, n.CommitKey("app.amount.w", formstate.KeyReplicated))

	assert.True(t, n.OwnsKey("app.amount"))
	assert.True(t, n.OwnsKey("app.amount.w"))
	assert.False(t, n.OwnsKey("app.other"))
}

func TestNode_CommitLazyIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)

	require.NoError(t, n.CommitKey("app.amount.lazy", formstate.KeyLazy))
	st.Set("app.amount.lazy", 99.0)

	// A later render pass re-committing the key must not clobber the edit.
	require.NoError(t, n.CommitKey("app.amount.lazy", formstate.KeyLazy))
	lv, _ := st.Get("app.amount.lazy")
	assert.Equal(t, 99.0, lv)
}

func TestNode_SyncIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	n, err := formstate.NewNode(5.0, formstate.NodeConfig{
		Name:    "amount",
		BaseKey: "app.amount",
		Store:   st,
		Encode:  func(v any) (any, error) { return fmt.Sprintf("%.2f", v), nil },
	})
	require.NoError(t, err)

	require.NoError(t, n.Sync(true))
	first, _ := st.Get("app.amount")
	require.NoError(t, n.Sync(true))
	second, _ := st.Get("app.amount")
	assert.Equal(t, first, second)
	assert.Equal(t, "5.00", second)
}

func TestNode_NextKeySkipsTrackedKeys(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)

	k, err := n.NextKey()
	require.NoError(t, err)
	assert.Equal(t, "app.amount._state_ref.0", k)

	require.NoError(t, n.CommitKey(k, formstate.KeyReplicated))
	k2, err := n.NextKey()
	require.NoError(t, err)
	assert.Equal(t, "app.amount._state_ref.1", k2)
}

func TestNode_GenKey(t *testing.T) {
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)

	k, err := n.GenKey("slider")
	require.NoError(t, err)
	assert.Equal(t, "app.amount.slider", k)

	k, err = n.GenKey("")
	require.NoError(t, err)
	assert.Equal(t, "app.amount._state_ref.0", k)
}

func TestNode_KeySpaceExhaustion(t *testing.T) {
	if testing.Short() {
		t.Skip("commits the full probe range")
	}
	st := store.NewMemory()
	n := floatNode(t, st, 5.0)

	for i := 0; i < 100_000; i++ {
		k := fmt.Sprintf("app.amount._state_ref.%d", i)
		require.NoError(t, n.CommitKey(k, formstate.KeyReplicated))
	}

	_, err := n.NextKey()
	require.Error(t, err)
	assert.True(t, errors.Is(err, formstate.ErrKeySpaceExhausted))
}
