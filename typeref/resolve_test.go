package typeref_test

import (
	"testing"

	"github.com/formstate/formstate/typeref"
)

func resolveOK(t *testing.T, ref *typeref.Ref, reg *typeref.Registry[string]) string {
	t.Helper()
	v, ok, err := typeref.Resolve(ref, reg)
	if err != nil {
		t.Fatalf("resolve %s: %v", ref, err)
	}
	if !ok {
		t.Fatalf("resolve %s: no match", ref)
	}
	return v
}

func TestResolve_VerbatimKeyWins(t *testing.T) {
	reg := typeref.NewRegistry[string]().
		Add(typeref.Object, "object").
		Add(typeref.Int, "int")

	if got := resolveOK(t, typeref.Int, reg); got != "int" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve_WalksDeclaredChain(t *testing.T) {
	base := typeref.Named("quantity")
	derived := typeref.Named("weight", base)
	reg := typeref.NewRegistry[string]().Add(base, "quantity")

	if got := resolveOK(t, derived, reg); got != "quantity" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	reg := typeref.NewRegistry[string]().Add(typeref.Int, "int")

	_, ok, err := typeref.Resolve(typeref.Named("orphan"), reg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestResolve_EnumBeatsBackingPrimitive(t *testing.T) {
	mode := typeref.Enum("mode", typeref.String,
		typeref.Member{Name: "fast", Value: "fast"},
	)
	reg := typeref.NewRegistry[string]().
		Add(typeref.String, "string").
		Add(typeref.EnumBase, "enum")

	// The backing type comes first in the declared chain, but enum-derived
	// keys are consulted before the full registry.
	if got := resolveOK(t, mode, reg); got != "enum" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve_EnumFallsBackToBacking(t *testing.T) {
	mode := typeref.Enum("mode", typeref.String,
		typeref.Member{Name: "fast", Value: "fast"},
	)
	reg := typeref.NewRegistry[string]().Add(typeref.String, "string")

	if got := resolveOK(t, mode, reg); got != "string" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve_OptionalUnwraps(t *testing.T) {
	reg := typeref.NewRegistry[string]().Add(typeref.Int, "int")

	if got := resolveOK(t, typeref.Optional(typeref.Int), reg); got != "int" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve_VirtualMarker(t *testing.T) {
	renderable := typeref.Marker("renderable")
	chart := typeref.Named("chart").Implements(renderable)
	reg := typeref.NewRegistry[string]().Add(renderable, "renderable")

	if got := resolveOK(t, chart, reg); got != "renderable" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve_UnrelatedMarkersAreAmbiguous(t *testing.T) {
	m1 := typeref.Marker("serializable")
	m2 := typeref.Marker("renderable")
	chart := typeref.Named("chart").Implements(m1, m2)
	reg := typeref.NewRegistry[string]().
		Add(m1, "serializable").
		Add(m2, "renderable")

	_, _, err := typeref.Resolve(chart, reg)
	if _, ok := typeref.AsAmbiguousDispatch(err); !ok {
		t.Fatalf("expected ambiguous dispatch, got %v", err)
	}
}

func TestResolve_GenericExactBeatsWildcard(t *testing.T) {
	reg := typeref.NewRegistry[string]().
		Add(typeref.Generic(typeref.List, typeref.Any), "list[any]").
		Add(typeref.Generic(typeref.List, typeref.String), "list[string]")

	if got := resolveOK(t, typeref.Generic(typeref.List, typeref.String), reg); got != "list[string]" {
		t.Fatalf("got %q", got)
	}
	if got := resolveOK(t, typeref.Generic(typeref.List, typeref.Int), reg); got != "list[any]" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve_GenericDepthMonotonic(t *testing.T) {
	pair := typeref.Named("pair")
	reg := typeref.NewRegistry[string]().
		Add(typeref.Generic(pair, typeref.Any, typeref.Any), "pair[any, any]").
		Add(typeref.Generic(pair, typeref.Int, typeref.Int), "pair[int, int]")

	if got := resolveOK(t, typeref.Generic(pair, typeref.Int, typeref.Int), reg); got != "pair[int, int]" {
		t.Fatalf("got %q", got)
	}
	if got := resolveOK(t, typeref.Generic(pair, typeref.Int, typeref.Float), reg); got != "pair[any, any]" {
		t.Fatalf("got %q", got)
	}
}

func TestResolve_GenericDepthTieFails(t *testing.T) {
	pair := typeref.Named("pair")
	reg := typeref.NewRegistry[string]().
		Add(typeref.Generic(pair, typeref.Int, typeref.Any), "pair[int, any]").
		Add(typeref.Generic(pair, typeref.Any, typeref.Int), "pair[any, int]")

	_, _, err := typeref.Resolve(typeref.Generic(pair, typeref.Int, typeref.Int), reg)
	ad, ok := typeref.AsAmbiguousDispatch(err)
	if !ok {
		t.Fatalf("expected ambiguous dispatch, got %v", err)
	}
	if len(ad.Candidates) != 2 {
		t.Fatalf("expected both candidates reported, got %v", ad.Candidates)
	}
}

func TestResolve_SingleWildcardMeansBareOrigin(t *testing.T) {
	reg := typeref.NewRegistry[string]().Add(typeref.List, "list")

	if got := resolveOK(t, typeref.Generic(typeref.List, typeref.Any), reg); got != "list" {
		t.Fatalf("got %q", got)
	}
}

func TestRegistry_AddReplacesEqualKey(t *testing.T) {
	reg := typeref.NewRegistry[string]().
		Add(typeref.Generic(typeref.List, typeref.String), "first").
		Add(typeref.Generic(typeref.List, typeref.String), "second")

	if reg.Len() != 1 {
		t.Fatalf("expected single entry, got %d", reg.Len())
	}
	if got := resolveOK(t, typeref.Generic(typeref.List, typeref.String), reg); got != "second" {
		t.Fatalf("got %q", got)
	}
}
