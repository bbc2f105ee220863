package schema

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/formstate/formstate/i18n"
	"github.com/formstate/formstate/typeref"
)

func invalidType(path string, t *typeref.Ref, raw any) Issues {
	return Issues{{
		Path: path, Code: CodeInvalidType, Message: i18n.T(CodeInvalidType, nil),
		Params: map[string]any{"expected": t.String(), "got": fmt.Sprintf("%T", raw)},
	}}
}

// coerceField validates a present raw value against the field's declared
// type and constraints.
func coerceField(f Field, raw any) (any, Issues) {
	t := f.Type.Normalize()
	if raw == nil {
		if f.Type.IsOptional() || f.AllowAbsent {
			return nil, nil
		}
		return nil, Issues{{Path: "/" + f.Name, Code: CodeRequired, Message: i18n.T(CodeRequired, nil)}}
	}
	v, iss := coerceValue("/"+f.Name, t, f.Model, raw)
	if len(iss) > 0 {
		return nil, iss
	}
	if i2 := checkConstraints(f, v); len(i2) > 0 {
		return nil, i2
	}
	return v, nil
}

// coerceValue converts a decoded JSON value into the canonical in-memory
// representation for the declared type.
func coerceValue(path string, t *typeref.Ref, model Model, raw any) (any, Issues) {
	t = t.Normalize()

	if model != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, invalidType(path, t, raw)
		}
		obj, err := model.New(m)
		if err != nil {
			if child, ok := AsIssues(err); ok {
				return nil, rebase(path, child)
			}
			return nil, Issues{{Path: path, Code: CodeParseError, Message: err.Error(), Cause: err}}
		}
		return obj, nil
	}

	if t.IsGeneric() {
		return coerceContainer(path, t, raw)
	}
	if t.IsEnum() {
		return coerceEnum(path, t, raw)
	}

	switch {
	case typeref.IsSubtype(t, typeref.Color):
		s, ok := raw.(string)
		if !ok {
			return nil, invalidType(path, t, raw)
		}
		hex, ok := normalizeHexColor(s)
		if !ok {
			return nil, Issues{{
				Path: path, Code: CodeInvalidType, Message: i18n.T(CodeInvalidType, nil),
				Params: map[string]any{"expected": "hex color", "got": s},
			}}
		}
		return hex, nil

	case typeref.IsSubtype(t, typeref.Int):
		switch n := raw.(type) {
		case int:
			return n, nil
		case int32:
			return int(n), nil
		case int64:
			return int(n), nil
		case float64:
			if n == math.Trunc(n) {
				return int(n), nil
			}
		}
		return nil, invalidType(path, t, raw)

	case typeref.IsSubtype(t, typeref.Float):
		switch n := raw.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, invalidType(path, t, raw)

	case typeref.IsSubtype(t, typeref.Bool):
		if b, ok := raw.(bool); ok {
			return b, nil
		}
		return nil, invalidType(path, t, raw)

	case typeref.IsSubtype(t, typeref.Time):
		return coerceTime(path, t, raw, time.RFC3339, "2006-01-02")

	case typeref.IsSubtype(t, typeref.Date):
		return coerceTime(path, t, raw, "2006-01-02", time.RFC3339)

	case typeref.IsSubtype(t, typeref.TimeOfDay):
		return coerceTime(path, t, raw, "15:04:05", "15:04", time.RFC3339)

	case typeref.IsSubtype(t, typeref.String):
		if s, ok := raw.(string); ok {
			return s, nil
		}
		return nil, invalidType(path, t, raw)
	}

	// Types the coercer does not know are accepted verbatim; their validity
	// is the declaring schema's business.
	return raw, nil
}

func coerceTime(path string, t *typeref.Ref, raw any, layouts ...string) (any, Issues) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, v); err == nil {
				return ts, nil
			}
		}
	}
	return nil, invalidType(path, t, raw)
}

func coerceEnum(path string, t *typeref.Ref, raw any) (any, Issues) {
	members := t.Members()
	for _, m := range members {
		if valueEq(raw, m.Value) {
			return m.Value, nil
		}
	}
	allowed := make([]any, 0, len(members))
	for _, m := range members {
		allowed = append(allowed, m.Value)
	}
	return nil, Issues{{
		Path: path, Code: CodeInvalidEnum, Message: i18n.T(CodeInvalidEnum, nil),
		Params: map[string]any{"allowed": allowed, "got": raw},
	}}
}

func coerceContainer(path string, t *typeref.Ref, raw any) (any, Issues) {
	origin := t.Origin()
	args := t.Args()

	switch {
	case typeref.Equal(origin, typeref.Map):
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, invalidType(path, t, raw)
		}
		if len(args) != 2 {
			return m, nil
		}
		out := make(map[string]any, len(m))
		var iss Issues
		for k, v := range m {
			cv, i2 := coerceValue(path+"/"+k, args[1], nil, v)
			if len(i2) > 0 {
				iss = AppendIssues(iss, i2...)
				continue
			}
			out[k] = cv
		}
		if len(iss) > 0 {
			return nil, iss
		}
		return out, nil

	case typeref.Equal(origin, typeref.Tuple):
		items, ok := raw.([]any)
		if !ok {
			return nil, invalidType(path, t, raw)
		}
		if len(args) > 0 && len(items) != len(args) {
			return nil, Issues{{
				Path: path, Code: CodeInvalidType, Message: i18n.T(CodeInvalidType, nil),
				Params: map[string]any{"expected": t.String(), "got": fmt.Sprintf("%d items", len(items))},
			}}
		}
		return coerceItems(path, args, items, true)

	default: // list, set, and any other sequence origin
		items, ok := raw.([]any)
		if !ok {
			return nil, invalidType(path, t, raw)
		}
		return coerceItems(path, args, items, false)
	}
}

// coerceItems coerces sequence elements. positional selects the arg ref per
// index (tuples); otherwise the single element ref applies to every item.
func coerceItems(path string, args []*typeref.Ref, items []any, positional bool) (any, Issues) {
	out := make([]any, 0, len(items))
	var iss Issues
	for i, item := range items {
		var at *typeref.Ref
		switch {
		case positional && i < len(args):
			at = args[i]
		case !positional && len(args) > 0:
			at = args[0]
		}
		if at == nil || at.IsAny() {
			out = append(out, item)
			continue
		}
		cv, i2 := coerceValue(fmt.Sprintf("%s/%d", path, i), at, nil, item)
		if len(i2) > 0 {
			iss = AppendIssues(iss, i2...)
			continue
		}
		out = append(out, cv)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// checkConstraints applies numeric/length bounds after type coercion.
func checkConstraints(f Field, v any) Issues {
	var iss Issues
	path := "/" + f.Name

	if s, ok := v.(string); ok && f.MaxLength > 0 && len(s) > f.MaxLength {
		iss = AppendIssues(iss, Issue{
			Path: path, Code: CodeTooLong, Message: i18n.T(CodeTooLong, nil),
			Params: map[string]any{"max_length": f.MaxLength, "got": len(s)},
		})
	}

	if lo, ok := boundOf(f.Min); ok {
		if n, ok2 := numOf(v); ok2 && n < lo {
			iss = AppendIssues(iss, tooSmall(path, f.Min, v))
		}
	}
	if lo, ok := boundOf(f.ExclusiveMin); ok {
		if n, ok2 := numOf(v); ok2 && n <= lo {
			iss = AppendIssues(iss, tooSmall(path, f.ExclusiveMin, v))
		}
	}
	if hi, ok := boundOf(f.Max); ok {
		if n, ok2 := numOf(v); ok2 && n > hi {
			iss = AppendIssues(iss, tooBig(path, f.Max, v))
		}
	}
	if hi, ok := boundOf(f.ExclusiveMax); ok {
		if n, ok2 := numOf(v); ok2 && n >= hi {
			iss = AppendIssues(iss, tooBig(path, f.ExclusiveMax, v))
		}
	}

	if ts, ok := v.(time.Time); ok {
		if lo, ok2 := f.Min.(time.Time); ok2 && ts.Before(lo) {
			iss = AppendIssues(iss, tooSmall(path, lo, ts))
		}
		if hi, ok2 := f.Max.(time.Time); ok2 && ts.After(hi) {
			iss = AppendIssues(iss, tooBig(path, hi, ts))
		}
	}

	if step, ok := boundOf(f.Step); ok && step > 0 {
		if n, ok2 := numOf(v); ok2 {
			if r := math.Abs(math.Mod(n, step)); r > 1e-9 && math.Abs(r-step) > 1e-9 {
				iss = AppendIssues(iss, Issue{
					Path: path, Code: CodeNotMultiple, Message: i18n.T(CodeNotMultiple, nil),
					Params: map[string]any{"step": f.Step, "got": v},
				})
			}
		}
	}
	return iss
}

func tooSmall(path string, min, got any) Issue {
	return Issue{
		Path: path, Code: CodeTooSmall, Message: i18n.T(CodeTooSmall, nil),
		Params: map[string]any{"min": min, "got": got},
	}
}

func tooBig(path string, max, got any) Issue {
	return Issue{
		Path: path, Code: CodeTooBig, Message: i18n.T(CodeTooBig, nil),
		Params: map[string]any{"max": max, "got": got},
	}
}

// boundOf converts a declared constraint value to float64.
func boundOf(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return numOf(v)
}

// numOf converts a numeric value to float64 for comparisons.
func numOf(v any) (float64, bool) {
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

// valueEq compares enum member values with numeric leniency, so a float64
// decoded from JSON matches an int-backed member.
func valueEq(a, b any) bool {
	if an, ok := numOf(a); ok {
		if bn, ok2 := numOf(b); ok2 {
			return an == bn
		}
		return false
	}
	return a == b
}

// normalizeHexColor validates #rgb/#rrggbb notation and lowercases it.
func normalizeHexColor(s string) (string, bool) {
	if len(s) != 4 && len(s) != 7 {
		return "", false
	}
	if s[0] != '#' {
		return "", false
	}
	low := strings.ToLower(s)
	for _, c := range low[1:] {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return low, true
}
