// Package field provides the FieldSet type holding raw user-submitted values.
//
// A [FieldSet] maps field names to raw values as they arrive from a submission:
// strings, numbers, nested field sets, or lists of nested field sets (nested
// associations). Values stay loosely typed until a rule inspects them; the
// accessor methods coerce on read so that "10", 10, and 10.0 all satisfy a
// numeric rule.
//
// Key types:
//   - [FieldSet] - one submission's field values
//
// Nested association items carry an optional deletion marker (the DestroyKey
// key). An item so marked is skipped by validation and dropped from the
// committed entity; see [FieldSet.Destroyed] and [FieldSet.WithoutDestroyed].
package field

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// DestroyKey is the field name marking a nested association item for deletion.
// A truthy value ("true", "1", true) flags the item; deletion intent takes
// precedence over the item's own validation.
const DestroyKey = "_destroy"

// FieldSet maps field names to raw submitted values.
//
// Values are one of: string, a numeric type, bool, [FieldSet], or []FieldSet.
// Use [Decode] to build one from a JSON submission body.
type FieldSet map[string]any

// Has reports whether the field is present with a non-blank value.
//
// A value is blank when it is absent, nil, or a string containing only
// whitespace. Numbers, including zero, are never blank.
func (fs FieldSet) Has(name string) bool {
	v, ok := fs[name]
	if !ok || v == nil {
		return false
	}
	if s, err := cast.ToStringE(v); err == nil {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// String returns the field coerced to a string.
// The second return is false when the field is absent or not coercible.
func (fs FieldSet) String(name string) (string, bool) {
	v, ok := fs[name]
	if !ok || v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	return s, true
}

// Number returns the field coerced to a float64.
// Numeric strings coerce; non-numeric values return false.
func (fs FieldSet) Number(name string) (float64, bool) {
	v, ok := fs[name]
	if !ok || v == nil {
		return 0, false
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Nested returns the field as a list of nested field sets.
//
// A single nested FieldSet is returned as a one-element list. Returns nil
// when the field is absent or holds a scalar.
func (fs FieldSet) Nested(name string) []FieldSet {
	switch v := fs[name].(type) {
	case []FieldSet:
		return v
	case FieldSet:
		return []FieldSet{v}
	default:
		return nil
	}
}

// Destroyed reports whether this field set carries a truthy deletion marker.
func (fs FieldSet) Destroyed() bool {
	v, ok := fs[DestroyKey]
	if !ok {
		return false
	}
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

// Permit returns a copy containing only the allowed field names.
// Unpermitted keys are silently dropped, matching strong-parameter semantics.
func (fs FieldSet) Permit(allowed []string) FieldSet {
	permitted := make(FieldSet, len(allowed))
	for _, name := range allowed {
		if v, ok := fs[name]; ok {
			permitted[name] = v
		}
	}
	return permitted
}

// Merge returns a new field set with other's values layered over fs.
//
// Scalars and nested association lists are replaced wholesale; a later
// submission of a nested list supersedes the earlier one rather than
// appending to it.
func (fs FieldSet) Merge(other FieldSet) FieldSet {
	merged := make(FieldSet, len(fs)+len(other))
	for k, v := range fs {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Clone returns a deep copy of the field set.
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		switch nested := v.(type) {
		case FieldSet:
			out[k] = nested.Clone()
		case []FieldSet:
			items := make([]FieldSet, len(nested))
			for i, item := range nested {
				items[i] = item.Clone()
			}
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}

// WithoutDestroyed returns a deep copy with destroy-marked nested items
// removed and all deletion markers stripped. This is the shape persisted
// at commit time.
func (fs FieldSet) WithoutDestroyed() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		if k == DestroyKey {
			continue
		}
		switch nested := v.(type) {
		case FieldSet:
			out[k] = nested.WithoutDestroyed()
		case []FieldSet:
			var kept []FieldSet
			for _, item := range nested {
				if item.Destroyed() {
					continue
				}
				kept = append(kept, item.WithoutDestroyed())
			}
			out[k] = kept
		default:
			out[k] = v
		}
	}
	return out
}

// Names returns the field names in sorted order, for stable output.
func (fs FieldSet) Names() []string {
	names := make([]string, 0, len(fs))
	for k := range fs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
