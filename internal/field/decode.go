package field

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decode parses a JSON submission body into a [FieldSet].
//
// The body must be a JSON object. Nested objects become nested FieldSets and
// arrays of objects become nested association lists. Scalar array items are
// dropped: the submission shape only admits scalar fields and nested
// associations.
func Decode(data []byte) (FieldSet, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse submission body: %w", err)
	}
	return Normalize(raw), nil
}

// Normalize converts a generic decoded map (JSON or YAML) into a [FieldSet],
// rewriting nested maps and object lists into FieldSet values recursively.
func Normalize(raw map[string]any) FieldSet {
	fs := make(FieldSet, len(raw))
	for k, v := range raw {
		fs[k] = normalizeValue(v)
	}
	return fs
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Normalize(t)
	case FieldSet:
		return t.Clone()
	case []any:
		items := make([]FieldSet, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				items = append(items, Normalize(m))
			}
		}
		return items
	case []FieldSet:
		items := make([]FieldSet, len(t))
		for i, item := range t {
			items[i] = item.Clone()
		}
		return items
	default:
		return v
	}
}

// Plain converts a [FieldSet] back into plain maps and slices so YAML and
// JSON encoders serialize it without custom marshalers.
func Plain(fs FieldSet) map[string]any {
	out := make(map[string]any, len(fs))
	for k, v := range fs {
		switch t := v.(type) {
		case FieldSet:
			out[k] = Plain(t)
		case []FieldSet:
			items := make([]any, len(t))
			for i, item := range t {
				items[i] = Plain(item)
			}
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}
