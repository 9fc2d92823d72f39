// Package rules validates field sets against per-step rule tables.
//
// Each form step introduces rules; the effective rule set at step N is the
// union of everything introduced by steps 1..N, so validation strength never
// regresses as a submission advances. One [Table] holds the whole sequence
// and one [Table.Validate] call checks a field set at a given step, replacing
// the inheritance chain of step-form classes the pattern is usually built on.
//
// Key types:
//   - [Table] - cumulative rule table built from a form definition
//   - [Rule] - a single field constraint
//   - [Result] - field name to error message mapping
//
// Rules other than [Presence] skip absent or blank values; requiredness is
// expressed by attaching a Presence rule. A nested association item carrying
// a deletion marker is skipped entirely, regardless of its own fields.
package rules

import (
	"fmt"
	"sort"

	"formflow/internal/field"
)

// Result is the outcome of validating one field set at one step.
//
// Errors maps field names to human-readable messages. Nested association
// items report under indexed keys (e.g., "variants[1].name"). Entity-level
// errors discovered outside field validation use [BaseField].
type Result struct {
	// Errors is nil or empty for a valid field set.
	Errors map[string][]string
}

// BaseField is the Errors key for entity-level messages that do not belong
// to any single field, such as a uniqueness violation at commit time.
const BaseField = "base"

// Valid reports whether the field set passed every rule.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Add appends a message for the given field.
func (r *Result) Add(fieldName, message string) {
	if r.Errors == nil {
		r.Errors = make(map[string][]string)
	}
	r.Errors[fieldName] = append(r.Errors[fieldName], message)
}

// Fields returns the names carrying errors, sorted for stable output.
func (r *Result) Fields() []string {
	names := make([]string, 0, len(r.Errors))
	for name := range r.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rule is a single constraint on one field of a field set.
//
// Apply records any violations on the result. Rules are deterministic: the
// same field set always yields the same messages.
type Rule interface {
	// FieldName is the field this rule constrains.
	FieldName() string

	// Apply checks the field set and records violations on res.
	Apply(fs field.FieldSet, res *Result)
}

// Presence requires a non-blank value.
type Presence struct {
	Name string
}

func (p Presence) FieldName() string { return p.Name }

func (p Presence) Apply(fs field.FieldSet, res *Result) {
	if !fs.Has(p.Name) {
		res.Add(p.Name, "can't be blank")
	}
}

// Minimum requires a numeric value of at least Limit.
type Minimum struct {
	Name  string
	Limit float64
}

func (m Minimum) FieldName() string { return m.Name }

func (m Minimum) Apply(fs field.FieldSet, res *Result) {
	if !fs.Has(m.Name) {
		return
	}
	n, ok := fs.Number(m.Name)
	if !ok {
		res.Add(m.Name, "is not a number")
		return
	}
	if n < m.Limit {
		res.Add(m.Name, fmt.Sprintf("must be greater than or equal to %v", m.Limit))
	}
}

// Maximum requires a numeric value of at most Limit.
type Maximum struct {
	Name  string
	Limit float64
}

func (m Maximum) FieldName() string { return m.Name }

func (m Maximum) Apply(fs field.FieldSet, res *Result) {
	if !fs.Has(m.Name) {
		return
	}
	n, ok := fs.Number(m.Name)
	if !ok {
		res.Add(m.Name, "is not a number")
		return
	}
	if n > m.Limit {
		res.Add(m.Name, fmt.Sprintf("must be less than or equal to %v", m.Limit))
	}
}

// Inclusion restricts the value to a fixed list.
type Inclusion struct {
	Name   string
	Values []string
}

func (i Inclusion) FieldName() string { return i.Name }

func (i Inclusion) Apply(fs field.FieldSet, res *Result) {
	if !fs.Has(i.Name) {
		return
	}
	s, ok := fs.String(i.Name)
	if !ok {
		res.Add(i.Name, "is not included in the list")
		return
	}
	for _, v := range i.Values {
		if s == v {
			return
		}
	}
	res.Add(i.Name, "is not included in the list")
}

// Length bounds the string length in characters. A zero bound is inactive.
type Length struct {
	Name string
	Min  int
	Max  int
}

func (l Length) FieldName() string { return l.Name }

func (l Length) Apply(fs field.FieldSet, res *Result) {
	if !fs.Has(l.Name) {
		return
	}
	s, ok := fs.String(l.Name)
	if !ok {
		return
	}
	runes := len([]rune(s))
	if l.Min > 0 && runes < l.Min {
		res.Add(l.Name, fmt.Sprintf("is too short (minimum is %d characters)", l.Min))
	}
	if l.Max > 0 && runes > l.Max {
		res.Add(l.Name, fmt.Sprintf("is too long (maximum is %d characters)", l.Max))
	}
}

// Reference requires the value to resolve against a known lookup list.
// This is the explicit form of a nested-association existence check.
type Reference struct {
	Name  string
	Known []string
}

func (r Reference) FieldName() string { return r.Name }

func (r Reference) Apply(fs field.FieldSet, res *Result) {
	if !fs.Has(r.Name) {
		return
	}
	s, ok := fs.String(r.Name)
	if !ok {
		res.Add(r.Name, "does not exist")
		return
	}
	for _, v := range r.Known {
		if s == v {
			return
		}
	}
	res.Add(r.Name, "does not exist")
}

// Nested validates each item of a nested association list against Rules.
//
// Items flagged for deletion are excluded from validation entirely; deletion
// intent takes precedence over field completeness. Violations report under
// indexed keys of the form "name[i].field".
type Nested struct {
	Name  string
	Rules []Rule
}

func (n Nested) FieldName() string { return n.Name }

func (n Nested) Apply(fs field.FieldSet, res *Result) {
	for i, item := range fs.Nested(n.Name) {
		if item.Destroyed() {
			continue
		}
		var itemRes Result
		for _, rule := range n.Rules {
			rule.Apply(item, &itemRes)
		}
		for fieldName, messages := range itemRes.Errors {
			key := fmt.Sprintf("%s[%d].%s", n.Name, i, fieldName)
			for _, msg := range messages {
				res.Add(key, msg)
			}
		}
	}
}
