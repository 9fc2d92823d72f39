package rules

import (
	"errors"

	"formflow/internal/field"
	"formflow/internal/schema"
)

// ErrUnknownStep is a sentinel error indicating the step number is outside
// the table's sequence. Callers should report this as a caller mistake; it
// does not describe the submitted field values.
var ErrUnknownStep = errors.New("unknown step number")

// Table holds the rule sets for an ordered step sequence.
//
// Create with [NewTable] from a form definition, or [DefaultTable] for the
// built-in product definition. Step numbers are 1-based; the last step is
// the terminal (committing) step.
type Table struct {
	def *schema.Definition

	// introduced[i] holds the rules first declared at step i+1.
	introduced [][]Rule
}

// NewTable builds a [Table] from a form definition.
//
// Each field definition expands to zero or more rules; a field declaring
// nested per-item fields becomes a [Nested] rule wrapping the item rules.
// Returns an error when the definition fails its own validation.
func NewTable(def *schema.Definition) (*Table, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	introduced := make([][]Rule, len(def.Steps))
	for i, step := range def.Steps {
		var stepRules []Rule
		for _, f := range step.Fields {
			stepRules = append(stepRules, rulesForField(def, f)...)
		}
		introduced[i] = stepRules
	}

	return &Table{def: def, introduced: introduced}, nil
}

// DefaultTable returns the table for the built-in product definition.
func DefaultTable() *Table {
	t, err := NewTable(schema.Default())
	if err != nil {
		// The built-in definition is validated by its own tests; failing to
		// build it is a programming error, not a runtime condition.
		panic(err)
	}
	return t
}

func rulesForField(def *schema.Definition, f schema.FieldDef) []Rule {
	var out []Rule
	if f.Presence {
		out = append(out, Presence{Name: f.Name})
	}
	if f.Min != nil {
		out = append(out, Minimum{Name: f.Name, Limit: *f.Min})
	}
	if f.Max != nil {
		out = append(out, Maximum{Name: f.Name, Limit: *f.Max})
	}
	if len(f.In) > 0 {
		out = append(out, Inclusion{Name: f.Name, Values: f.In})
	}
	if f.MinLength > 0 || f.MaxLength > 0 {
		out = append(out, Length{Name: f.Name, Min: f.MinLength, Max: f.MaxLength})
	}
	if f.Reference != "" {
		out = append(out, Reference{Name: f.Name, Known: def.References[f.Reference]})
	}
	if len(f.Nested) > 0 {
		var itemRules []Rule
		for _, nested := range f.Nested {
			itemRules = append(itemRules, rulesForField(def, nested)...)
		}
		out = append(out, Nested{Name: f.Name, Rules: itemRules})
	}
	return out
}

// Terminal returns the 1-based number of the committing step.
func (t *Table) Terminal() int {
	return len(t.introduced)
}

// StepName returns the display name of the given step, or "" if out of range.
func (t *Table) StepName(step int) string {
	return t.def.StepName(step)
}

// Definition returns the form definition the table was built from.
func (t *Table) Definition() *schema.Definition {
	return t.def
}

// RulesThrough returns the effective rule set at the given step: every rule
// introduced by steps 1..step, in declaration order.
//
// Returns [ErrUnknownStep] when step is outside 1..Terminal().
func (t *Table) RulesThrough(step int) ([]Rule, error) {
	if step < 1 || step > len(t.introduced) {
		return nil, ErrUnknownStep
	}
	var out []Rule
	for i := 0; i < step; i++ {
		out = append(out, t.introduced[i]...)
	}
	return out, nil
}

// Permitted returns the permitted top-level field names for a submission at
// the given step: every field declared by steps 1..step.
func (t *Table) Permitted(step int) []string {
	return t.def.FieldsThrough(step)
}

// Permit returns a copy of fs filtered to the fields declared through the
// given step. Nested association items are filtered to their declared
// per-item field names; the deletion marker is always kept so destroy
// intent survives the filter.
func (t *Table) Permit(fs field.FieldSet, step int) field.FieldSet {
	permitted := fs.Permit(t.Permitted(step))

	last := step
	if last > len(t.def.Steps) {
		last = len(t.def.Steps)
	}
	for i := 0; i < last; i++ {
		for _, f := range t.def.Steps[i].Fields {
			if len(f.Nested) == 0 {
				continue
			}
			if _, ok := permitted[f.Name]; !ok {
				continue
			}
			permitted[f.Name] = permitItems(f.Nested, fs.Nested(f.Name))
		}
	}
	return permitted
}

func permitItems(defs []schema.FieldDef, items []field.FieldSet) []field.FieldSet {
	names := make([]string, 0, len(defs)+1)
	for _, d := range defs {
		names = append(names, d.Name)
	}
	names = append(names, field.DestroyKey)

	out := make([]field.FieldSet, len(items))
	for i, item := range items {
		kept := item.Permit(names)
		for _, d := range defs {
			if len(d.Nested) == 0 {
				continue
			}
			if _, ok := kept[d.Name]; !ok {
				continue
			}
			kept[d.Name] = permitItems(d.Nested, item.Nested(d.Name))
		}
		out[i] = kept
	}
	return out
}

// Validate checks a field set against the cumulative rule set of the given
// step. Fields belonging to later steps are ignored.
//
// Returns [ErrUnknownStep] when step is outside the sequence; otherwise the
// result carries any rule violations and Valid reports the outcome.
func (t *Table) Validate(fs field.FieldSet, step int) (Result, error) {
	ruleSet, err := t.RulesThrough(step)
	if err != nil {
		return Result{}, err
	}

	permitted := t.Permit(fs, step)

	var res Result
	for _, rule := range ruleSet {
		rule.Apply(permitted, &res)
	}
	return res, nil
}
