// Package schema reads form definition files.
//
// A form definition (typically formflow-schema.yaml) declares the target
// entity, the ordered form steps, each step's fields, and the validation
// rules attached to each field. The definition drives the cumulative rule
// table instead of hardcoding a class hierarchy of step forms.
//
// YAML format:
//
//	entity: product
//	unique_field: sku
//	references:
//	  categories: [apparel, hardware, grocery]
//	steps:
//	  - name: basics
//	    fields:
//	      - name: kind
//	        presence: true
//	        in: [standard, premium]
//	  - name: pricing
//	    fields:
//	      - name: price
//	        presence: true
//	        min: 0
//
// Steps are ordered; the last step is the terminal (committing) step. A field
// may declare a nested association with per-item fields under `nested`.
package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSchemaPath is the definition location searched relative to the
// working directory when no explicit path is configured.
const DefaultSchemaPath = "formflow-schema.yaml"

// EnvSchemaPath is the environment variable overriding definition discovery.
const EnvSchemaPath = "FORMFLOW_SCHEMA_PATH"

// FieldDef declares one field and its validation rules.
//
// Rule knobs are optional; a field with none declared is permitted but
// unvalidated. Numeric bounds use pointers so that a zero bound (min: 0)
// is distinguishable from an absent one.
type FieldDef struct {
	// Name is the field name as it appears in submissions.
	Name string `yaml:"name"`

	// Presence requires a non-blank value.
	Presence bool `yaml:"presence,omitempty"`

	// Min is the inclusive numeric lower bound.
	Min *float64 `yaml:"min,omitempty"`

	// Max is the inclusive numeric upper bound.
	Max *float64 `yaml:"max,omitempty"`

	// In restricts the value to a fixed list.
	In []string `yaml:"in,omitempty"`

	// MinLength and MaxLength bound the string length in characters.
	MinLength int `yaml:"min_length,omitempty"`
	MaxLength int `yaml:"max_length,omitempty"`

	// Reference names a key in [Definition.References]; the value must
	// resolve to an entry of that list.
	Reference string `yaml:"reference,omitempty"`

	// Nested declares the field as a nested association whose items are
	// validated against these per-item field definitions.
	Nested []FieldDef `yaml:"nested,omitempty"`
}

// StepDef declares one step: its display name and its fields.
type StepDef struct {
	// Name labels the step in progress output (e.g., "basics", "pricing").
	Name string `yaml:"name"`

	// Fields are the fields introduced at this step. Earlier steps' fields
	// remain required; rule sets only grow.
	Fields []FieldDef `yaml:"fields"`
}

// Definition is a complete parsed form definition.
type Definition struct {
	// Entity is the target entity name (e.g., "product").
	Entity string `yaml:"entity"`

	// UniqueField names the field enforced unique across persisted records.
	// Empty disables the uniqueness constraint.
	UniqueField string `yaml:"unique_field,omitempty"`

	// References holds named lookup lists for reference rules.
	References map[string][]string `yaml:"references,omitempty"`

	// Steps are the ordered form steps. The last step commits.
	Steps []StepDef `yaml:"steps"`
}

// Load reads and parses a form definition YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form definition: %w", err)
	}
	return Parse(data)
}

// Parse parses a form definition from YAML bytes.
// This is useful for testing and for embedding definitions.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse form definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// FindDefinition discovers and loads the form definition.
//
// Resolution order:
//  1. FORMFLOW_SCHEMA_PATH environment variable (used as-is if set)
//  2. Explicit schemaPath parameter (if non-empty)
//  3. ./formflow-schema.yaml if it exists
//  4. [Default] built-in product definition
func FindDefinition(schemaPath string) (*Definition, error) {
	if envPath := os.Getenv(EnvSchemaPath); envPath != "" {
		return Load(envPath)
	}
	if schemaPath != "" {
		return Load(schemaPath)
	}
	if _, err := os.Stat(DefaultSchemaPath); err == nil {
		return Load(DefaultSchemaPath)
	}
	return Default(), nil
}

// Validate checks the definition for structural problems: it must declare an
// entity and at least one step, step and field names must be present and
// unique, and reference rules must name a declared reference list.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Entity) == "" {
		return fmt.Errorf("form definition: entity name is required")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("form definition: at least one step is required")
	}

	seenSteps := make(map[string]bool)
	seenFields := make(map[string]bool)
	for i, step := range d.Steps {
		if strings.TrimSpace(step.Name) == "" {
			return fmt.Errorf("form definition: step %d: name is required", i+1)
		}
		if seenSteps[step.Name] {
			return fmt.Errorf("form definition: duplicate step name: %s", step.Name)
		}
		seenSteps[step.Name] = true

		for _, f := range step.Fields {
			if strings.TrimSpace(f.Name) == "" {
				return fmt.Errorf("form definition: step %s: field name is required", step.Name)
			}
			if seenFields[f.Name] {
				return fmt.Errorf("form definition: duplicate field name: %s", f.Name)
			}
			seenFields[f.Name] = true

			if err := d.validateFieldDef(step.Name, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Definition) validateFieldDef(stepName string, f FieldDef) error {
	if f.Reference != "" {
		if _, ok := d.References[f.Reference]; !ok {
			return fmt.Errorf("form definition: step %s: field %s: unknown reference list: %s",
				stepName, f.Name, f.Reference)
		}
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("form definition: step %s: field %s: min exceeds max", stepName, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("form definition: step %s: field %s: min_length exceeds max_length", stepName, f.Name)
	}
	for _, nested := range f.Nested {
		if strings.TrimSpace(nested.Name) == "" {
			return fmt.Errorf("form definition: step %s: field %s: nested field name is required", stepName, f.Name)
		}
		if err := d.validateFieldDef(stepName, nested); err != nil {
			return err
		}
	}
	return nil
}

// TerminalStep returns the 1-based index of the committing step.
func (d *Definition) TerminalStep() int {
	return len(d.Steps)
}

// StepName returns the display name of the given 1-based step, or "" when
// the step is out of range.
func (d *Definition) StepName(step int) string {
	if step < 1 || step > len(d.Steps) {
		return ""
	}
	return d.Steps[step-1].Name
}

// FieldsThrough returns the names of all fields declared by steps 1..step,
// the permitted-attribute list for a submission at that step.
func (d *Definition) FieldsThrough(step int) []string {
	if step > len(d.Steps) {
		step = len(d.Steps)
	}
	var names []string
	for i := 0; i < step; i++ {
		for _, f := range d.Steps[i].Fields {
			names = append(names, f.Name)
		}
	}
	return names
}

func floatPtr(f float64) *float64 { return &f }

// Default returns the built-in product definition used when no schema file is
// found. It exercises every rule kind: two scalar steps plus a nested variant
// association on the terminal step.
func Default() *Definition {
	return &Definition{
		Entity:      "product",
		UniqueField: "sku",
		References: map[string][]string{
			"categories": {"apparel", "hardware", "grocery"},
		},
		Steps: []StepDef{
			{
				Name: "basics",
				Fields: []FieldDef{
					{Name: "kind", Presence: true, In: []string{"standard", "premium"}},
					{Name: "name", Presence: true, MinLength: 2, MaxLength: 80},
					{Name: "category", Reference: "categories"},
				},
			},
			{
				Name: "pricing",
				Fields: []FieldDef{
					{Name: "sku", Presence: true},
					{Name: "price", Presence: true, Min: floatPtr(0)},
					{
						Name: "variants",
						Nested: []FieldDef{
							{Name: "name", Presence: true},
							{Name: "stock", Min: floatPtr(0)},
						},
					},
				},
			},
		},
	}
}
