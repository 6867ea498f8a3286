// Handles export of a Schema Table as a JSON Schema describing one data row.

package schema

import (
	"github.com/invopop/jsonschema"

	"github.com/maruel/dataplusmeta/frame"
)

// DescriptionField is the descriptor field copied to each property's
// description.
const DescriptionField = "description"

// dateTimePattern matches frame.DateTimeLayout.
const dateTimePattern = `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`

const decimalPattern = `^[-+]?\d+(\.\d+)?$`

// JSONSchema returns a JSON Schema validating one row of the data, as an
// object keyed by column label. Every column is required and may be null.
//
// Descriptor fields other than dtype and description are exported as "x-"
// extensions so they cannot clash with JSON Schema keywords.
func (t *Table) JSONSchema(title string) *jsonschema.Schema {
	s := &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                title,
		Type:                 "object",
		Properties:           jsonschema.NewProperties(),
		AdditionalProperties: jsonschema.FalseSchema,
	}
	for _, r := range t.Rows {
		s.Properties.Set(r.Label, t.property(&r))
		s.Required = append(s.Required, r.Label)
	}
	return s
}

func (t *Table) property(r *Row) *jsonschema.Schema {
	p := &jsonschema.Schema{}
	if dtype, ok := t.DType(r.Label); ok {
		typed := typeSchema(dtype)
		p.AnyOf = []*jsonschema.Schema{typed, {Type: "null"}}
		p.Extras = map[string]any{"x-dtype": string(dtype)}
	}
	for j, field := range t.Fields {
		if field == DTypeField || j >= len(r.Values) || r.Values[j] == "" {
			continue
		}
		if field == DescriptionField {
			p.Description = r.Values[j]
			continue
		}
		if p.Extras == nil {
			p.Extras = map[string]any{}
		}
		p.Extras["x-"+field] = r.Values[j]
	}
	return p
}

func typeSchema(dtype frame.DType) *jsonschema.Schema {
	switch dtype.Kind() {
	case frame.KindInt:
		return &jsonschema.Schema{Type: "integer"}
	case frame.KindFloat:
		return &jsonschema.Schema{Type: "number"}
	case frame.KindBool:
		return &jsonschema.Schema{Type: "boolean"}
	case frame.KindTime:
		return &jsonschema.Schema{Type: "string", Pattern: dateTimePattern}
	case frame.KindDecimal:
		return &jsonschema.Schema{Type: "string", Pattern: decimalPattern}
	case frame.KindString:
		return &jsonschema.Schema{Type: "string"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}
