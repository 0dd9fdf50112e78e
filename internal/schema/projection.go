// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paddockhq/paddock/internal/models"
)

// MaxColumns caps how many columns a record list projects. Schemas routinely
// carry dozens of fields; past this point a table stops being readable.
const MaxColumns = 9

// InputKind selects the edit widget and coercion rule for a field.
type InputKind int

const (
	InputText InputKind = iota
	InputNumber
	InputDecimal
	InputDate
	InputDateTime
	InputSelect
	InputYesNo
)

var inputKindNames = map[InputKind]string{
	InputText:     "text",
	InputNumber:   "number",
	InputDecimal:  "decimal",
	InputDate:     "date",
	InputDateTime: "datetime",
	InputSelect:   "select",
	InputYesNo:    "yesno",
}

// String returns the kind's name.
func (k InputKind) String() string {
	if name, ok := inputKindNames[k]; ok {
		return name
	}
	return "text"
}

// Choice is one option of a closed choice set.
type Choice struct {
	Label string
	Value any
}

// defaultColumnOrder ranks well-known field names first so schemas without
// an entity display order still lead with what an operator scans for. Names
// not listed keep their schema order after these.
var defaultColumnOrder = []string{
	"name", "batch_name", "title", "label",
	"log_date", "date", "entry_date", "purchase_date", "harvest_date",
	"status", "quantity", "amount", "total",
}

// Columns projects a schema into the field names a record list displays.
// When displayOrder is non-empty it is used verbatim, keeping only names
// that exist in the schema; otherwise schema order applies with the
// default well-known-name ranking. The primary key is never displayed and
// the result is capped at MaxColumns.
func Columns(meta models.EntityMetadata, displayOrder []string) []string {
	var cols []string
	if len(displayOrder) > 0 {
		for _, name := range displayOrder {
			if name == meta.PrimaryKey {
				continue
			}
			if _, ok := meta.FieldByName(name); ok {
				cols = append(cols, name)
			}
		}
	} else {
		cols = rankedSchemaColumns(meta)
	}

	if len(cols) > MaxColumns {
		cols = cols[:MaxColumns]
	}
	return cols
}

func rankedSchemaColumns(meta models.EntityMetadata) []string {
	rank := make(map[string]int, len(defaultColumnOrder))
	for i, name := range defaultColumnOrder {
		rank[name] = i
	}

	var preferred, rest []string
	for _, f := range meta.Fields {
		if f.Name == meta.PrimaryKey {
			continue
		}
		if _, ok := rank[f.Name]; ok {
			preferred = append(preferred, f.Name)
		} else {
			rest = append(rest, f.Name)
		}
	}

	// Preferred names sort by their rank; schema order breaks ties only
	// within rest, which is already in schema order.
	for i := 1; i < len(preferred); i++ {
		for j := i; j > 0 && rank[preferred[j]] < rank[preferred[j-1]]; j-- {
			preferred[j], preferred[j-1] = preferred[j-1], preferred[j]
		}
	}

	return append(preferred, rest...)
}

// EditableFields returns the schema's fields minus read-only ones and the
// primary key. These are the only fields a write payload may carry.
func EditableFields(meta models.EntityMetadata) []models.Field {
	var out []models.Field
	for _, f := range meta.Fields {
		if f.ReadOnly || f.Name == meta.PrimaryKey {
			continue
		}
		out = append(out, f)
	}
	return out
}

// KindOf maps a field to its input kind. Enum fields are closed choice
// sets; a numeric column backed by a tinyint(1) storage hint is a Yes/No
// toggle rather than a free number.
func KindOf(f models.Field) InputKind {
	if len(f.EnumValues) > 0 {
		return InputSelect
	}
	if f.BooleanCoded() {
		return InputYesNo
	}
	switch f.FieldType {
	case models.FieldNumber:
		return InputNumber
	case models.FieldDecimal:
		return InputDecimal
	case models.FieldDate:
		return InputDate
	case models.FieldDateTime:
		return InputDateTime
	default:
		return InputText
	}
}

// Choices returns the closed choice set for a field, or nil for free-form
// fields. Yes/No fields map to 1/0, never to booleans: the backing column
// is numeric.
func Choices(f models.Field) []Choice {
	switch KindOf(f) {
	case InputSelect:
		out := make([]Choice, 0, len(f.EnumValues))
		for _, v := range f.EnumValues {
			out = append(out, Choice{Label: v, Value: v})
		}
		return out
	case InputYesNo:
		return []Choice{
			{Label: "Yes", Value: 1},
			{Label: "No", Value: 0},
		}
	default:
		return nil
	}
}

// CoerceInput converts raw user input for a field into the value a write
// payload carries. Blank input for a numeric field coerces to nil, an
// explicit unset, never to zero: an unrecorded weight is not a weight of
// zero.
func CoerceInput(f models.Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)

	switch KindOf(f) {
	case InputNumber:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %q is not a whole number", f.Name, raw)
		}
		return n, nil

	case InputDecimal:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %q is not a number", f.Name, raw)
		}
		return n, nil

	case InputYesNo:
		switch strings.ToLower(raw) {
		case "", "no", "n", "0", "false":
			return 0, nil
		case "yes", "y", "1", "true":
			return 1, nil
		default:
			return nil, fmt.Errorf("field %s: %q is not yes or no", f.Name, raw)
		}

	case InputSelect:
		if raw == "" {
			return nil, nil
		}
		for _, v := range f.EnumValues {
			if strings.EqualFold(v, raw) {
				return v, nil
			}
		}
		return nil, fmt.Errorf("field %s: %q is not one of %s", f.Name, raw, strings.Join(f.EnumValues, ", "))

	default:
		return raw, nil
	}
}
