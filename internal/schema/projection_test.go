// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package schema

import (
	"reflect"
	"testing"

	"github.com/paddockhq/paddock/internal/models"
)

func batchMeta() models.EntityMetadata {
	return models.EntityMetadata{
		Table:       "batches",
		EntityLabel: "Batch",
		PrimaryKey:  "id",
		Fields: []models.Field{
			{Name: "id", FieldType: models.FieldNumber, ReadOnly: true},
			{Name: "created_at", FieldType: models.FieldDateTime, ReadOnly: true},
			{Name: "batch_name", FieldType: models.FieldText},
			{Name: "species", FieldType: models.FieldText, EnumValues: []string{"Broiler", "Layer", "Catfish"}},
			{Name: "quantity", FieldType: models.FieldNumber},
			{Name: "status", FieldType: models.FieldText, EnumValues: []string{"active", "closed"}},
			{Name: "log_date", FieldType: models.FieldDate},
			{Name: "is_vaccinated", FieldType: models.FieldNumber, ColumnType: "tinyint(1)"},
			{Name: "unit_cost", FieldType: models.FieldDecimal, ColumnType: "decimal(10,2)"},
			{Name: "notes", FieldType: models.FieldText},
			{Name: "supplier", FieldType: models.FieldText},
			{Name: "pen", FieldType: models.FieldText},
		},
	}
}

func TestColumnsExcludesPrimaryKeyAndCaps(t *testing.T) {
	cols := Columns(batchMeta(), nil)

	if len(cols) > MaxColumns {
		t.Fatalf("Columns() returned %d columns, cap is %d", len(cols), MaxColumns)
	}
	for _, c := range cols {
		if c == "id" {
			t.Error("Columns() included the primary key")
		}
	}
}

func TestColumnsUsesEntityDisplayOrder(t *testing.T) {
	order := []string{"quantity", "batch_name", "status"}
	cols := Columns(batchMeta(), order)

	if !reflect.DeepEqual(cols, order) {
		t.Errorf("Columns() = %v, want the display order %v verbatim", cols, order)
	}
}

func TestColumnsDisplayOrderDropsUnknownAndPrimaryKey(t *testing.T) {
	cols := Columns(batchMeta(), []string{"id", "batch_name", "acreage", "pen"})

	if !reflect.DeepEqual(cols, []string{"batch_name", "pen"}) {
		t.Errorf("Columns() = %v, want [batch_name pen]", cols)
	}
}

func TestColumnsDisplayOrderCapped(t *testing.T) {
	order := []string{
		"batch_name", "species", "quantity", "status", "log_date",
		"is_vaccinated", "unit_cost", "notes", "supplier", "pen",
	}
	cols := Columns(batchMeta(), order)
	if len(cols) != MaxColumns {
		t.Errorf("Columns() returned %d columns, want cap %d", len(cols), MaxColumns)
	}
}

func TestColumnsPrefersWellKnownNames(t *testing.T) {
	cols := Columns(batchMeta(), nil)

	// batch_name ranks before log_date, which ranks before status and
	// quantity; all four rank before unranked schema-order fields.
	want := []string{"batch_name", "log_date", "status", "quantity"}
	if len(cols) < len(want) {
		t.Fatalf("Columns() = %v, want at least %d entries", cols, len(want))
	}
	if !reflect.DeepEqual(cols[:len(want)], want) {
		t.Errorf("Columns()[:4] = %v, want %v", cols[:len(want)], want)
	}
}

func TestColumnsSmallSchemaUntruncated(t *testing.T) {
	meta := models.EntityMetadata{
		PrimaryKey: "id",
		Fields: []models.Field{
			{Name: "id"},
			{Name: "cause"},
			{Name: "count"},
		},
	}
	cols := Columns(meta, nil)
	if !reflect.DeepEqual(cols, []string{"cause", "count"}) {
		t.Errorf("Columns() = %v, want [cause count]", cols)
	}
}

func TestEditableFieldsExcludesReadOnly(t *testing.T) {
	fields := EditableFields(batchMeta())

	for _, f := range fields {
		if f.ReadOnly {
			t.Errorf("EditableFields() included read-only field %s", f.Name)
		}
		if f.Name == "id" || f.Name == "created_at" {
			t.Errorf("EditableFields() included %s", f.Name)
		}
	}
	if len(fields) != 10 {
		t.Errorf("EditableFields() returned %d fields, want 10", len(fields))
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name  string
		field models.Field
		want  InputKind
	}{
		{"enum wins over type", models.Field{FieldType: models.FieldText, EnumValues: []string{"a"}}, InputSelect},
		{"tinyint(1) number", models.Field{FieldType: models.FieldNumber, ColumnType: "tinyint(1)"}, InputYesNo},
		{"plain number", models.Field{FieldType: models.FieldNumber}, InputNumber},
		{"decimal", models.Field{FieldType: models.FieldDecimal, ColumnType: "decimal(10,2)"}, InputDecimal},
		{"date", models.Field{FieldType: models.FieldDate}, InputDate},
		{"datetime", models.Field{FieldType: models.FieldDateTime}, InputDateTime},
		{"text", models.Field{FieldType: models.FieldText}, InputText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.field); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChoicesYesNoMapsToNumbers(t *testing.T) {
	f := models.Field{Name: "is_vaccinated", FieldType: models.FieldNumber, ColumnType: "tinyint(1)"}
	choices := Choices(f)

	if len(choices) != 2 {
		t.Fatalf("Choices() returned %d options, want 2", len(choices))
	}
	if choices[0].Value != 1 || choices[1].Value != 0 {
		t.Errorf("Choices() = %+v, want Yes=1 No=0", choices)
	}
	for _, c := range choices {
		if _, isBool := c.Value.(bool); isBool {
			t.Errorf("Choices() produced a boolean value for %s", c.Label)
		}
	}
}

func TestChoicesEnum(t *testing.T) {
	f := models.Field{Name: "status", EnumValues: []string{"active", "closed"}}
	choices := Choices(f)
	if len(choices) != 2 || choices[0].Value != "active" {
		t.Errorf("Choices() = %+v", choices)
	}
}

func TestChoicesFreeForm(t *testing.T) {
	if got := Choices(models.Field{FieldType: models.FieldText}); got != nil {
		t.Errorf("Choices() = %+v, want nil", got)
	}
}

func TestCoerceInput(t *testing.T) {
	number := models.Field{Name: "quantity", FieldType: models.FieldNumber}
	decimal := models.Field{Name: "weight_kg", FieldType: models.FieldDecimal}
	yesno := models.Field{Name: "is_vaccinated", FieldType: models.FieldNumber, ColumnType: "tinyint(1)"}
	enum := models.Field{Name: "status", EnumValues: []string{"active", "closed"}}
	text := models.Field{Name: "notes", FieldType: models.FieldText}

	tests := []struct {
		name    string
		field   models.Field
		raw     string
		want    any
		wantErr bool
	}{
		{"blank number is nil, not zero", number, "", nil, false},
		{"blank decimal is nil", decimal, "  ", nil, false},
		{"number parses", number, "250", int64(250), false},
		{"number rejects fraction", number, "2.5", nil, true},
		{"decimal parses", decimal, "1.85", 1.85, false},
		{"decimal rejects garbage", decimal, "heavy", nil, true},
		{"yes maps to 1", yesno, "yes", 1, false},
		{"no maps to 0", yesno, "No", 0, false},
		{"blank yesno defaults to 0", yesno, "", 0, false},
		{"yesno rejects maybe", yesno, "maybe", nil, true},
		{"enum canonicalizes case", enum, "ACTIVE", "active", false},
		{"enum rejects unknown", enum, "paused", nil, true},
		{"blank enum unsets", enum, "", nil, false},
		{"text passes through trimmed", text, "  fine  ", "fine", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceInput(tt.field, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CoerceInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CoerceInput() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
