// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestFieldType_UnmarshalKnownAndUnknown(t *testing.T) {
	tests := []struct {
		in   string
		want FieldType
	}{
		{`"text"`, FieldText},
		{`"number"`, FieldNumber},
		{`"decimal"`, FieldDecimal},
		{`"date"`, FieldDate},
		{`"datetime"`, FieldDateTime},
		{`"string"`, FieldString},
		{`"DECIMAL"`, FieldDecimal},
		{`"geom"`, FieldText}, // unknown types degrade to text
	}
	for _, tt := range tests {
		var got FieldType
		if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestField_BooleanCoded(t *testing.T) {
	tests := []struct {
		field Field
		want  bool
	}{
		{Field{FieldType: FieldNumber, ColumnType: "tinyint(1)"}, true},
		{Field{FieldType: FieldNumber, ColumnType: "TINYINT(1) unsigned"}, true},
		{Field{FieldType: FieldNumber, ColumnType: "int(11)"}, false},
		{Field{FieldType: FieldText, ColumnType: "tinyint(1)"}, false},
		{Field{FieldType: FieldNumber}, false},
	}
	for _, tt := range tests {
		if got := tt.field.BooleanCoded(); got != tt.want {
			t.Errorf("BooleanCoded(%+v) = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestEntityMetadata_Unmarshal(t *testing.T) {
	raw := `{
		"table": "batches",
		"entity_label": "Batches",
		"primary_key": "id",
		"fields": [
			{"name": "id", "field_type": "number", "read_only": true},
			{"name": "breed", "field_type": "text", "enum_values": ["ross308", "cobb500"]},
			{"name": "active", "field_type": "number", "column_type": "tinyint(1)"}
		]
	}`

	var meta EntityMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if meta.PrimaryKey != "id" || len(meta.Fields) != 3 {
		t.Fatalf("meta = %+v", meta)
	}

	breed, ok := meta.FieldByName("breed")
	if !ok || len(breed.EnumValues) != 2 {
		t.Errorf("breed field = %+v ok=%v", breed, ok)
	}
	active, _ := meta.FieldByName("active")
	if !active.BooleanCoded() {
		t.Error("active should be boolean-coded")
	}
}

func TestRecordRow_Float(t *testing.T) {
	row := RecordRow{
		"feed_kg":  12.5,
		"count":    "37",
		"padded":   " 4.25 ",
		"empty":    "",
		"null":     nil,
		"language": "english",
	}

	tests := []struct {
		field string
		want  float64
		ok    bool
	}{
		{"feed_kg", 12.5, true},
		{"count", 37, true},
		{"padded", 4.25, true},
		{"empty", 0, false},
		{"null", 0, false},
		{"language", 0, false},
		{"absent", 0, false},
	}
	for _, tt := range tests {
		got, ok := row.Float(tt.field)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Float(%q) = (%v, %v), want (%v, %v)", tt.field, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRecordRow_StringRendering(t *testing.T) {
	row := RecordRow{"qty": float64(500), "rate": 2.5, "name": "coop A", "flag": true}

	if got := row.String("qty"); got != "500" {
		t.Errorf("String(qty) = %q", got)
	}
	if got := row.String("rate"); got != "2.5" {
		t.Errorf("String(rate) = %q", got)
	}
	if got := row.String("name"); got != "coop A" {
		t.Errorf("String(name) = %q", got)
	}
	if got := row.String("flag"); got != "1" {
		t.Errorf("String(flag) = %q", got)
	}
	if got := row.String("absent"); got != "" {
		t.Errorf("String(absent) = %q", got)
	}
}
