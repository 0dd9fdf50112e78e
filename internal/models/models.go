// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package models holds the wire types shared by the API client, the schema
// registry, the record workspace, and the report pipeline.
package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FieldType is the tagged variant describing how a schema field is typed.
// It drives column projection and input policy; view code never dispatches
// on raw strings.
type FieldType int

const (
	FieldText FieldType = iota
	FieldNumber
	FieldDecimal
	FieldDate
	FieldDateTime
	FieldString
)

var fieldTypeNames = map[FieldType]string{
	FieldText:     "text",
	FieldNumber:   "number",
	FieldDecimal:  "decimal",
	FieldDate:     "date",
	FieldDateTime: "datetime",
	FieldString:   "string",
}

var fieldTypesByName = map[string]FieldType{
	"text":     FieldText,
	"number":   FieldNumber,
	"decimal":  FieldDecimal,
	"date":     FieldDate,
	"datetime": FieldDateTime,
	"string":   FieldString,
}

// String returns the wire name of the field type.
func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "text"
}

// IsNumeric reports whether the type carries a numeric value.
func (t FieldType) IsNumeric() bool {
	return t == FieldNumber || t == FieldDecimal
}

// MarshalJSON implements json.Marshaler.
func (t FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler. Unknown type names decode as
// text: the schema is server-supplied and a new type must degrade to a
// plain text field rather than fail the whole module.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("field type: %w", err)
	}

	if parsed, ok := fieldTypesByName[strings.ToLower(name)]; ok {
		*t = parsed
	} else {
		*t = FieldText
	}
	return nil
}

// Field is one column of a server-supplied entity schema.
type Field struct {
	Name       string    `json:"name"`
	FieldType  FieldType `json:"field_type"`
	EnumValues []string  `json:"enum_values,omitempty"`
	ReadOnly   bool      `json:"read_only"`

	// ColumnType is the backing storage-type hint (e.g. "tinyint(1)",
	// "decimal(10,2)"). Optional.
	ColumnType string `json:"column_type,omitempty"`
}

// BooleanCoded reports whether a numeric column is a 0/1 boolean in
// disguise, declared via its storage-type hint. Such fields render as a
// Yes/No choice mapped to 1/0.
func (f Field) BooleanCoded() bool {
	return f.FieldType == FieldNumber && strings.HasPrefix(strings.ToLower(f.ColumnType), "tinyint(1)")
}

// EntityMetadata is the server-supplied schema for one entity table.
// Immutable for the lifetime of a workspace session; refetched per module.
type EntityMetadata struct {
	Table       string  `json:"table"`
	EntityLabel string  `json:"entity_label"`
	PrimaryKey  string  `json:"primary_key"`
	Fields      []Field `json:"fields"`
}

// FieldByName returns the named field, if present.
func (m EntityMetadata) FieldByName(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// RecordRow is an open map of field name to scalar value. Its identity is
// owned entirely by the remote system; the client never originates one.
type RecordRow map[string]any

// String returns the row's value for field rendered as a string. Numeric
// values render without a trailing ".000000".
func (r RecordRow) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case bool:
		if tv {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", tv)
	}
}

// Float returns the row's value for field as a float64. String values are
// parsed; missing, null, and unparseable values report ok=false.
func (r RecordRow) Float(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	switch tv := v.(type) {
	case float64:
		return tv, true
	case int:
		return float64(tv), true
	case int64:
		return float64(tv), true
	case json.Number:
		f, err := tv.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(tv), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ID returns the row's primary-key value as a string, or "" when absent.
func (r RecordRow) ID(primaryKey string) string {
	return r.String(primaryKey)
}

// EntitiesEnvelope is the response body of GET /entities.
type EntitiesEnvelope struct {
	OK       bool             `json:"ok"`
	Message  string           `json:"message,omitempty"`
	Entities []EntityMetadata `json:"entities"`
}

// RecordsEnvelope is the response body of GET /records.
type RecordsEnvelope struct {
	OK         bool        `json:"ok"`
	Message    string      `json:"message,omitempty"`
	Rows       []RecordRow `json:"rows"`
	Page       int         `json:"page"`
	TotalPages int         `json:"total_pages"`
	TotalCount int         `json:"total_count"`
}

// WriteReceipt is the outcome of a create/update/delete call. Queued means
// the API accepted the write but deferred it because the authoritative
// store was unreachable; it must never be rendered as an unqualified
// success.
type WriteReceipt struct {
	OK      bool      `json:"ok"`
	Message string    `json:"message,omitempty"`
	Queued  bool      `json:"queued,omitempty"`
	Row     RecordRow `json:"row,omitempty"`
}
