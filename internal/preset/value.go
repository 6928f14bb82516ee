// Package preset - typed field values
package preset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aethra/hera/internal/models"
)

// FieldType enumerates the supported dynamic field types.
type FieldType string

const (
	TypeText    FieldType = "text"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeJSON    FieldType = "json"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeBoolean, TypeDate, TypeJSON:
		return true
	}
	return false
}

// Value is the tagged union for a dynamic field value. Exactly one of the
// typed members is meaningful, selected by Type. Values are decoded and
// validated at the wire boundary; nothing downstream handles untyped data.
type Value struct {
	Type      FieldType
	Text      string
	Number    float64
	Bool      bool
	Date      time.Time
	JSON      map[string]interface{}
	SmartCode string
}

// Decode converts a raw wire value (as produced by encoding/json) into a
// typed Value, rejecting anything that does not match the declared type.
func Decode(t FieldType, raw interface{}) (Value, error) {
	v := Value{Type: t}

	switch t {
	case TypeText:
		s, ok := raw.(string)
		if !ok {
			return v, fmt.Errorf("expected text, got %T", raw)
		}
		v.Text = s

	case TypeNumber:
		switch n := raw.(type) {
		case float64:
			v.Number = n
		case int:
			v.Number = float64(n)
		case int64:
			v.Number = float64(n)
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return v, fmt.Errorf("invalid number %q", n.String())
			}
			v.Number = f
		default:
			return v, fmt.Errorf("expected number, got %T", raw)
		}

	case TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return v, fmt.Errorf("expected boolean, got %T", raw)
		}
		v.Bool = b

	case TypeDate:
		s, ok := raw.(string)
		if !ok {
			return v, fmt.Errorf("expected date string, got %T", raw)
		}
		ts, err := ParseDate(s)
		if err != nil {
			return v, err
		}
		v.Date = ts

	case TypeJSON:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return v, fmt.Errorf("expected object, got %T", raw)
		}
		v.JSON = m

	default:
		return v, fmt.Errorf("unknown field type %q", t)
	}

	return v, nil
}

// ParseDate accepts the YYYY-MM-DD editing form and full RFC3339 timestamps.
func ParseDate(s string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC3339", s)
	}
	return ts, nil
}

// Interface returns the value as a plain Go value for JSON encoding.
func (v Value) Interface() interface{} {
	switch v.Type {
	case TypeText:
		return v.Text
	case TypeNumber:
		return v.Number
	case TypeBoolean:
		return v.Bool
	case TypeDate:
		return v.Date.Format(time.RFC3339)
	case TypeJSON:
		return v.JSON
	}
	return nil
}

// ToModel populates a DynamicField row from the value, writing exactly one
// typed column.
func (v Value) ToModel(row *models.DynamicField) {
	row.FieldType = string(v.Type)
	row.SmartCode = v.SmartCode
	row.ValueText = nil
	row.ValueNumber = nil
	row.ValueBool = nil
	row.ValueDate = nil
	row.ValueJSON = nil

	switch v.Type {
	case TypeText:
		s := v.Text
		row.ValueText = &s
	case TypeNumber:
		n := v.Number
		row.ValueNumber = &n
	case TypeBoolean:
		b := v.Bool
		row.ValueBool = &b
	case TypeDate:
		d := v.Date
		row.ValueDate = &d
	case TypeJSON:
		row.ValueJSON = models.JSONB(v.JSON)
	}
}

// FromModel reconstructs a typed value from a DynamicField row.
func FromModel(row *models.DynamicField) (Value, error) {
	v := Value{Type: FieldType(row.FieldType), SmartCode: row.SmartCode}
	switch v.Type {
	case TypeText:
		if row.ValueText != nil {
			v.Text = *row.ValueText
		}
	case TypeNumber:
		if row.ValueNumber != nil {
			v.Number = *row.ValueNumber
		}
	case TypeBoolean:
		if row.ValueBool != nil {
			v.Bool = *row.ValueBool
		}
	case TypeDate:
		if row.ValueDate != nil {
			v.Date = *row.ValueDate
		}
	case TypeJSON:
		v.JSON = map[string]interface{}(row.ValueJSON)
	default:
		return v, fmt.Errorf("dynamic field %q has unknown type %q", row.FieldName, row.FieldType)
	}
	return v, nil
}
