// Package models - custom SQL column types
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB maps a PostgreSQL jsonb column to a generic map.
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface.
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("jsonb scan: unsupported source type")
	}

	if len(raw) == 0 {
		*j = make(JSONB)
		return nil
	}

	result := make(JSONB)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*j = result
	return nil
}
