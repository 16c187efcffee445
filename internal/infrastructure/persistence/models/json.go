package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopfront/backend/internal/domain/catalog"
)

// StringMap is a map stored as a JSON document
type StringMap map[string]string

// Value implements driver.Valuer
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return marshalJSON(m)
}

// Scan implements sql.Scanner
func (m *StringMap) Scan(value any) error {
	return scanJSON(value, m)
}

// VariantMap holds a product's variants keyed by SKU as a JSON document
type VariantMap map[string]catalog.Variant

// Value implements driver.Valuer
func (m VariantMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return marshalJSON(m)
}

// Scan implements sql.Scanner
func (m *VariantMap) Scan(value any) error {
	return scanJSON(value, m)
}

func marshalJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(value any, dest any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into JSON column", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// JSONRaw is an already-encoded JSON document
type JSONRaw []byte

// Value implements driver.Valuer
func (r JSONRaw) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "null", nil
	}
	return string(r), nil
}

// Scan implements sql.Scanner. The bytes are copied since drivers reuse
// their buffers.
func (r *JSONRaw) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*r = nil
	case string:
		*r = JSONRaw(v)
	case []byte:
		*r = append(JSONRaw(nil), v...)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", value)
	}
	return nil
}
