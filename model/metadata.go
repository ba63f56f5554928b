package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/siherrmann/lexgraph/helper"
)

// Metadata is a JSONB document stored in PostgreSQL, used for node and
// relationship properties and for segment payloads.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return helper.NewError("scan metadata", errors.New("type assertion to []byte failed"))
	}
}

// GetString returns the string stored under key or an empty string.
func (m Metadata) GetString(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// MetadataFrom converts a struct to Metadata through its JSON form.
func MetadataFrom(v interface{}) (Metadata, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, helper.NewError("marshal metadata", err)
	}
	m := Metadata{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, helper.NewError("unmarshal metadata", err)
	}
	return m, nil
}

// Decode converts the Metadata into v through its JSON form.
func (m Metadata) Decode(v interface{}) error {
	b, err := json.Marshal(m)
	if err != nil {
		return helper.NewError("marshal metadata", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return helper.NewError("decode metadata", fmt.Errorf("%w: %v", helper.ErrProviderData, err))
	}
	return nil
}
