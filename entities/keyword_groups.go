package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// KeywordGroups maps a category label to an ordered list of keyword
// strings. Stored as a jsonb column.
type KeywordGroups map[string][]string

func (k KeywordGroups) Value() (driver.Value, error) {
	if k == nil {
		return nil, nil
	}
	return json.Marshal(k)
}

func (k *KeywordGroups) Scan(value interface{}) error {
	if value == nil {
		*k = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, k)
	case string:
		return json.Unmarshal([]byte(v), k)
	default:
		return fmt.Errorf("unsupported keyword groups column type %T", value)
	}
}
