package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSlice maps a []string to a JSONB column. A nil slice stores SQL NULL.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal([]string(s))
}

func (s *StringSlice) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", src)
	}
	return json.Unmarshal(b, (*[]string)(s))
}
