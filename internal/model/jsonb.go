package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a JSON-encoded list of strings stored in a JSONB column.
// Used for product sizes, image URLs and seller phrases.
type StringList []string

// Value implements the driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// SellerColors is the typed branding palette stored in a JSONB column.
type SellerColors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
}

// DefaultSellerColors returns the platform fallback palette.
func DefaultSellerColors() SellerColors {
	return SellerColors{
		Primary:   "#000000",
		Secondary: "#ffffff",
		Accent:    "#ef4444",
	}
}

// Value implements the driver.Valuer interface
func (c SellerColors) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface
func (c *SellerColors) Scan(value interface{}) error {
	if value == nil {
		*c = SellerColors{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported type for SellerColors: %T", value)
	}
}
