package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// DeliveryAddress is the address frozen onto an order at submission time.
// It is stored as a jsonb document so later edits to the saved address do not
// rewrite order history.
type DeliveryAddress struct {
	Label        string  `json:"label,omitempty"`
	Street       string  `json:"street"`
	Number       string  `json:"number,omitempty"`
	Complement   *string `json:"complement,omitempty"`
	Neighborhood string  `json:"neighborhood,omitempty"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Zipcode      string  `json:"zipcode"`
}

// Validate reports the first missing required field.
func (a DeliveryAddress) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipcode", a.Zipcode},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("address: missing %s", field.name)
		}
	}
	return nil
}

// Value marshals the address into a jsonb document.
func (a DeliveryAddress) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("address: marshal %w", err)
	}
	return string(b), nil
}

// Scan decodes the jsonb document.
func (a *DeliveryAddress) Scan(value interface{}) error {
	if value == nil {
		*a = DeliveryAddress{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}

	var decoded DeliveryAddress
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("address: unmarshal %w", err)
	}
	*a = decoded
	return nil
}
