package addresses

import (
	"strings"

	"github.com/angelmondragon/foodcart-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/angelmondragon/foodcart-backend/pkg/types"
	"github.com/google/uuid"
)

// Address is the canonical shape every caller sees, whatever the source
// record's naming scheme.
type Address struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Label        string    `json:"label"`
	Street       string    `json:"street"`
	Number       string    `json:"number"`
	Complement   *string   `json:"complement,omitempty"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Zipcode      string    `json:"zipcode"`
	IsDefault    bool      `json:"is_default"`
}

// Validate checks the fields an order needs to be delivered.
func (a Address) Validate() error {
	missing := []string{}
	if strings.TrimSpace(a.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(a.Zipcode) == "" {
		missing = append(missing, "zipcode")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

// Delivery freezes the address for an order.
func (a Address) Delivery() types.DeliveryAddress {
	return types.DeliveryAddress{
		Label:        a.Label,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		Zipcode:      a.Zipcode,
	}
}

// FromModel maps a stored row into the canonical shape.
func FromModel(m models.Address) Address {
	return Address{
		ID:           m.ID,
		UserID:       m.UserID,
		Label:        m.Label,
		Street:       m.Street,
		Number:       m.Number,
		Complement:   m.Complement,
		Neighborhood: m.Neighborhood,
		City:         m.City,
		State:        m.State,
		Zipcode:      m.ZipCode,
		IsDefault:    m.IsDefault,
	}
}

func toModel(a Address) models.Address {
	return models.Address{
		ID:           a.ID,
		UserID:       a.UserID,
		Label:        strings.TrimSpace(a.Label),
		Street:       strings.TrimSpace(a.Street),
		Number:       strings.TrimSpace(a.Number),
		Complement:   trimOptional(a.Complement),
		Neighborhood: strings.TrimSpace(a.Neighborhood),
		City:         strings.TrimSpace(a.City),
		State:        strings.ToUpper(strings.TrimSpace(a.State)),
		ZipCode:      strings.TrimSpace(a.Zipcode),
		IsDefault:    a.IsDefault,
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
