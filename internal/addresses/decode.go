package addresses

import (
	"encoding/json"
	"fmt"

	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/google/uuid"
)

// Scheme names the field-naming convention a raw address record uses.
type Scheme string

const (
	// SchemeRelational is the snake_case row shape (zip_code, is_default).
	SchemeRelational Scheme = "relational"
	// SchemeDocument is the camelCase document shape (zipCode, isDefault, _id).
	SchemeDocument Scheme = "document"
)

// Record is a decoded address plus where it came from. SourceID keeps the
// original identifier when it is not a uuid (document ids usually are not).
type Record struct {
	Scheme   Scheme
	SourceID string
	Address  Address
}

type relationalRecord struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	Label        string  `json:"label"`
	Street       string  `json:"street"`
	Number       string  `json:"number"`
	Complement   *string `json:"complement"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZipCode      string  `json:"zip_code"`
	IsDefault    bool    `json:"is_default"`
}

type documentRecord struct {
	ID           string  `json:"_id"`
	AltID        string  `json:"id"`
	UserID       string  `json:"userId"`
	Label        string  `json:"label"`
	Street       string  `json:"street"`
	Number       string  `json:"number"`
	Complement   *string `json:"complement"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZipCode      string  `json:"zipCode"`
	IsDefault    bool    `json:"isDefault"`
}

var documentMarkers = []string{"_id", "zipCode", "isDefault", "userId"}

// DetectScheme inspects the keys of a raw record. Records carrying no
// scheme-specific key are read as relational, where both shapes agree.
func DetectScheme(fields map[string]json.RawMessage) Scheme {
	for _, key := range documentMarkers {
		if _, ok := fields[key]; ok {
			return SchemeDocument
		}
	}
	return SchemeRelational
}

// DecodeRecord reads either naming scheme into the canonical Address.
func DecodeRecord(raw []byte) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Record{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "address must be a JSON object")
	}

	scheme := DetectScheme(fields)
	var (
		rec Record
		err error
	)
	switch scheme {
	case SchemeDocument:
		rec, err = decodeDocument(raw)
	default:
		rec, err = decodeRelational(raw)
	}
	if err != nil {
		return Record{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address payload")
	}
	rec.Scheme = scheme
	return rec, nil
}

func decodeRelational(raw []byte) (Record, error) {
	var r relationalRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, fmt.Errorf("relational address: %w", err)
	}
	return Record{
		SourceID: r.ID,
		Address: Address{
			ID:           parseUUID(r.ID),
			UserID:       parseUUID(r.UserID),
			Label:        r.Label,
			Street:       r.Street,
			Number:       r.Number,
			Complement:   r.Complement,
			Neighborhood: r.Neighborhood,
			City:         r.City,
			State:        r.State,
			Zipcode:      r.ZipCode,
			IsDefault:    r.IsDefault,
		},
	}, nil
}

func decodeDocument(raw []byte) (Record, error) {
	var d documentRecord
	if err := json.Unmarshal(raw, &d); err != nil {
		return Record{}, fmt.Errorf("document address: %w", err)
	}
	id := d.ID
	if id == "" {
		id = d.AltID
	}
	return Record{
		SourceID: id,
		Address: Address{
			ID:           parseUUID(id),
			UserID:       parseUUID(d.UserID),
			Label:        d.Label,
			Street:       d.Street,
			Number:       d.Number,
			Complement:   d.Complement,
			Neighborhood: d.Neighborhood,
			City:         d.City,
			State:        d.State,
			Zipcode:      d.ZipCode,
			IsDefault:    d.IsDefault,
		},
	}, nil
}

func parseUUID(v string) uuid.UUID {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil
	}
	return id
}
