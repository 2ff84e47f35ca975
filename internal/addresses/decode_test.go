package addresses

import (
	"testing"

	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
	"github.com/google/uuid"
)

func TestDecodeRecordRelational(t *testing.T) {
	id := uuid.New()
	raw := []byte(`{"id":"` + id.String() + `","label":"Casa","street":"Rua A","number":"10","city":"Recife","state":"PE","zip_code":"50000-000","is_default":true}`)

	rec, err := DecodeRecord(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Scheme != SchemeRelational {
		t.Fatalf("expected relational scheme, got %s", rec.Scheme)
	}
	if rec.Address.ID != id || rec.Address.Zipcode != "50000-000" || !rec.Address.IsDefault {
		t.Fatalf("unexpected address %+v", rec.Address)
	}
}

func TestDecodeRecordDocument(t *testing.T) {
	raw := []byte(`{"_id":"65f1c0ffee0000000000abcd","label":"Trabalho","street":"Av B","city":"Recife","state":"PE","zipCode":"51000-000","isDefault":true,"complement":"sala 4"}`)

	rec, err := DecodeRecord(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Scheme != SchemeDocument {
		t.Fatalf("expected document scheme, got %s", rec.Scheme)
	}
	if rec.SourceID != "65f1c0ffee0000000000abcd" || rec.Address.ID != uuid.Nil {
		t.Fatalf("expected non-uuid source id to be kept aside, got %+v", rec)
	}
	if rec.Address.Zipcode != "51000-000" || !rec.Address.IsDefault || rec.Address.Complement == nil {
		t.Fatalf("unexpected address %+v", rec.Address)
	}
}

func TestDecodeRecordSharedFieldsOnly(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"street":"Rua C","city":"Natal","state":"RN"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Scheme != SchemeRelational || rec.Address.City != "Natal" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if err := rec.Address.Validate(); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected missing zipcode to fail validation, got %v", err)
	}
}

func TestDecodeRecordRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"street"`, `{bad`} {
		if _, err := DecodeRecord([]byte(raw)); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %s, got %v", raw, err)
		}
	}
}

func TestDecodeRecordWrongFieldType(t *testing.T) {
	if _, err := DecodeRecord([]byte(`{"zipCode":12345,"street":"x"}`)); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for numeric zip, got %v", err)
	}
}
