package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", detailsOK: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{name: "validation shows its own text", err: New(CodeValidation, "cart is empty"), want: "cart is empty"},
		{name: "dependency shows its own text", err: Wrap(CodeDependency, stdErrors.New("dial tcp"), "could not save your order, try again"), want: "could not save your order, try again"},
		{name: "internal hides its text", err: Wrap(CodeInternal, stdErrors.New("nil pointer"), "price items"), want: "internal server error"},
		{name: "empty message falls back", err: New(CodeNotFound, ""), want: "resource not found"},
		{name: "unknown code is internal", err: New("SOMETHING_UNKNOWN", "leak"), want: "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.PublicMessage(); got != tt.want {
				t.Fatalf("expected %q got %q", tt.want, got)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}

	formatted := Newf(CodeValidation, "minimum is %s", "50.00")
	if formatted.Message() != "minimum is 50.00" {
		t.Fatalf("unexpected formatted message %q", formatted.Message())
	}
}

func TestAsAndHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeForbidden, "no entry"))
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if !HasCode(err, CodeForbidden) {
		t.Fatalf("expected HasCode to find forbidden")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatalf("HasCode matched the wrong code")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpExtractsPostgresDiagnostics(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "orders_pkey",
		TableName:      "orders",
		Message:        "duplicate key value violates unique constraint",
	}
	err := Wrap(CodeDependency, pgErr, "insert order")

	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if dump.PG == nil || dump.PG.Code != "23505" || dump.PG.Table != "orders" || dump.PG.Constraint != "orders_pkey" {
		t.Fatalf("unexpected pg fields %+v", dump.PG)
	}
	if !dump.Retryable {
		t.Fatal("dependency failures are retryable")
	}
	if len(dump.Chain) != 2 || !strings.Contains(dump.Chain[0], "insert order") {
		t.Fatalf("unexpected chain %v", dump.Chain)
	}
}

func TestDumpFieldsOmitsEmptyPostgresData(t *testing.T) {
	fields := Dump(New(CodeValidation, "bad coupon")).Fields()
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("expected pg fields to be omitted, got %v", fields)
	}
	if fields["error_code"] != CodeValidation {
		t.Fatalf("unexpected error_code %v", fields["error_code"])
	}
}

func TestPostgresReadsLibPQErrors(t *testing.T) {
	err := fmt.Errorf("insert address: %w", &pq.Error{Code: "23505", Constraint: "addresses_one_default_per_user"})

	pg, ok := Postgres(err)
	if !ok {
		t.Fatal("expected lib/pq error to be recognised")
	}
	if pg.Code != "23505" || pg.Constraint != "addresses_one_default_per_user" {
		t.Fatalf("unexpected diagnostics %+v", pg)
	}
	if _, ok := Postgres(New(CodeValidation, "nope")); ok {
		t.Fatal("non-database errors carry no diagnostics")
	}
}
