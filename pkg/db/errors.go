package db

import (
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/foodcart-backend/pkg/errors"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// IsNotFound reports whether err is GORM's record-not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports a Postgres unique violation from either driver.
// A non-empty constraintName narrows the match to that constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	return hasPGCode(err, uniqueViolationCode, constraintName)
}

// IsForeignKeyViolation reports an insert that referenced a missing row.
func IsForeignKeyViolation(err error, constraintName string) bool {
	return hasPGCode(err, foreignKeyViolationCode, constraintName)
}

func hasPGCode(err error, code, constraintName string) bool {
	pg, ok := pkgerrors.Postgres(err)
	if !ok || pg.Code != code {
		return false
	}
	return constraintName == "" || pg.Constraint == constraintName
}
