package violations

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// see https://www.postgresql.org/docs/14/errcodes-appendix.html
	PgUniqueErrCode       = "23505"
	PgDuplicateDatabase   = "42P04"
	PgInvalidCatalogName  = "3D000"
	PgInsufficientPrivErr = "42501"
)

// IsUniqueConstraint checks if the error is a PostgreSQL unique constraint violation
func IsUniqueConstraint(err error) bool {
	return hasCode(err, PgUniqueErrCode)
}

// IsDuplicateDatabase checks if the error is a PostgreSQL duplicate
// database error, raised when CREATE DATABASE races another creator.
func IsDuplicateDatabase(err error) bool {
	return hasCode(err, PgDuplicateDatabase)
}

func hasCode(err error, code string) bool {
	var pgError *pgconn.PgError
	return errors.As(err, &pgError) && pgError.Code == code
}
