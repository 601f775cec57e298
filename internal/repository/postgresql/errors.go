package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeInvalidTextForm     = "22P02" // e.g. a malformed uuid
	codeForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isBadReference is true when the id in the query cannot match any row: it is malformed or
// points at a missing parent.
func isBadReference(err error) bool {
	code := pgCode(err)
	return code == codeInvalidTextForm || code == codeForeignKeyViolation
}
