package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

// uniqueViolationConstraint returns the violated constraint name when err is
// a unique violation, or an empty string otherwise.
func uniqueViolationConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode {
		return pgErr.ConstraintName
	}

	return ""
}
