package database

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key
// violation (a referenced row does not exist, or a referencing row blocks a
// delete).
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeForeignKeyViolation
}
