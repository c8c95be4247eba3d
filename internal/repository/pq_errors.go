package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate marks an insert that violated a unique key. Services translate
// it into a Conflict for the caller.
var ErrDuplicate = errors.New("duplicate key")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
