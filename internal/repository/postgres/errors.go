// internal/repository/postgres/errors.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"xr-wallet/internal/util"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
	pqNumericOverflow = "22003"
)

// classify maps a database error onto the service error taxonomy.
// Unique violations become util.ErrConflict, the balance CHECK constraint becomes
// util.ErrInsufficientFunds, a value too wide for NUMERIC(30, 8) is
// util.ErrInvalidInput and every other failure is util.ErrStorageUnavailable.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", op, util.ErrConflict)
		case pqCheckViolation:
			return fmt.Errorf("%s: %w", op, util.ErrInsufficientFunds)
		case pqNumericOverflow:
			return fmt.Errorf("%s: value out of range: %w", op, util.ErrInvalidInput)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, util.ErrStorageUnavailable, err)
}
