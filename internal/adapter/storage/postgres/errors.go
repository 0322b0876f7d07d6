package postgres

import (
	"errors"
	"fmt"

	"ecommerce-backend/internal/core/ports"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// translate maps constraint violations onto the storage sentinels and
// wraps everything else with op.
func translate(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, ports.ErrDuplicate, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation, pgerrcode.RestrictViolation:
			return fmt.Errorf("%s: %w (%s)", op, ports.ErrReferenced, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
