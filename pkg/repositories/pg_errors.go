package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/buildyoursite/buildyoursite-engine/pkg/apperrors"
)

// PostgreSQL error codes the repositories translate into apperrors sentinels.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// translateWriteError maps constraint violations on insert to sentinel errors.
// A dangling project or generation reference becomes ErrNotFound; a duplicate key
// becomes ErrConflict. Anything else is wrapped with the operation name.
func translateWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, apperrors.ErrNotFound)
		case pgUniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, apperrors.ErrConflict)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
