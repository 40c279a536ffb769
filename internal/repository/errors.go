package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/otcheredev/clinical-records-api/internal/apperr"
)

// classify maps gorm errors onto the apperr taxonomy. Missing rows become
// KindNotFound and unique violations KindConstraintConflict; anything else is
// wrapped with the operation description.
func classify(err error, op, conflictMsg string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.KindNotFound, "Not found.", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.KindConstraintConflict, conflictMsg, err)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
