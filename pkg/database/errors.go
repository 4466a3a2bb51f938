package database

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/lib/pq"

	"github.com/gestor/backoffice/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr).WithCause(err)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Duplicate(uniqueField(pqErr)).WithCause(err)

	// Foreign key violation (23503)
	case "23503":
		return errors.NewWithKey("FOREIGN_KEY_VIOLATION", "errors.foreign_key", http.StatusBadRequest).WithCause(err)

	// Not null violation (23502)
	case "23502":
		return errors.Validation(map[string]string{
			columnOr(pqErr, "required field"): "must not be empty",
		}).WithCause(err)

	// Numeric value out of range (22003)
	case "22003":
		return errors.Validation(map[string]string{
			columnOr(pqErr, "value"): "is out of range",
		}).WithCause(err)

	// String data right truncation (22001)
	case "22001":
		return errors.Validation(map[string]string{
			columnOr(pqErr, "value"): "is too long",
		}).WithCause(err)

	default:
		return nil
	}
}

func columnOr(pqErr *pq.Error, fallback string) string {
	if pqErr.Column != "" {
		return pqErr.Column
	}
	return fallback
}

// MapError is MapPQError for call sites that return error: unmapped errors,
// including nil, come back unchanged.
func MapError(err error) error {
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.HasSuffix(constraint, "amount_positive"):
		return errors.Validation(map[string]string{
			"amount": "must be greater than 0",
		})

	case strings.HasSuffix(constraint, "type_valid"):
		return errors.Validation(map[string]string{
			"type": "is invalid",
		})

	case strings.HasSuffix(constraint, "single_origin"):
		return errors.Validation(map[string]string{
			"origin": "an entry can trace to at most one record",
		})

	case strings.HasSuffix(constraint, "odometer_positive"):
		return errors.Validation(map[string]string{
			"odometer": "must be greater than or equal to 0",
		})

	default:
		return errors.NewWithKey("CHECK_VIOLATION", "errors.check_violation", http.StatusBadRequest).
			WithDetails(map[string]string{"constraint": constraint})
	}
}

// uniqueField names the column behind a unique constraint violation.
func uniqueField(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "plate"):
		return "plate"
	case strings.Contains(constraint, "email"):
		return "email"
	case strings.Contains(constraint, "receipt_number"):
		return "receipt_number"
	case strings.Contains(constraint, "vehicle_cost_id"), strings.Contains(constraint, "employee_payment_id"):
		return "origin"
	default:
		return "value"
	}
}
