package persistence

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
	pgForeignKey         = "23503"
)

// mapError переводит ошибку драйвера в AppError.
// notFound возвращается для sql.ErrNoRows, overlap для нарушения ограничения исключения.
func mapError(err error, notFound, overlap *apperror.AppError, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgExclusionViolation:
			if overlap != nil {
				return apperror.WithCause(overlap, err)
			}
			return apperror.Wrap(err, apperror.ErrCodeConflict, msg)
		case pgUniqueViolation:
			return apperror.Wrap(err, apperror.ErrCodeConflict, uniqueMessage(pqErr, msg))
		case pgForeignKey:
			return apperror.Wrap(err, apperror.ErrCodeValidation, "referenced record does not exist")
		}
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, msg)
}

func uniqueMessage(e *pq.Error, fallback string) string {
	switch e.Constraint {
	case "bookings_source_unique":
		return apperror.ErrAlreadyConverted.Message
	case "job_applications_job_applicant_unique":
		return apperror.ErrAlreadyApplied.Message
	case "availability_requests_pending_unique":
		return apperror.ErrDuplicateRequest.Message
	case "conversations_pair_unique":
		return "conversation already exists"
	case "invoices_booking_id_key":
		return "invoice already exists for this booking"
	}
	return fallback
}
