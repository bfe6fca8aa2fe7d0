package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

func TestMapError_NoRows(t *testing.T) {
	err := mapError(fmt.Errorf("scan: %w", sql.ErrNoRows), apperror.ErrBookingNotFound, nil, "x")
	assert.ErrorIs(t, err, apperror.ErrBookingNotFound)
}

func TestMapError_ExclusionViolation(t *testing.T) {
	pqErr := &pq.Error{Code: pgExclusionViolation, Constraint: "calendar_blocks_no_overlap"}

	err := mapError(pqErr, nil, apperror.ErrDatesNotAvailable, "x")

	assert.ErrorIs(t, err, apperror.ErrDatesNotAvailable)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "not available")
}

func TestMapError_UniqueViolationOnSource(t *testing.T) {
	pqErr := &pq.Error{Code: pgUniqueViolation, Constraint: "bookings_source_unique"}

	err := mapError(pqErr, nil, nil, "x")

	assert.True(t, apperror.IsConflict(err))
	assert.ErrorIs(t, err, apperror.ErrAlreadyConverted)
}

func TestMapError_UniqueViolationOnPendingRequest(t *testing.T) {
	pqErr := &pq.Error{Code: pgUniqueViolation, Constraint: "availability_requests_pending_unique"}

	err := mapError(pqErr, nil, nil, "failed to create availability request")

	assert.True(t, apperror.IsConflict(err))
	assert.ErrorIs(t, err, apperror.ErrDuplicateRequest)
}

func TestMapError_Other(t *testing.T) {
	err := mapError(errors.New("connection reset"), nil, nil, "failed to load")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeDatabaseError, appErr.Code)
	assert.Equal(t, "failed to load", appErr.Message)
}
