package valueobject

import "github.com/ties-together/marketplace-backend/internal/pkg/apperror"

type BlockReason string

const (
	BlockReasonBooking      BlockReason = "booking"
	BlockReasonHold         BlockReason = "hold"
	BlockReasonManual       BlockReason = "manual"
	BlockReasonUnavailable  BlockReason = "unavailable"
	BlockReasonAvailability BlockReason = "availability"
)

func (r BlockReason) IsValid() bool {
	switch r {
	case BlockReasonBooking, BlockReasonHold, BlockReasonManual, BlockReasonUnavailable, BlockReasonAvailability:
		return true
	}
	return false
}

// IsBlocking: все причины, кроме рабочего окна, занимают время жёстко
// и не могут пересекаться между собой.
func (r BlockReason) IsBlocking() bool {
	return r.IsValid() && r != BlockReasonAvailability
}

// DefaultTitle заголовок блока по умолчанию.
func (r BlockReason) DefaultTitle() string {
	switch r {
	case BlockReasonBooking:
		return "Booked"
	case BlockReasonHold:
		return "Pending Request"
	case BlockReasonUnavailable:
		return "Unavailable"
	case BlockReasonAvailability:
		return "Available"
	default:
		return "Blocked"
	}
}

func NewBlockReason(reason string) (BlockReason, error) {
	r := BlockReason(reason)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid block reason")
	}
	return r, nil
}

// BlockingReasons причины, участвующие в проверке пересечений.
func BlockingReasons() []BlockReason {
	return []BlockReason{BlockReasonBooking, BlockReasonHold, BlockReasonManual, BlockReasonUnavailable}
}

type RecurrencePattern string

const (
	RecurrenceDaily    RecurrencePattern = "daily"
	RecurrenceWeekly   RecurrencePattern = "weekly"
	RecurrenceBiweekly RecurrencePattern = "biweekly"
	RecurrenceMonthly  RecurrencePattern = "monthly"
)

func NewRecurrencePattern(pattern string) (RecurrencePattern, error) {
	p := RecurrencePattern(pattern)
	switch p {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return p, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "invalid recurrence pattern")
}
