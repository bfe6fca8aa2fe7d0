package valueobject

import "github.com/ties-together/marketplace-backend/internal/pkg/apperror"

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusDeclined   BookingStatus = "declined"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusDeclined,
		BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

func (s BookingStatus) CanTransitionTo(newStatus BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPending:    {BookingStatusAccepted, BookingStatusDeclined, BookingStatusCancelled},
		BookingStatusAccepted:   {BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled},
		BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
		BookingStatusDeclined:   {},
		BookingStatusCompleted:  {},
		BookingStatusCancelled:  {},
	}

	return containsStatus(transitions[s], newStatus)
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusDeclined || s == BookingStatusCompleted || s == BookingStatusCancelled
}

// HoldsCalendar: в этих статусах за бронированием закреплён блок календаря.
func (s BookingStatus) HoldsCalendar() bool {
	return s == BookingStatusAccepted || s == BookingStatusInProgress
}

// NewBookingStatus принимает также старые имена requested и confirmed.
func NewBookingStatus(status string) (BookingStatus, error) {
	switch status {
	case "requested":
		return BookingStatusPending, nil
	case "confirmed":
		return BookingStatusAccepted, nil
	}
	s := BookingStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid booking status")
	}
	return s, nil
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

func NewPaymentStatus(status string) (PaymentStatus, error) {
	s := PaymentStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid payment status")
	}
	return s, nil
}

type BookingSource string

const (
	BookingSourceDirect       BookingSource = "direct"
	BookingSourceJobOffer     BookingSource = "job_offer"
	BookingSourceJobSelection BookingSource = "job_selection"
)

type AvailabilityRequestStatus string

const (
	AvailabilityRequestPending     AvailabilityRequestStatus = "pending"
	AvailabilityRequestAvailable   AvailabilityRequestStatus = "available"
	AvailabilityRequestUnavailable AvailabilityRequestStatus = "unavailable"
	AvailabilityRequestExpired     AvailabilityRequestStatus = "expired"
)

func (s AvailabilityRequestStatus) IsValid() bool {
	switch s {
	case AvailabilityRequestPending, AvailabilityRequestAvailable, AvailabilityRequestUnavailable, AvailabilityRequestExpired:
		return true
	}
	return false
}

// NewAvailabilityAnswer допускает только ответы таланта.
func NewAvailabilityAnswer(status string) (AvailabilityRequestStatus, error) {
	s := AvailabilityRequestStatus(status)
	if s != AvailabilityRequestAvailable && s != AvailabilityRequestUnavailable {
		return "", apperror.New(apperror.ErrCodeValidation, "status must be available or unavailable")
	}
	return s, nil
}

type JobOfferStatus string

const (
	JobOfferStatusPending   JobOfferStatus = "pending"
	JobOfferStatusViewed    JobOfferStatus = "viewed"
	JobOfferStatusAccepted  JobOfferStatus = "accepted"
	JobOfferStatusRejected  JobOfferStatus = "rejected"
	JobOfferStatusWithdrawn JobOfferStatus = "withdrawn"
	JobOfferStatusCountered JobOfferStatus = "countered"
	JobOfferStatusExpired   JobOfferStatus = "expired"
)

func (s JobOfferStatus) IsValid() bool {
	switch s {
	case JobOfferStatusPending, JobOfferStatusViewed, JobOfferStatusAccepted, JobOfferStatusRejected,
		JobOfferStatusWithdrawn, JobOfferStatusCountered, JobOfferStatusExpired:
		return true
	}
	return false
}

func (s JobOfferStatus) CanTransitionTo(newStatus JobOfferStatus) bool {
	open := []JobOfferStatus{JobOfferStatusAccepted, JobOfferStatusRejected, JobOfferStatusCountered, JobOfferStatusExpired}
	transitions := map[JobOfferStatus][]JobOfferStatus{
		JobOfferStatusPending: append([]JobOfferStatus{JobOfferStatusViewed, JobOfferStatusWithdrawn}, open...),
		JobOfferStatusViewed:  open,
	}

	return containsStatus(transitions[s], newStatus)
}

// IsOpen: на предложение ещё можно ответить.
func (s JobOfferStatus) IsOpen() bool {
	return s == JobOfferStatusPending || s == JobOfferStatusViewed
}

func NewJobOfferStatus(status string) (JobOfferStatus, error) {
	s := JobOfferStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid job offer status")
	}
	return s, nil
}

type JobPostingStatus string

const (
	JobPostingStatusOpen       JobPostingStatus = "open"
	JobPostingStatusInProgress JobPostingStatus = "in_progress"
	JobPostingStatusFilled     JobPostingStatus = "filled"
	JobPostingStatusCancelled  JobPostingStatus = "cancelled"
)

type JobApplicationStatus string

const (
	JobApplicationPending   JobApplicationStatus = "pending"
	JobApplicationSelected  JobApplicationStatus = "selected"
	JobApplicationRejected  JobApplicationStatus = "rejected"
	JobApplicationWithdrawn JobApplicationStatus = "withdrawn"
)

type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func containsStatus[S ~string](allowed []S, status S) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}
