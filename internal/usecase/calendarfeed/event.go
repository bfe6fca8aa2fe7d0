package calendarfeed

import (
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
)

// Kind тип события ленты.
type Kind string

const (
	KindBooking    Kind = "booking"
	KindBlock      Kind = "block"
	KindJob        Kind = "job"
	KindAppliedJob Kind = "applied_job"
)

// Filter ограничивает ленту группой источников.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterBookings Filter = "bookings"
	FilterJobs     Filter = "jobs"
	FilterBlocks   Filter = "blocks"
)

func ParseFilter(s string) (Filter, bool) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, true
	case FilterAll, FilterBookings, FilterJobs, FilterBlocks:
		return f, true
	}
	return "", false
}

func (f Filter) includes(k Kind) bool {
	switch f {
	case FilterBookings:
		return k == KindBooking
	case FilterJobs:
		return k == KindJob || k == KindAppliedJob
	case FilterBlocks:
		return k == KindBlock
	}
	return true
}

// Event одно событие ленты. Kind определяет, какое из полей Booking, Block, Job, Applied заполнено.
type Event struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Status   string    `json:"status"`
	Label    string    `json:"label"`
	Color    string    `json:"color"`
	Location *string   `json:"location,omitempty"`

	Booking *BookingEvent    `json:"booking,omitempty"`
	Block   *BlockEvent      `json:"block,omitempty"`
	Job     *JobEvent        `json:"job,omitempty"`
	Applied *AppliedJobEvent `json:"applied,omitempty"`
}

type BookingEvent struct {
	BookingID      uuid.UUID                 `json:"booking_id"`
	Role           string                    `json:"role"`
	OtherPartyID   uuid.UUID                 `json:"other_party_id"`
	OtherPartyName *string                   `json:"other_party_name,omitempty"`
	Amount         valueobject.Money         `json:"amount"`
	PaymentStatus  valueobject.PaymentStatus `json:"payment_status"`
}

type BlockEvent struct {
	BlockID           uuid.UUID               `json:"block_id"`
	Reason            valueobject.BlockReason `json:"reason"`
	Notes             *string                 `json:"notes,omitempty"`
	VisibilityMessage *string                 `json:"visibility_message,omitempty"`
}

type JobEvent struct {
	JobID  uuid.UUID `json:"job_id"`
	Budget *float64  `json:"budget,omitempty"`
}

type AppliedJobEvent struct {
	ApplicationID     uuid.UUID `json:"application_id"`
	JobID             uuid.UUID `json:"job_id"`
	ApplicationStatus string    `json:"application_status"`
	ProposedRate      *float64  `json:"proposed_rate,omitempty"`
}

func (e Event) searchable() []string {
	fields := []string{e.Title}
	if e.Location != nil {
		fields = append(fields, *e.Location)
	}
	if e.Booking != nil && e.Booking.OtherPartyName != nil {
		fields = append(fields, *e.Booking.OtherPartyName)
	}
	return fields
}
