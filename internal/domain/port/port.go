package port

import (
	"context"

	"github.com/google/uuid"
)

// Notification уведомление пользователю (сохраняется и отправляется в WebSocket).
type Notification struct {
	UserID  uuid.UUID
	Type    string
	Title   string
	Message string
	Data    map[string]any
	Link    *string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type EmailMessage struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// FeedInvalidator сбрасывает кэш ленты календаря пользователей.
type FeedInvalidator interface {
	InvalidateUsers(ctx context.Context, userIDs ...uuid.UUID) error
}

type CheckoutRequest struct {
	BookingID   uuid.UUID
	AmountCents int64
	Currency    string
	PayerEmail  string
	PayeeName   string
	Description string
	SuccessURL  string
	CancelURL   string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
