package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

type CheckoutResult struct {
	SessionID string
	URL       string
	Booking   *entity.Booking
}

type CreateCheckoutUseCase struct {
	deps     Deps
	profiles repository.ProfileRepository
	gateway  port.PaymentGateway
	baseURL  string
}

func NewCreateCheckoutUseCase(deps Deps, profiles repository.ProfileRepository, gateway port.PaymentGateway, baseURL string) *CreateCheckoutUseCase {
	return &CreateCheckoutUseCase{deps: deps, profiles: profiles, gateway: gateway, baseURL: strings.TrimRight(baseURL, "/")}
}

// Execute открывает сессию оплаты у платёжного шлюза и возвращает адрес перенаправления.
func (uc *CreateCheckoutUseCase) Execute(ctx context.Context, bookingID, clientID uuid.UUID) (*CheckoutResult, error) {
	b, err := load(ctx, uc.deps, bookingID, clientID)
	if err != nil {
		return nil, err
	}
	if b.ClientID != clientID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only the client can pay for this booking")
	}
	if b.PaymentStatus != valueobject.PaymentStatusUnpaid {
		return nil, apperror.New(apperror.ErrCodeConflict, "booking payment is already in progress or settled")
	}
	if !b.Status.HoldsCalendar() && b.Status != valueobject.BookingStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "only confirmed bookings can be paid")
	}
	if uc.gateway == nil {
		return nil, apperror.New(apperror.ErrCodeUnavailable, "payments are not configured")
	}

	client, err := uc.profiles.FindByID(ctx, b.ClientID)
	if err != nil {
		return nil, err
	}
	talent, err := uc.profiles.FindByID(ctx, b.TalentID)
	if err != nil {
		return nil, err
	}

	link := uc.baseURL + *bookingLink(b.ID)
	session, err := uc.gateway.CreateCheckoutSession(ctx, port.CheckoutRequest{
		BookingID:   b.ID,
		AmountCents: b.TotalAmount.Cents(),
		Currency:    b.TotalAmount.Currency,
		PayerEmail:  client.Email,
		PayeeName:   talent.DisplayName,
		Description: b.ServiceDescription,
		SuccessURL:  link + "?payment=success",
		CancelURL:   link + "?payment=cancelled",
	})
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeUnavailable, "failed to start checkout")
	}

	// Статус мог измениться, пока шёл запрос к шлюзу: проверяем заново под блокировкой.
	err = uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = lockForUpdate(ctx, uc.deps, bookingID, clientID)
		if err != nil {
			return err
		}
		if err := b.StartCheckout(session.ID, uc.deps.now().Now()); err != nil {
			return err
		}
		return uc.deps.Bookings.UpdatePayment(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{SessionID: session.ID, URL: session.URL, Booking: b}, nil
}

type PaymentUpdate struct {
	SessionID string
	BookingID *uuid.UUID
	Status    string
}

type ApplyPaymentUpdateUseCase struct {
	deps     Deps
	invoices repository.InvoiceRepository
}

func NewApplyPaymentUpdateUseCase(deps Deps, invoices repository.InvoiceRepository) *ApplyPaymentUpdateUseCase {
	return &ApplyPaymentUpdateUseCase{deps: deps, invoices: invoices}
}

// Execute применяет статус оплаты из вебхука шлюза. Повтор того же статуса безвреден.
func (uc *ApplyPaymentUpdateUseCase) Execute(ctx context.Context, update PaymentUpdate) (*entity.Booking, error) {
	status, err := valueobject.NewPaymentStatus(update.Status)
	if err != nil {
		return nil, err
	}

	bookingID, err := uc.resolve(ctx, update)
	if err != nil {
		return nil, err
	}

	var b *entity.Booking
	now := uc.deps.now().Now()
	err = uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = uc.deps.Bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		b.SetPaymentStatus(status, now)
		if err := uc.deps.Bookings.UpdatePayment(ctx, b); err != nil {
			return err
		}
		if status != valueobject.PaymentStatusPaid || uc.invoices == nil {
			return nil
		}

		inv, err := uc.invoices.FindByBookingID(ctx, b.ID)
		if errors.Is(err, apperror.ErrInvoiceNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if inv.Status == valueobject.InvoiceStatusPaid {
			return nil
		}
		inv.MarkPaid(now)
		return uc.invoices.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	if status == valueobject.PaymentStatusPaid {
		for _, party := range []uuid.UUID{b.ClientID, b.TalentID} {
			uc.deps.Effects.Notify(ctx, port.Notification{
				UserID:  party,
				Type:    "payment_received",
				Title:   "Payment received",
				Message: "Payment for your booking was received",
				Data:    bookingData(b),
				Link:    bookingLink(b.ID),
			})
		}
	}
	uc.deps.Effects.InvalidateFeed(ctx, b.ClientID, b.TalentID)

	return b, nil
}

// resolve находит бронирование по id или по сессии шлюза.
func (uc *ApplyPaymentUpdateUseCase) resolve(ctx context.Context, update PaymentUpdate) (uuid.UUID, error) {
	switch {
	case update.BookingID != nil:
		return *update.BookingID, nil
	case update.SessionID != "":
		b, err := uc.deps.Bookings.FindByCheckoutSession(ctx, update.SessionID)
		if err != nil {
			return uuid.Nil, err
		}
		return b.ID, nil
	default:
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, "session id or booking id is required")
	}
}
