package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
)

type Deps struct {
	Invoices   repository.InvoiceRepository
	Bookings   repository.BookingRepository
	Profiles   repository.ProfileRepository
	Tx         repository.Transactor
	Clock      clock.Clock
	FeePercent float64
	DueDays    int
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now().UTC()
	}
	return d.Clock.Now()
}

type GenerateUseCase struct {
	deps Deps
}

func NewGenerateUseCase(deps Deps) *GenerateUseCase {
	return &GenerateUseCase{deps: deps}
}

// GenerateForBooking выставляет счёт по завершённому бронированию.
// Повторный вызов возвращает уже выставленный счёт.
func (uc *GenerateUseCase) GenerateForBooking(ctx context.Context, bookingID uuid.UUID) (*entity.Invoice, error) {
	var inv *entity.Invoice
	err := uc.deps.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := uc.deps.Invoices.FindByBookingID(ctx, bookingID)
		if err == nil {
			inv = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		b, err := uc.deps.Bookings.FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != valueobject.BookingStatusCompleted {
			return apperror.New(apperror.ErrCodeBadRequest, "invoices are issued for completed bookings only")
		}

		now := uc.deps.now()
		seq, err := uc.deps.Invoices.NextSequence(ctx, now)
		if err != nil {
			return err
		}
		inv = entity.NewInvoice(b, entity.InvoiceNumber(now, seq), uc.deps.FeePercent, uc.deps.DueDays, now)
		if err := uc.deps.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		return uc.deps.Bookings.AttachInvoice(ctx, b.ID, inv.ID, now)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

type GetUseCase struct {
	deps Deps
}

func NewGetUseCase(deps Deps) *GetUseCase {
	return &GetUseCase{deps: deps}
}

func (uc *GetUseCase) Execute(ctx context.Context, bookingID, viewerID uuid.UUID) (*entity.Invoice, error) {
	inv, err := uc.deps.Invoices.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !inv.IsParty(viewerID) {
		return nil, apperror.ErrForbidden
	}
	return inv, nil
}

// Document всё, что нужно для печатной формы счёта.
type Document struct {
	Invoice    *entity.Invoice
	Booking    *entity.Booking
	Client     *entity.Profile
	Talent     *entity.Profile
	BookingURL string
}

// Renderer строит печатную форму счёта.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

type RenderPDFUseCase struct {
	get      *GetUseCase
	deps     Deps
	renderer Renderer
	baseURL  string
}

func NewRenderPDFUseCase(deps Deps, renderer Renderer, baseURL string) *RenderPDFUseCase {
	return &RenderPDFUseCase{get: NewGetUseCase(deps), deps: deps, renderer: renderer, baseURL: baseURL}
}

// Execute возвращает PDF и имя файла.
func (uc *RenderPDFUseCase) Execute(ctx context.Context, bookingID, viewerID uuid.UUID) ([]byte, string, error) {
	inv, err := uc.get.Execute(ctx, bookingID, viewerID)
	if err != nil {
		return nil, "", err
	}
	b, err := uc.deps.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}

	doc := Document{Invoice: inv, Booking: b, BookingURL: uc.baseURL + "/bookings/" + b.ID.String()}
	doc.Client = uc.profile(ctx, b.ClientID)
	doc.Talent = uc.profile(ctx, b.TalentID)

	pdf, err := uc.renderer.Render(doc)
	if err != nil {
		return nil, "", apperror.Wrap(err, apperror.ErrCodeInternal, "failed to render invoice")
	}
	return pdf, inv.InvoiceNumber + ".pdf", nil
}

// profile возвращает заглушку, если профиль не найден: счёт всё равно печатается.
func (uc *RenderPDFUseCase) profile(ctx context.Context, id uuid.UUID) *entity.Profile {
	if uc.deps.Profiles != nil {
		if p, err := uc.deps.Profiles.FindByID(ctx, id); err == nil {
			return p
		}
	}
	return &entity.Profile{ID: id, DisplayName: id.String()[:8]}
}
