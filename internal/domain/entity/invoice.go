package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/valueobject"
)

// Invoice счёт по завершённому бронированию. Суммы в центах.
type Invoice struct {
	ID            uuid.UUID
	BookingID     uuid.UUID
	InvoiceNumber string
	ClientID      uuid.UUID
	TalentID      uuid.UUID
	Subtotal      int64
	PlatformFee   int64
	TaxAmount     int64
	TotalAmount   int64
	TalentPayout  int64
	Currency      string
	Status        valueobject.InvoiceStatus
	IssuedAt      time.Time
	DueAt         time.Time
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewInvoice(b *Booking, number string, feePercent float64, dueDays int, now time.Time) *Invoice {
	subtotal := b.TotalAmount.Cents()
	fee := valueobject.PlatformFee(subtotal, feePercent)

	inv := &Invoice{
		ID:            uuid.New(),
		BookingID:     b.ID,
		InvoiceNumber: number,
		ClientID:      b.ClientID,
		TalentID:      b.TalentID,
		Subtotal:      subtotal,
		PlatformFee:   fee,
		TotalAmount:   subtotal,
		TalentPayout:  subtotal - fee,
		Currency:      b.TotalAmount.Currency,
		Status:        valueobject.InvoiceStatusPending,
		IssuedAt:      now,
		DueAt:         now.AddDate(0, 0, dueDays),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if b.IsPaid() {
		inv.MarkPaid(now)
	}
	return inv
}

func (i *Invoice) MarkPaid(now time.Time) {
	i.Status = valueobject.InvoiceStatusPaid
	i.PaidAt = &now
	i.UpdatedAt = now
}

func (i *Invoice) IsParty(userID uuid.UUID) bool {
	return i.ClientID == userID || i.TalentID == userID
}

// InvoiceNumber формат INV-YYYYMM-0001.
func InvoiceNumber(issued time.Time, seq int) string {
	return fmt.Sprintf("INV-%s-%04d", issued.Format("200601"), seq)
}

// FormatCents печатает сумму в центах как денежную строку.
func FormatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s %d.%02d", sign, currency, cents/100, cents%100)
}
