package invoicepdf

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"github.com/ties-together/marketplace-backend/internal/domain/entity"
	"github.com/ties-together/marketplace-backend/internal/usecase/invoice"
)

const (
	qrSize    = 256
	qrImageMM = 35.0
)

// Renderer печатает счёт в PDF с QR-кодом ссылки на бронирование.
type Renderer struct {
	Brand string
}

var _ invoice.Renderer = Renderer{}

func (r Renderer) Render(doc invoice.Document) ([]byte, error) {
	inv := doc.Invoice
	brand := r.Brand
	if brand == "" {
		brand = "TIES Together"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(inv.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, brand)
	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Invoice "+inv.InvoiceNumber)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	line := func(label, value string) {
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}
	line("Status:", string(inv.Status))
	line("Issued:", inv.IssuedAt.Format("02 Jan 2006"))
	line("Due:", inv.DueAt.Format("02 Jan 2006"))
	if inv.PaidAt != nil {
		line("Paid:", inv.PaidAt.Format("02 Jan 2006"))
	}
	pdf.Ln(4)

	line("Client:", party(doc.Client))
	line("Talent:", party(doc.Talent))
	if doc.Booking != nil {
		line("Service:", doc.Booking.ServiceDescription)
		line("Dates:", fmt.Sprintf("%s - %s",
			doc.Booking.Range.Start.Format("02 Jan 2006 15:04"),
			doc.Booking.Range.End.Format("02 Jan 2006 15:04 MST")))
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(120, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Amount", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	row := func(label string, cents int64) {
		pdf.CellFormat(120, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, entity.FormatCents(cents, inv.Currency), "", 1, "R", false, 0, "")
	}
	row("Subtotal", inv.Subtotal)
	row("Tax", inv.TaxAmount)
	row("Platform fee (included)", inv.PlatformFee)
	row("Talent payout", inv.TalentPayout)
	pdf.SetFont("Arial", "B", 12)
	row("Total", inv.TotalAmount)

	if doc.BookingURL != "" {
		png, err := qrcode.Encode(doc.BookingURL, qrcode.Medium, qrSize)
		if err != nil {
			return nil, fmt.Errorf("invoicepdf: qr: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("booking-qr", opts, bytes.NewReader(png))
		pdf.ImageOptions("booking-qr", 160, 20, qrImageMM, qrImageMM, false, opts, 0, doc.BookingURL)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("invoicepdf: %w", err)
	}
	return buf.Bytes(), nil
}

func party(p *entity.Profile) string {
	if p == nil {
		return "-"
	}
	if p.Email == "" {
		return p.DisplayName
	}
	return p.DisplayName + " <" + p.Email + ">"
}
