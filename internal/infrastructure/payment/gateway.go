package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ties-together/marketplace-backend/internal/domain/port"
)

// ErrNotConfigured возвращается, если платёжный API не задан.
var ErrNotConfigured = errors.New("payment: провайдер не настроен")

// HTTPGateway создаёт сессии оплаты у внешнего провайдера.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

type checkoutPayload struct {
	BookingID   string `json:"booking_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	PayerEmail  string `json:"payer_email"`
	PayeeName   string `json:"payee_name"`
	Description string `json:"description"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
}

type checkoutResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func (g *HTTPGateway) CreateCheckoutSession(ctx context.Context, req port.CheckoutRequest) (*port.CheckoutSession, error) {
	if g.baseURL == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(checkoutPayload{
		BookingID:   req.BookingID.String(),
		Amount:      req.AmountCents,
		Currency:    strings.ToLower(req.Currency),
		PayerEmail:  req.PayerEmail,
		PayeeName:   req.PayeeName,
		Description: req.Description,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	// Повтор с тем же ключом не создаёт вторую сессию.
	httpReq.Header.Set("Idempotency-Key", "checkout-"+req.BookingID.String())

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("payment: код ответа %d: %v", resp.StatusCode, errorBody)
	}

	var out checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("payment: некорректный ответ: %w", err)
	}
	id := out.SessionID
	if id == "" {
		id = out.ID
	}
	if id == "" || out.URL == "" {
		return nil, fmt.Errorf("payment: в ответе нет id сессии или url")
	}
	return &port.CheckoutSession{ID: id, URL: out.URL}, nil
}
