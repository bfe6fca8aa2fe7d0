package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/logger"
	"golang.org/x/time/rate"
)

// HTTPSender отправляет письма через JSON API почтового сервиса.
// Частота запросов ограничена, чтобы не упираться в лимиты провайдера.
type HTTPSender struct {
	url        string
	apiKey     string
	from       string
	limiter    *rate.Limiter
	httpClient *http.Client
}

func NewHTTPSender(url, apiKey, from string, perSecond float64) *HTTPSender {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &HTTPSender{
		url:     url,
		apiKey:  apiKey,
		from:    from,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sendRequest struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

func (s *HTTPSender) Send(ctx context.Context, msg port.EmailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("email: пустой адрес получателя")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email: ожидание лимита: %w", err)
	}

	body, err := json.Marshal(sendRequest{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		Template: msg.Template,
		Data:     msg.Data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return fmt.Errorf("email: код ответа %d: %v", resp.StatusCode, errorBody)
	}
	return nil
}

// LogSender пишет письма в лог. Используется, когда почтовый API не настроен.
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg port.EmailMessage) error {
	logger.L().WithFields(logrus.Fields{
		"to":       msg.To,
		"subject":  msg.Subject,
		"template": msg.Template,
	}).Info("email (log only)")
	return nil
}

// New выбирает отправителя по конфигурации.
func New(url, apiKey, from string, perSecond float64) port.Mailer {
	if url == "" {
		return LogSender{}
	}
	return NewHTTPSender(url, apiKey, from, perSecond)
}
