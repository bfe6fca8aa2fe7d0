package effects

import (
	"context"
	"maps"

	"github.com/google/uuid"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/goroutine"
)

// Effects побочные эффекты операций: уведомления, письма, сброс кэша ленты.
// Все вызовы best-effort и не влияют на результат операции. Нулевой *Effects ничего не делает.
type Effects struct {
	Notifier port.Notifier
	Mailer   port.Mailer
	Feed     port.FeedInvalidator
	Profiles repository.ProfileRepository
	Observer Observer
}

// Observer получает итог каждого побочного эффекта (например, для метрик).
type Observer interface {
	ObserveEffect(op string, err error)
}

func (e *Effects) run(ctx context.Context, op string, fn func(context.Context) error) <-chan goroutine.Result {
	return goroutine.BestEffort(ctx, op, func(ctx context.Context) error {
		err := fn(ctx)
		if e.Observer != nil {
			e.Observer.ObserveEffect(op, err)
		}
		return err
	})
}

func (e *Effects) Notify(ctx context.Context, n port.Notification) <-chan goroutine.Result {
	if e == nil || e.Notifier == nil {
		return done("notify")
	}
	return e.run(ctx, "notify:"+n.Type, func(ctx context.Context) error {
		return e.Notifier.Notify(ctx, n)
	})
}

// Email находит адрес пользователя и отправляет письмо по шаблону.
// data копируется: вызывающий может передать ту же карту в Notify.
func (e *Effects) Email(ctx context.Context, userID uuid.UUID, subject, template string, data map[string]any) <-chan goroutine.Result {
	if e == nil || e.Mailer == nil || e.Profiles == nil {
		return done("email")
	}
	return e.run(ctx, "email:"+template, func(ctx context.Context) error {
		profile, err := e.Profiles.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		payload := make(map[string]any, len(data)+1)
		maps.Copy(payload, data)
		payload["name"] = profile.DisplayName
		return e.Mailer.Send(ctx, port.EmailMessage{
			To:       profile.Email,
			Subject:  subject,
			Template: template,
			Data:     payload,
		})
	})
}

func (e *Effects) InvalidateFeed(ctx context.Context, userIDs ...uuid.UUID) <-chan goroutine.Result {
	if e == nil || e.Feed == nil {
		return done("invalidate_feed")
	}
	return e.run(ctx, "invalidate_feed", func(ctx context.Context) error {
		return e.Feed.InvalidateUsers(ctx, userIDs...)
	})
}

func done(op string) <-chan goroutine.Result {
	ch := make(chan goroutine.Result, 1)
	ch <- goroutine.Result{Op: op}
	return ch
}
