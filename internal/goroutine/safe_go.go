package goroutine

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ties-together/marketplace-backend/internal/logger"
)

// DefaultTimeout ограничение на побочный эффект, отвязанный от запроса.
const DefaultTimeout = 30 * time.Second

// Result итог фоновой операции.
type Result struct {
	Op  string
	Err error
}

// SafeGo запускает горутину с обработкой panic
func SafeGo(fn func()) {
	go func() {
		defer recoverPanic("goroutine")
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer recoverPanic("goroutine (with context)")
		fn(ctx)
	}()
}

// BestEffort выполняет побочный эффект (письмо, уведомление, счёт) в фоне.
// Контекст отвязан от запроса: отмена запроса не прерывает операцию.
// Ошибки только логируются. Канал буферизован, результат можно не читать.
func BestEffort(ctx context.Context, op string, fn func(context.Context) error) <-chan Result {
	out := make(chan Result, 1)
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTimeout)

	go func() {
		defer cancel()
		res := Result{Op: op}
		defer func() {
			if r := recover(); r != nil {
				res.Err = fmt.Errorf("panic: %v", r)
				logger.L().WithFields(logrus.Fields{
					"op":    op,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("best-effort operation panicked")
			}
			out <- res
		}()

		if err := fn(detached); err != nil {
			res.Err = err
			logger.L().WithFields(logrus.Fields{
				"op":    op,
				"error": err.Error(),
			}).Warn("best-effort operation failed")
		}
	}()

	return out
}

// Every запускает fn с периодом interval до отмены ctx.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	})
}

func recoverPanic(where string) {
	if r := recover(); r != nil {
		logger.L().Errorf("Panic in %s: %v\nStack trace:\n%s", where, r, debug.Stack())
	}
}
