package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ties-together/marketplace-backend/internal/app"
	"github.com/ties-together/marketplace-backend/internal/config"
	"github.com/ties-together/marketplace-backend/internal/db"
	"github.com/ties-together/marketplace-backend/internal/goroutine"
	"github.com/ties-together/marketplace-backend/internal/http/middleware"
	httpRouter "github.com/ties-together/marketplace-backend/internal/http/router"
	"github.com/ties-together/marketplace-backend/internal/infrastructure/cache"
	"github.com/ties-together/marketplace-backend/internal/infrastructure/email"
	"github.com/ties-together/marketplace-backend/internal/infrastructure/invoicepdf"
	"github.com/ties-together/marketplace-backend/internal/infrastructure/payment"
	"github.com/ties-together/marketplace-backend/internal/infrastructure/persistence"
	"github.com/ties-together/marketplace-backend/internal/interface/http/handler"
	"github.com/ties-together/marketplace-backend/internal/logger"
	"github.com/ties-together/marketplace-backend/internal/metrics"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/service"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendarfeed"
	"github.com/ties-together/marketplace-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init(cfg.LogLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	appMetrics := metrics.New("ties")
	appMetrics.RegisterDB(dbConn.DB, "postgres")

	healthChecks := map[string]handler.Pinger{"database": dbConn}

	// Redis общий для кэша ленты и лимитера. Без него всё живёт в памяти процесса.
	var redisClient *redis.Client
	var feedCache calendarfeed.Cache
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("main: ошибка подключения к redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("main: ошибка закрытия redis: %v", err)
			}
		}()
		feedCache = cache.NewRedisCache(redisClient)
		healthChecks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		feedCache = cache.NewMemoryCache(ctx, time.Minute)
	}

	rateStore, err := middleware.NewRateLimitStore(redisClient)
	if err != nil {
		log.Fatalf("main: не удалось создать хранилище лимитера: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run(ctx)

	infra := app.Infra{
		Clock:        clock.Real{},
		Cache:        feedCache,
		Mailer:       email.New(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, cfg.EmailRatePerSec),
		Hub:          hub,
		Renderer:     invoicepdf.Renderer{Brand: "TIES Together"},
		Metrics:      appMetrics,
		Tokens:       tokenManager,
		HealthChecks: healthChecks,
	}
	if cfg.PaymentAPIURL != "" {
		infra.Gateway = payment.NewHTTPGateway(cfg.PaymentAPIURL, cfg.PaymentAPIKey)
	} else {
		logger.L().Warn("main: PAYMENT_API_URL не задан, оплата бронирований отключена")
	}

	repos := app.Repositories{
		Blocks:        persistence.NewCalendarBlockRepositoryAdapter(dbConn),
		Bookings:      persistence.NewBookingRepositoryAdapter(dbConn),
		Requests:      persistence.NewAvailabilityRequestRepositoryAdapter(dbConn),
		Offers:        persistence.NewJobOfferRepositoryAdapter(dbConn),
		Jobs:          persistence.NewJobRepositoryAdapter(dbConn),
		Notifications: persistence.NewNotificationRepositoryAdapter(dbConn),
		Invoices:      persistence.NewInvoiceRepositoryAdapter(dbConn),
		Profiles:      persistence.NewProfileRepositoryAdapter(dbConn),
		Conversations: persistence.NewConversationRepositoryAdapter(dbConn),
		Messages:      persistence.NewMessageRepositoryAdapter(dbConn),
		Tx:            persistence.NewTxManager(dbConn),
	}

	application := app.Build(cfg, repos, infra)

	// Просроченные запросы доступности переводим в expired.
	goroutine.Every(ctx, cfg.Domain.Requests.ExpirySweepInterval.Duration, func(ctx context.Context) {
		n, err := application.ExpireRequests.Execute(ctx)
		if err != nil {
			logger.L().WithError(err).Warn("main: не удалось закрыть просроченные запросы")
			return
		}
		if n > 0 {
			logger.L().WithFields(logrus.Fields{"expired": n}).Info("main: просроченные запросы закрыты")
		}
	})

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, application.Handlers, httpRouter.Deps{
		Tokens:         tokenManager,
		Metrics:        appMetrics,
		RateLimitStore: rateStore,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	logger.L().Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
