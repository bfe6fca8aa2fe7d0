// Package app собирает сценарии и HTTP хэндлеры из репозиториев и инфраструктуры.
package app

import (
	"github.com/ties-together/marketplace-backend/internal/config"
	"github.com/ties-together/marketplace-backend/internal/domain/port"
	"github.com/ties-together/marketplace-backend/internal/domain/repository"
	"github.com/ties-together/marketplace-backend/internal/http/middleware"
	"github.com/ties-together/marketplace-backend/internal/http/router"
	"github.com/ties-together/marketplace-backend/internal/infrastructure/invoicepdf"
	"github.com/ties-together/marketplace-backend/internal/interface/http/handler"
	"github.com/ties-together/marketplace-backend/internal/metrics"
	"github.com/ties-together/marketplace-backend/internal/pkg/clock"
	"github.com/ties-together/marketplace-backend/internal/usecase/availability"
	"github.com/ties-together/marketplace-backend/internal/usecase/booking"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendar"
	"github.com/ties-together/marketplace-backend/internal/usecase/calendarfeed"
	"github.com/ties-together/marketplace-backend/internal/usecase/conversation"
	"github.com/ties-together/marketplace-backend/internal/usecase/effects"
	"github.com/ties-together/marketplace-backend/internal/usecase/invoice"
	"github.com/ties-together/marketplace-backend/internal/usecase/job"
	"github.com/ties-together/marketplace-backend/internal/usecase/joboffer"
	"github.com/ties-together/marketplace-backend/internal/usecase/notification"
	"github.com/ties-together/marketplace-backend/internal/ws"
)

// Repositories хранилища домена. В проде это sqlx адаптеры, в тестах memrepo.
type Repositories struct {
	Blocks        repository.CalendarBlockRepository
	Bookings      repository.BookingRepository
	Requests      repository.AvailabilityRequestRepository
	Offers        repository.JobOfferRepository
	Jobs          repository.JobRepository
	Notifications repository.NotificationRepository
	Invoices      repository.InvoiceRepository
	Profiles      repository.ProfileRepository
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Tx            repository.Transactor
}

// Infra внешние сервисы. Nil Mailer, Gateway, Cache или Hub отключают соответствующую функцию.
type Infra struct {
	Clock        clock.Clock
	Cache        calendarfeed.Cache
	Mailer       port.Mailer
	Gateway      port.PaymentGateway
	Hub          *ws.Hub
	Renderer     invoice.Renderer
	Metrics      *metrics.Metrics
	Tokens       middleware.TokenParser
	HealthChecks map[string]handler.Pinger
}

// App собранное приложение.
type App struct {
	Handlers router.Handlers
	// ExpireRequests запускается периодически из main.
	ExpireRequests *availability.ExpireRequestsUseCase
}

// Build связывает сценарии с хранилищами и создаёт хэндлеры.
func Build(cfg *config.Config, repos Repositories, infra Infra) *App {
	clk := infra.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	dom := cfg.Domain
	loc := dom.Calendar.Location()

	settings := calendar.Settings{
		Location:      loc,
		WorkStartHour: dom.Calendar.WorkingHoursStart,
		WorkEndHour:   dom.Calendar.WorkingHoursEnd,
		SlotMinutes:   dom.Calendar.SlotMinutes,
		UpcomingDays:  dom.Calendar.UpcomingDays,
		MaxRangeDays:  dom.Calendar.MaxRangeDays,
	}

	var pusher notification.Pusher
	if infra.Hub != nil {
		pusher = infra.Hub
	}
	notifyUC := notification.NewNotifyUseCase(repos.Notifications, pusher)

	fx := &effects.Effects{
		Notifier: notifyUC,
		Mailer:   infra.Mailer,
		Profiles: repos.Profiles,
	}
	if infra.Cache != nil {
		fx.Feed = calendarfeed.NewInvalidator(infra.Cache)
	}
	if infra.Metrics != nil {
		fx.Observer = infra.Metrics
	}

	invoiceDeps := invoice.Deps{
		Invoices:   repos.Invoices,
		Bookings:   repos.Bookings,
		Profiles:   repos.Profiles,
		Tx:         repos.Tx,
		Clock:      clk,
		FeePercent: dom.Fees.PlatformFeePercent,
		DueDays:    dom.Fees.InvoiceDueDays,
	}
	generateInvoice := invoice.NewGenerateUseCase(invoiceDeps)

	bookingDeps := booking.Deps{
		Bookings: repos.Bookings,
		Blocks:   repos.Blocks,
		Tx:       repos.Tx,
		Clock:    clk,
		Effects:  fx,
		Invoices: generateInvoice,
		Timezone: dom.Calendar.DefaultTimezone,
	}

	offerDeps := joboffer.Deps{
		Offers:            repos.Offers,
		Bookings:          repos.Bookings,
		Blocks:            repos.Blocks,
		Messages:          repos.Messages,
		Tx:                repos.Tx,
		Clock:             clk,
		Effects:           fx,
		DefaultExpiryDays: dom.Offers.DefaultExpiryDays,
		Location:          loc,
	}

	jobDeps := job.Deps{
		Jobs:     repos.Jobs,
		Bookings: repos.Bookings,
		Blocks:   repos.Blocks,
		Tx:       repos.Tx,
		Clock:    clk,
		Effects:  fx,
		Currency: dom.Fees.Currency,
		Timezone: dom.Calendar.DefaultTimezone,
	}

	conversationDeps := conversation.Deps{
		Conversations: repos.Conversations,
		Messages:      repos.Messages,
		Profiles:      repos.Profiles,
		Bookings:      repos.Bookings,
		Offers:        repos.Offers,
		Jobs:          repos.Jobs,
		Tx:            repos.Tx,
		Clock:         clk,
		Effects:       fx,
	}
	if infra.Hub != nil {
		conversationDeps.Pusher = infra.Hub
	}

	respondUC := availability.NewRespondUseCase(repos.Requests, clk, fx)

	renderer := infra.Renderer
	if renderer == nil {
		renderer = invoicepdf.Renderer{}
	}

	h := router.Handlers{
		Health: handler.NewHealthHandler(infra.HealthChecks),
		Auth:   handler.NewAuthHandler(infra.Tokens),
		Calendar: handler.NewCalendarHandler(handler.CalendarUseCases{
			Create:       calendar.NewCreateBlockUseCase(repos.Blocks, settings, fx),
			Update:       calendar.NewUpdateBlockUseCase(repos.Blocks, settings, fx),
			Delete:       calendar.NewDeleteBlockUseCase(repos.Blocks, fx),
			Get:          calendar.NewGetBlockUseCase(repos.Blocks),
			List:         calendar.NewListBlocksUseCase(repos.Blocks),
			Availability: calendar.NewCheckAvailabilityUseCase(repos.Blocks, settings),
			Slots:        calendar.NewAvailableSlotsUseCase(repos.Blocks, settings, clk),
			Upcoming:     calendar.NewUpcomingBlocksUseCase(repos.Blocks, settings, clk),
			Feed:         calendarfeed.NewFeedUseCase(repos.Bookings, repos.Blocks, repos.Jobs, infra.Cache, cfg.FeedCacheTTL),
		}, loc),
		Booking: handler.NewBookingHandler(handler.BookingUseCases{
			Create:     booking.NewCreateBookingUseCase(bookingDeps),
			Get:        booking.NewGetBookingUseCase(bookingDeps),
			List:       booking.NewListBookingsUseCase(bookingDeps),
			Upcoming:   booking.NewUpcomingBookingsUseCase(bookingDeps),
			Stats:      booking.NewBookingStatsUseCase(bookingDeps),
			Accept:     booking.NewAcceptBookingUseCase(bookingDeps),
			Decline:    booking.NewDeclineBookingUseCase(bookingDeps),
			Cancel:     booking.NewCancelBookingUseCase(bookingDeps),
			Start:      booking.NewStartBookingUseCase(bookingDeps),
			Complete:   booking.NewCompleteBookingUseCase(bookingDeps),
			Checkout:   booking.NewCreateCheckoutUseCase(bookingDeps, repos.Profiles, infra.Gateway, cfg.AppBaseURL),
			Invoice:    invoice.NewGetUseCase(invoiceDeps),
			InvoicePDF: invoice.NewRenderPDFUseCase(invoiceDeps, renderer, cfg.AppBaseURL),
		}),
		Availability: handler.NewAvailabilityHandler(handler.AvailabilityUseCases{
			Create:      availability.NewCreateRequestUseCase(repos.Requests, clk, dom.Requests.TTL.Duration, fx),
			Respond:     respondUC,
			BulkRespond: availability.NewBulkRespondUseCase(respondUC),
			List:        availability.NewListRequestsUseCase(repos.Requests, clk),
		}),
		JobOffer: handler.NewJobOfferHandler(handler.JobOfferUseCases{
			Send:     joboffer.NewSendOfferUseCase(offerDeps),
			View:     joboffer.NewMarkViewedUseCase(offerDeps),
			Accept:   joboffer.NewAcceptOfferUseCase(offerDeps),
			Reject:   joboffer.NewRejectOfferUseCase(offerDeps),
			Withdraw: joboffer.NewWithdrawOfferUseCase(offerDeps),
			Counter:  joboffer.NewCounterOfferUseCase(offerDeps),
			Convert:  joboffer.NewConvertToBookingUseCase(offerDeps),
			Get:      joboffer.NewGetOfferUseCase(offerDeps),
			List:     joboffer.NewListOffersUseCase(offerDeps),
			Summary:  joboffer.NewSummaryUseCase(offerDeps),
		}),
		Job: handler.NewJobHandler(handler.JobUseCases{
			Create: job.NewCreatePostingUseCase(jobDeps),
			Apply:  job.NewApplyUseCase(jobDeps),
			List:   job.NewListUseCase(jobDeps),
			Select: job.NewSelectApplicantUseCase(jobDeps),
		}),
		Notification: handler.NewNotificationHandler(
			notification.NewListNotificationsUseCase(repos.Notifications),
			notification.NewMarkReadUseCase(repos.Notifications),
		),
		Conversation: handler.NewConversationHandler(handler.ConversationUseCases{
			Start:    conversation.NewStartConversationUseCase(conversationDeps),
			Send:     conversation.NewSendMessageUseCase(conversationDeps),
			AboutJob: conversation.NewSendAboutJobUseCase(conversationDeps),
			List:     conversation.NewListConversationsUseCase(conversationDeps),
			Messages: conversation.NewListMessagesUseCase(conversationDeps),
			MarkRead: conversation.NewMarkReadUseCase(conversationDeps),
			Delete:   conversation.NewDeleteMessageUseCase(conversationDeps),
			Search:   conversation.NewSearchUseCase(conversationDeps),
		}),
		Payment: handler.NewPaymentHandler(
			booking.NewApplyPaymentUpdateUseCase(bookingDeps, repos.Invoices),
			cfg.PaymentWebhookSecret,
		),
	}
	if infra.Hub != nil {
		h.WS = handler.NewWSHandler(infra.Hub, infra.Tokens, cfg.AllowedOrigins)
	}

	return &App{
		Handlers:       h,
		ExpireRequests: availability.NewExpireRequestsUseCase(repos.Requests, clk),
	}
}
