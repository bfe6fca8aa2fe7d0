package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ties-together/marketplace-backend/internal/config"
	"github.com/ties-together/marketplace-backend/internal/http/middleware"
	"github.com/ties-together/marketplace-backend/internal/interface/http/handler"
	"github.com/ties-together/marketplace-backend/internal/metrics"
)

// Handlers все HTTP хэндлеры приложения.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Calendar     *handler.CalendarHandler
	Booking      *handler.BookingHandler
	Availability *handler.AvailabilityHandler
	JobOffer     *handler.JobOfferHandler
	Job          *handler.JobHandler
	Notification *handler.NotificationHandler
	Conversation *handler.ConversationHandler
	Payment      *handler.PaymentHandler
	WS           *handler.WSHandler
}

// Deps инфраструктура, нужная middleware.
type Deps struct {
	Tokens         middleware.TokenParser
	Metrics        *metrics.Metrics
	RateLimitStore limiter.Store
}

func SetupRouter(cfg *config.Config, h Handlers, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if !cfg.IsProduction() {
		r.Use(gin.Logger())
	}
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	if deps.Metrics != nil {
		r.GET(cfg.MetricsPath, gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/health", h.Health.Health)
	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	// Вебхук и проверка токена без bearer-авторизации, но с жёстким лимитом
	open := api.Group("/")
	open.Use(middleware.RateLimitMiddleware(deps.RateLimitStore, 30, cfg.RateLimitPeriod))
	{
		open.POST("/auth/verify", h.Auth.Verify)
		open.POST("/payments/webhook", h.Payment.Webhook)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))
	protected.Use(middleware.RateLimitMiddleware(deps.RateLimitStore, cfg.RateLimitLimit, cfg.RateLimitPeriod))

	cal := protected.Group("/calendar")
	{
		cal.GET("/blocks", h.Calendar.ListBlocks)
		cal.POST("/blocks", h.Calendar.CreateBlock)
		cal.GET("/blocks/:id", middleware.UUIDValidator("id"), h.Calendar.GetBlock)
		cal.PATCH("/blocks/:id", middleware.UUIDValidator("id"), h.Calendar.UpdateBlock)
		cal.DELETE("/blocks/:id", middleware.UUIDValidator("id"), h.Calendar.DeleteBlock)
		cal.GET("/availability/:userId", middleware.UUIDValidator("userId"), h.Calendar.Availability)
		cal.GET("/slots/:userId", middleware.UUIDValidator("userId"), h.Calendar.Slots)
		cal.GET("/upcoming", h.Calendar.Upcoming)
		cal.GET("/feed", h.Calendar.Feed)
	}

	bookings := protected.Group("/bookings")
	{
		bookings.POST("", h.Booking.Create)
		bookings.GET("", h.Booking.List)
		bookings.GET("/upcoming", h.Booking.Upcoming)
		bookings.GET("/stats", h.Booking.Stats)

		byID := bookings.Group("/:id", middleware.UUIDValidator("id"))
		byID.GET("", h.Booking.Get)
		byID.POST("/accept", h.Booking.Accept)
		byID.POST("/decline", h.Booking.Decline)
		byID.POST("/cancel", h.Booking.Cancel)
		byID.POST("/start", h.Booking.Start)
		byID.POST("/complete", h.Booking.Complete)
		byID.POST("/checkout", h.Booking.Checkout)
		byID.GET("/invoice", h.Booking.Invoice)
		byID.GET("/invoice/pdf", h.Booking.InvoicePDF)
	}

	requests := protected.Group("/availability-requests")
	{
		requests.POST("", h.Availability.Create)
		requests.GET("/pending", h.Availability.Pending)
		requests.GET("/sent", h.Availability.Sent)
		requests.GET("/all", h.Availability.All)
		requests.POST("/bulk-respond", h.Availability.BulkRespond)
		requests.POST("/:id/respond", middleware.UUIDValidator("id"), h.Availability.Respond)
	}

	offers := protected.Group("/job-offers")
	{
		offers.POST("", h.JobOffer.Send)
		offers.GET("/received", h.JobOffer.Received)
		offers.GET("/sent", h.JobOffer.Sent)
		offers.GET("/summary", h.JobOffer.Summary)

		byID := offers.Group("/:id", middleware.UUIDValidator("id"))
		byID.GET("", h.JobOffer.Get)
		byID.POST("/view", h.JobOffer.View)
		byID.POST("/accept", h.JobOffer.Accept)
		byID.POST("/reject", h.JobOffer.Reject)
		byID.POST("/withdraw", h.JobOffer.Withdraw)
		byID.POST("/counter", h.JobOffer.Counter)
		byID.POST("/convert", h.JobOffer.Convert)
	}

	jobs := protected.Group("/jobs")
	{
		jobs.POST("", h.Job.Create)
		jobs.GET("/mine", h.Job.Mine)
		jobs.GET("/applied", h.Job.Applied)
		jobs.POST("/:id/apply", middleware.UUIDValidator("id"), h.Job.Apply)
		jobs.POST("/:id/messages", middleware.UUIDValidator("id"), h.Conversation.SendAboutJob)
	}
	protected.POST("/job-applications/:id/select", middleware.UUIDValidator("id"), h.Job.Select)

	conversations := protected.Group("/conversations")
	{
		conversations.POST("", h.Conversation.Start)
		conversations.GET("", h.Conversation.List)

		byID := conversations.Group("/:id", middleware.UUIDValidator("id"))
		byID.GET("/messages", h.Conversation.Messages)
		byID.POST("/messages", h.Conversation.Send)
		byID.POST("/read", h.Conversation.MarkConversationRead)
	}

	messages := protected.Group("/messages")
	{
		messages.GET("/users", h.Conversation.SearchUsers)
		messages.GET("/search", h.Conversation.SearchMessages)
		messages.POST("/:id/read", middleware.UUIDValidator("id"), h.Conversation.MarkMessageRead)
		messages.DELETE("/:id", middleware.UUIDValidator("id"), h.Conversation.DeleteMessage)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.POST("/read", h.Notification.MarkRead)
		notifications.POST("/read-all", h.Notification.MarkAllRead)
	}

	return r
}
