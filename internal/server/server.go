package server

import (
	"context"
	"net/http"

	"github.com/leobar37/welllink-sub003/internal/auth"
	"github.com/leobar37/welllink-sub003/internal/availability"
	"github.com/leobar37/welllink-sub003/internal/config"
	"github.com/leobar37/welllink-sub003/internal/notify"
	"github.com/leobar37/welllink-sub003/internal/profile"
	"github.com/leobar37/welllink-sub003/internal/reservation"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	notify *notify.Service

	Availability availability.Service
	Reservations reservation.Service
}

func New(db *sqlx.DB, cfg *config.Config, notifyService *notify.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	profileRepo := profile.NewRepository(db)
	availabilityRepo := availability.NewRepository(db)
	reservationRepo := reservation.NewRepository(db)

	profileService := profile.NewService(profileRepo, cfg.JWTSecret)
	availabilityService := availability.NewService(availabilityRepo, profileRepo)
	reservationService := reservation.NewService(reservationRepo, availabilityRepo, profileRepo, notifyService, cfg.ReservationTTL)

	profileHandler := profile.NewHandler(profileService)
	availabilityHandler := availability.NewHandler(availabilityService, profileRepo)
	reservationHandler := reservation.NewHandler(reservationService, profileService)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", profileHandler.Register)
		authGroup.POST("/login", profileHandler.Login)
		authGroup.POST("/refresh", profileHandler.Refresh)
	}

	// public booking surface, rate limited per visitor IP
	publicLimit := RateLimitMiddleware(5, 10)
	public := router.Group("/p/:slug")
	public.Use(publicLimit)
	{
		public.GET("", profileHandler.GetPublicProfile)
		public.GET("/slots", availabilityHandler.PublicListSlots)
		public.POST("/reservations", reservationHandler.Submit)
	}
	router.GET("/reservations/ref/:reference", publicLimit, reservationHandler.GetByReference)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", profileHandler.GetMe)

		protected.POST("/services", profileHandler.CreateService)
		protected.GET("/services", profileHandler.ListServices)
		protected.DELETE("/services/:serviceID", profileHandler.DeactivateService)

		protected.POST("/availability/rules", availabilityHandler.CreateRule)
		protected.GET("/availability/rules", availabilityHandler.ListRules)
		protected.GET("/availability/rules/:ruleID", availabilityHandler.GetRule)
		protected.PUT("/availability/rules/:ruleID", availabilityHandler.UpdateRule)
		protected.DELETE("/availability/rules/:ruleID", availabilityHandler.DeactivateRule)

		protected.POST("/availability/generate", availabilityHandler.GenerateSlots)
		protected.POST("/availability/preview", availabilityHandler.PreviewSlots)
		protected.GET("/availability/slots", availabilityHandler.ListSlots)
		protected.POST("/availability/slots/:slotID/block", availabilityHandler.BlockSlot)
		protected.POST("/availability/slots/:slotID/unblock", availabilityHandler.UnblockSlot)

		protected.GET("/reservations", reservationHandler.List)
		protected.GET("/reservations/:id", reservationHandler.Get)
		protected.POST("/reservations/:id/approve", reservationHandler.Approve)
		protected.POST("/reservations/:id/reject", reservationHandler.Reject)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-notify", TestNotify(notifyService))
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		notify: notifyService,

		Availability: availabilityService,
		Reservations: reservationService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests before closing the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
