package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uniform-studio/config"
	"uniform-studio/internal/handler"
	"uniform-studio/internal/middleware"
	"uniform-studio/internal/transport/httpdto"
	"uniform-studio/internal/websocket"
	"uniform-studio/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Chat    *handler.ChatHandler
	Design  *handler.DesignHandler
	Payment *handler.PaymentHandler
	Socket  *websocket.Handler
}

// HealthCheck is one named dependency checked by GET /health.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// SetupRoutes mounts the API. A nil limiter disables rate limiting.
func (s *Server) SetupRoutes(handlers *Handlers, auth middleware.TokenParser, limiter middleware.Limiter, checks ...HealthCheck) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		for _, hc := range checks {
			if err := hc.Check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(hc.Name+": "+err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	authLimit := passThrough
	messageLimit := passThrough
	if limiter != nil {
		authLimit = middleware.AuthRateLimitMiddleware(limiter)
		messageLimit = middleware.MessageRateLimitMiddleware(limiter)
	}
	requireAuth := middleware.AuthMiddleware(auth)

	v1 := s.engine.Group("/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authLimit, handlers.Auth.Register)
		authGroup.POST("/login", authLimit, handlers.Auth.Login)
		authGroup.GET("/me", requireAuth, handlers.Auth.Me)
	}

	// Signed by the gateway instead of a school token.
	v1.POST("/payments/callback", handlers.Payment.Callback)

	// Browsers can't send headers on upgrade; the handler reads ?token= itself.
	v1.GET("/rooms/:id/ws", handlers.Socket.Connect)

	api := v1.Group("", requireAuth)
	{
		api.GET("/wallet", handlers.Payment.Wallet)
		api.GET("/payments/orders/:id", handlers.Payment.Order)

		requests := api.Group("/requests")
		requests.GET("", handlers.Design.List)
		requests.GET("/:id", handlers.Design.Detail)
		requests.GET("/:id/deliveries", handlers.Design.Deliveries)
		requests.POST("/:id/deliveries/:deliveryId/final", handlers.Design.MakeFinal)
		requests.GET("/:id/revisions", handlers.Design.Revisions)
		requests.POST("/:id/revisions", handlers.Design.RequestRevision)
		requests.GET("/:id/revisions/quote", handlers.Design.QuoteRevisions)
		requests.POST("/:id/revisions/purchase", handlers.Design.BuyRevisions)
		requests.POST("/:id/cancel", handlers.Design.Cancel)
		requests.GET("/:id/quotations", handlers.Design.Quotations)
		requests.GET("/:id/quotations/:quotationId/quote", handlers.Design.QuoteSelection)
		requests.POST("/:id/quotations/:quotationId/select", handlers.Design.SelectQuotation)

		rooms := api.Group("/rooms")
		rooms.GET("/:id/messages", handlers.Chat.List)
		rooms.POST("/:id/messages", messageLimit, handlers.Chat.Send)
		rooms.POST("/:id/read", handlers.Chat.MarkRead)
		rooms.GET("/:id/unread", handlers.Chat.Unread)
		rooms.POST("/:id/uploads", handlers.Chat.CreateUpload)
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		s.logger.Errorf("Error in starting the server: %s", err)
		return err
	case <-quit:
	}

	s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
