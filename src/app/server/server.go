// Package server provides HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"qnadonate/src/app/http/handler"
	"qnadonate/src/app/http/response"
	"qnadonate/src/app/middleware"
	"qnadonate/src/core/ports"
	"qnadonate/src/core/usecase"
	"qnadonate/src/infra/config"
	"qnadonate/src/infra/identity"
	"qnadonate/src/infra/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	cfg    *config.Config
	log    *slog.Logger
	router *gin.Engine
	http   *http.Server

	// Handlers
	healthHandler   *handler.HealthHandler
	questionHandler *handler.QuestionHandler
	answerHandler   *handler.AnswerHandler
	donationHandler *handler.DonationHandler
}

// New creates a new Server with all dependencies wired up. The caller
// identity comes from the X-User-Id header via middleware.Caller.
func New(cfg *config.Config, log *slog.Logger, store ports.QAStore, clock ports.Clock) *Server {
	// Set Gin mode based on log level
	if cfg.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router without default middleware
	router := gin.New()

	callers := identity.ContextProvider{}
	serviceLog := logger.WithComponent(log, "usecase")

	// Create services
	healthService := usecase.NewHealthService(store, log)
	questionService := usecase.NewQuestionService(store, callers, clock, serviceLog)
	answerService := usecase.NewAnswerService(store, callers, clock, serviceLog)
	donationService := usecase.NewDonationService(store, callers, clock, serviceLog)

	s := &Server{
		cfg:             cfg,
		log:             log,
		router:          router,
		healthHandler:   handler.NewHealthHandler(healthService),
		questionHandler: handler.NewQuestionHandler(questionService),
		answerHandler:   handler.NewAnswerHandler(answerService),
		donationHandler: handler.NewDonationHandler(donationService),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupHTTPServer()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	// Order matters: Recovery should be first to catch all panics
	s.router.Use(middleware.Recovery(s.log))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.Logging(logger.WithComponent(s.log, "http")))
	s.router.Use(middleware.Caller())
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check endpoints (no caller required)
	s.router.GET("/health", s.healthHandler.Health)
	s.router.GET("/health/detailed", s.healthHandler.DetailedHealth)

	v1 := s.router.Group("/v1")
	{
		// Questions
		v1.POST("/questions", s.questionHandler.Create)
		v1.GET("/questions", s.questionHandler.List)
		v1.GET("/questions/:question_id", s.questionHandler.Get)
		v1.GET("/questions/:question_id/answers", s.questionHandler.Answers)

		// Answers
		v1.POST("/answers", s.answerHandler.Create)
		v1.GET("/answers/:answer_id", s.answerHandler.Get)
		v1.GET("/answers/:answer_id/donations", s.answerHandler.Donations)

		// Donations
		v1.POST("/donations", s.donationHandler.Donate)
	}

	s.router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "The requested resource was not found", middleware.GetRequestID(c))
	})
}

// setupHTTPServer configures the underlying HTTP server.
func (s *Server) setupHTTPServer() {
	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// process receives SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting HTTP server",
			"addr", s.cfg.Server.Addr(),
		)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown requested", "cause", context.Cause(ctx))
	case err := <-errCh:
		return err
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.log.Info("shutting down server", "timeout", s.cfg.Server.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("server stopped gracefully")
	return nil
}

// Router returns the Gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// WaitForReady polls /health until it answers 200 or timeout elapses.
func (s *Server) WaitForReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://%s/health", s.cfg.Server.Addr()))
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("server not ready after %v", timeout)
}

