package ingestion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Signature    SignatureConfig
}

// Server serves the provider webhooks.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	logger     *zap.Logger
}

// NewServer builds the gin engine: request context, logging and recovery for every route,
// and the signature gate in front of the webhook group.
func NewServer(cfg ServerConfig, router *Router, baseLogger *zap.Logger) *Server {
	engine := gin.New()
	engine.Use(RequestContext(baseLogger), RequestLogger(), Recovery())

	webhooks := NewWebhookHandler(router)
	voice := engine.Group("/webhooks/voice", SignatureGate(cfg.Signature))
	voice.POST("", webhooks.HandleVoice)
	voice.POST("/assistant-request", webhooks.HandleAssistantRequest)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		engine: engine,
		logger: baseLogger.Named("webhook_server"),
	}
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving in the background
func (s *Server) Start() {
	go func() {
		s.logger.Info("Starting webhook server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Webhook server error", zap.Error(err))
		}
	}()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping webhook server")
	return s.httpServer.Shutdown(ctx)
}
