// Package httpapi exposes prediction, explanation and chat over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/logger"
)

// Ports holds the services the API calls. Nil services answer 503.
type Ports struct {
	Assessment  driving.AssessmentService
	Prediction  driving.PredictionService
	Explanation driving.ExplanationService
	History     driving.HistoryService
	Index       driving.IndexService

	// LLMModel and EmbeddingModel are reported by /health.
	LLMModel       string
	EmbeddingModel string
}

// Config holds HTTP server options.
type Config struct {
	Addr        string
	CORSOrigins []string
}

// Server is the HTTP API.
type Server struct {
	engine *gin.Engine
	ports  *Ports
	cfg    Config
}

// NewServer builds the router.
func NewServer(ports *Ports, cfg Config) *Server {
	if ports == nil {
		ports = &Ports{}
	}
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: gin.New(),
		ports:  ports,
		cfg:    cfg,
	}
	s.engine.Use(gin.Recovery(), RequestLogger(), CORS(cfg.CORSOrigins))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/", s.root)
	s.engine.GET("/health", s.health)
	s.engine.POST("/predict", s.predict)
	s.engine.POST("/predict/batch", s.predictBatch)
	s.engine.POST("/explain", s.explain)
	s.engine.POST("/chat", s.chat)
	s.engine.GET("/history", s.history)
}

// Handler returns the router for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP API listening on %s", s.cfg.Addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
