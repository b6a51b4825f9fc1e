// Package httpapi exposes scenario runs over HTTP. A run belongs to the
// session named by the X-Session-Key header; starting a run without one
// issues a new key in the response header.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"phoenix/internal/logger"
	"phoenix/internal/player"
	"phoenix/internal/runs"
	"phoenix/internal/scenario"
	"phoenix/internal/store"
)

const SessionHeader = "X-Session-Key"

// Catalog is the read side of the scenario store.
type Catalog interface {
	ListScenarios(ctx context.Context) ([]store.ScenarioSummary, error)
	GetScenario(ctx context.Context, code string) (*store.Scenario, error)
}

type Server struct {
	catalog Catalog
	runs    *runs.Manager
	metrics http.Handler
	logger  *zap.Logger
}

type Option func(*Server)

func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.logger = log }
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func NewServer(catalog Catalog, manager *runs.Manager, opts ...Option) *Server {
	s := &Server{catalog: catalog, runs: manager}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrNop(s.logger).Named("http")
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), ZapLogger(s.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	r.GET("/scenarios", s.listScenarios)
	r.GET("/scenarios/:code", s.getScenario)

	r.POST("/runs", s.startRun)
	run := r.Group("/run")
	{
		run.GET("", s.getRun)
		run.DELETE("", s.endRun)
		run.POST("/select", s.selectChoice)
		run.POST("/next", s.next)
		run.POST("/back", s.back)
		run.POST("/retry", s.retry)
	}

	r.GET("/progress", s.getProgress)
	r.DELETE("/progress", s.resetProgress)
	return r
}

type apiError struct {
	Message string `json:"message"`
}

func (s *Server) handleError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, runs.ErrNoRun),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, scenario.ErrUnavailable):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, player.ErrUnknownChoice):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, player.ErrNoSelection), errors.Is(err, player.ErrRunOver):
		status = http.StatusConflict
		message = err.Error()
	default:
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, apiError{Message: message})
}

func sessionKey(c *gin.Context) string {
	return c.GetHeader(SessionHeader)
}

func newSessionKey() string {
	return uuid.NewString()
}
