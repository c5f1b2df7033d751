package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xaenox/iforgot/internal/notes"
	"github.com/xaenox/iforgot/internal/transcribe"
)

const defaultMaxAudioBytes = 25 << 20 // Whisper's upload limit

// Config carries the per-deployment settings handlers need.
type Config struct {
	// DemoOwnerID stands in for a signed-in user on the simple-notes routes.
	DemoOwnerID   string
	MaxAudioBytes int64
}

// Server is the iForgot HTTP API
type Server struct {
	notes       *notes.Service
	transcriber transcribe.Transcriber
	cfg         Config
	logger      *zap.Logger
	router      *gin.Engine
}

// NewServer creates a new API server
func NewServer(svc *notes.Service, transcriber transcribe.Transcriber, cfg Config, logger *zap.Logger) *Server {
	if cfg.MaxAudioBytes <= 0 {
		cfg.MaxAudioBytes = defaultMaxAudioBytes
	}

	router := gin.New()
	s := &Server{
		notes:       svc,
		transcriber: transcriber,
		cfg:         cfg,
		logger:      logger,
		router:      router,
	}

	router.Use(s.requestLogger(), gin.Recovery())

	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/notes", s.handleListNotes)
		api.POST("/notes", s.handleCreateNote)
		api.PUT("/notes", s.handleUpdateNote)
		api.GET("/notes/:id", s.handleGetNote)
		api.PUT("/notes/:id", s.handleUpdateNote)
		api.DELETE("/notes/:id", s.handleDeleteNote)

		api.GET("/categories", s.handleListCategories)
		api.POST("/categories", s.handleCreateCategory)

		api.POST("/transcribe", s.handleTranscribe)
		api.GET("/templates", s.handleTemplates)

		api.GET("/simple-notes", s.handleListSimpleNotes)
		api.POST("/simple-notes", s.handleCreateSimpleNote)
	}

	return s
}

// Handler exposes the router for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on addr and blocks.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			s.logger.Error("Request failed", fields...)
		case status >= http.StatusBadRequest:
			s.logger.Warn("Request rejected", fields...)
		default:
			s.logger.Info("Request handled", fields...)
		}
	}
}
