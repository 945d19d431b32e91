package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/analysis"
	"github.com/phenorank/internal/domain"
	"github.com/phenorank/internal/middleware"
)

// Version is reported by the health endpoint.
var Version = "dev"

// Analyzer runs one prioritisation.
type Analyzer interface {
	Run(ctx context.Context, a *domain.Analysis, variants []*domain.VariantEvaluation) (*analysis.Results, error)
}

// PrioritiseRequest is the body of POST /api/v1/prioritise.
type PrioritiseRequest struct {
	Analysis domain.Analysis             `json:"analysis"`
	Variants []*domain.VariantEvaluation `json:"variants"`
}

// PrioritiseResponse wraps the results with the request id.
type PrioritiseResponse struct {
	RequestID   string            `json:"request_id"`
	PassedGenes int               `json:"passed_genes"`
	Results     *analysis.Results `json:"results"`
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	analyzer      Analyzer
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, analyzer Analyzer, logger *logrus.Logger) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())

	server := &Server{
		configManager: configManager,
		analyzer:      analyzer,
		logger:        logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/prioritise", s.handlePrioritise)
		v1.GET("/filters", s.handleFilterTypes)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"version":   Version,
	})
}

func (s *Server) handleFilterTypes(c *gin.Context) {
	variantFilters := make([]domain.FilterType, 0, len(domain.FilterTypes))
	geneFilters := make([]domain.FilterType, 0, len(domain.FilterTypes))
	for _, ft := range domain.FilterTypes {
		if ft.IsGeneFilter() {
			geneFilters = append(geneFilters, ft)
		} else {
			variantFilters = append(variantFilters, ft)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"variant_filters": variantFilters,
		"gene_filters":    geneFilters,
		"policies":        []domain.FilterPolicy{domain.NON_DESTRUCTIVE, domain.DESTRUCTIVE},
	})
}

func (s *Server) handlePrioritise(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	var req PrioritiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(domain.ErrInvalidInput, "Malformed request body", err.Error(), requestID))
		return
	}

	results, err := s.analyzer.Run(c.Request.Context(), &req.Analysis, req.Variants)
	if err != nil {
		_ = c.Error(err)
		apiErr := domain.APIErrorFrom(err, requestID)
		c.JSON(statusFor(apiErr), apiErr)
		return
	}

	c.JSON(http.StatusOK, PrioritiseResponse{
		RequestID:   requestID,
		PassedGenes: len(results.PassedGenes()),
		Results:     results,
	})
}

func statusFor(apiErr *domain.APIError) int {
	switch apiErr.Code {
	case domain.ErrInvalidInput:
		return http.StatusBadRequest
	case domain.ErrStoreError:
		return http.StatusServiceUnavailable
	case domain.ErrAnalysis:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
