// Package mcp exposes gene prioritisation as Model Context Protocol tools over
// stdio or streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/phenorank/internal/analysis"
	"github.com/phenorank/internal/domain"
)

// Transport types
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Analyzer runs one prioritisation.
type Analyzer interface {
	Run(ctx context.Context, a *domain.Analysis, variants []*domain.VariantEvaluation) (*analysis.Results, error)
}

// Server is the phenorank MCP server.
type Server struct {
	config   domain.MCPConfig
	analyzer Analyzer
	resolver domain.GeneResolver
	logger   *logrus.Logger
	mcp      *sdk.Server
}

// Option configures a Server.
type Option func(*Server)

// WithResolver registers the resolve_gene tool backed by resolver.
func WithResolver(resolver domain.GeneResolver) Option {
	return func(s *Server) { s.resolver = resolver }
}

// NewServer creates the MCP server and registers its tools.
func NewServer(config domain.MCPConfig, analyzer Analyzer, logger *logrus.Logger, opts ...Option) *Server {
	if config.ServerName == "" {
		config.ServerName = "phenorank"
	}
	if config.ServerVersion == "" {
		config.ServerVersion = "dev"
	}

	s := &Server{
		config:   config,
		analyzer: analyzer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = sdk.NewServer(&sdk.Implementation{
		Name:    config.ServerName,
		Version: config.ServerVersion,
	}, nil)
	s.mcp.AddReceivingMiddleware(s.loggingMiddleware)
	s.registerTools()

	return s
}

// Run serves one session over transport until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

// Start serves over the configured transport.
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"transport": s.config.TransportType,
		"name":      s.config.ServerName,
		"version":   s.config.ServerVersion,
	}).Info("Starting MCP server")

	switch s.config.TransportType {
	case "", TransportStdio:
		return s.Run(ctx, &sdk.StdioTransport{})
	case TransportHTTP:
		return s.serveHTTP(ctx)
	default:
		return fmt.Errorf("unsupported MCP transport: %s", s.config.TransportType)
	}
}

// HTTPHandler serves the MCP streamable HTTP protocol.
func (s *Server) HTTPHandler() http.Handler {
	return sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server { return s.mcp }, nil)
}

func (s *Server) serveHTTP(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.HTTPAddr,
		Handler:           s.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.config.HTTPAddr).Info("MCP HTTP transport listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("MCP HTTP transport failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) loggingMiddleware(next sdk.MethodHandler) sdk.MethodHandler {
	return func(ctx context.Context, method string, req sdk.Request) (sdk.Result, error) {
		start := time.Now()
		result, err := next(ctx, method, req)

		entry := s.logger.WithFields(logrus.Fields{
			"method":   method,
			"duration": time.Since(start),
		})
		if err != nil {
			entry.WithError(err).Warn("MCP request failed")
		} else {
			entry.Debug("MCP request handled")
		}
		return result, err
	}
}
