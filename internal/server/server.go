// Package server assembles the HTTP router and owns the listener.
//
// The route table and the providers are mounted exactly once, when the
// handler is first built. After that the router is only read.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-ehms-backend/internal/api"
	"github.com/sirosfoundation/go-ehms-backend/internal/auth"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
	"github.com/sirosfoundation/go-ehms-backend/pkg/middleware"
)

var (
	ErrAlreadyStarted = errors.New("server already started")
	ErrNotStarted     = errors.New("server not started")
)

// RouteProvider contributes routes outside the authenticated route table
// (root, status, realtime).
type RouteProvider interface {
	// RegisterRoutes adds this provider's routes to the router
	RegisterRoutes(router *gin.Engine)

	// Name returns the provider name for logging
	Name() string
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	HTTPAddress string
	HTTPPort    int

	// BasePath prefixes every route in the route table
	BasePath     string
	MaxBodyBytes int64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	CORS         config.CORSConfig
	LoggingLevel string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		HTTPAddress:  "0.0.0.0",
		HTTPPort:     8080,
		BasePath:     "/ehms/api",
		MaxBodyBytes: 10 << 20,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// ServerConfigFrom maps the application config onto a ServerConfig
func ServerConfigFrom(cfg *config.Config) *ServerConfig {
	return &ServerConfig{
		HTTPAddress:  cfg.Server.Host,
		HTTPPort:     cfg.Server.Port,
		BasePath:     cfg.Server.BasePath,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		ReadTimeout:  config.Seconds(cfg.Server.ReadTimeout),
		WriteTimeout: config.Seconds(cfg.Server.WriteTimeout),
		IdleTimeout:  config.Seconds(cfg.Server.IdleTimeout),
		CORS:         cfg.CORS,
		LoggingLevel: cfg.Logging.Level,
	}
}

// Manager builds the router from a route table and serves it
type Manager struct {
	cfg      *ServerConfig
	logger   *zap.Logger
	verifier *auth.Verifier
	table    api.RouteTable

	providers []RouteProvider

	buildOnce sync.Once
	router    *gin.Engine
	buildErr  error

	mu         sync.Mutex
	started    bool
	listener   net.Listener
	httpServer *http.Server
}

// NewManager creates a new server manager
func NewManager(cfg *ServerConfig, verifier *auth.Verifier, table api.RouteTable, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:       cfg,
		logger:    logger,
		verifier:  verifier,
		table:     table,
		providers: make([]RouteProvider, 0),
	}
}

// AddProvider adds a RouteProvider. Call this before Handler or Start.
func (m *Manager) AddProvider(p RouteProvider) {
	m.providers = append(m.providers, p)
	m.logger.Debug("Added route provider", zap.String("name", p.Name()))
}

// Handler returns the router, mounting everything on first use
func (m *Manager) Handler() (http.Handler, error) {
	m.buildOnce.Do(func() {
		if err := m.table.Validate(); err != nil {
			m.buildErr = fmt.Errorf("invalid route table: %w", err)
			return
		}
		m.router = m.buildRouter()
		m.mountTable(m.router)
		for _, p := range m.providers {
			m.logger.Info("Registering routes", zap.String("provider", p.Name()))
			p.RegisterRoutes(m.router)
		}
	})
	if m.buildErr != nil {
		return nil, m.buildErr
	}
	return m.router, nil
}

// Start binds the listener and serves in the background. It may only be
// called once per Manager.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}

	// Set Gin mode
	if m.cfg.LoggingLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handler, err := m.Handler()
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.HTTPAddress, fmt.Sprintf("%d", m.cfg.HTTPPort))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	m.listener = ln
	m.httpServer = &http.Server{
		Handler:      handler,
		ReadTimeout:  m.cfg.ReadTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		IdleTimeout:  m.cfg.IdleTimeout,
	}
	m.started = true

	go func() {
		m.logger.Info("HTTP server listening", zap.String("address", ln.Addr().String()))
		if err := m.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address, or nil before Start
func (m *Manager) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Shutdown gracefully stops the HTTP server
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	srv := m.httpServer
	m.mu.Unlock()

	if srv == nil {
		return ErrNotStarted
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	return nil
}

// buildRouter creates a new router with the fixed middleware chain:
// error responder, request log, CORS, body parsing.
func (m *Manager) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorResponder(m.logger))
	router.Use(middleware.Logger(m.logger))
	router.Use(cors.New(m.corsConfig()))
	router.Use(middleware.JSONBody(m.cfg.MaxBodyBytes))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
	})
	return router
}

func (m *Manager) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowOrigins:     m.cfg.CORS.AllowedOrigins,
		AllowMethods:     m.cfg.CORS.AllowedMethods,
		AllowHeaders:     m.cfg.CORS.AllowedHeaders,
		ExposeHeaders:    m.cfg.CORS.ExposedHeaders,
		AllowCredentials: m.cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(m.cfg.CORS.MaxAge) * time.Second,
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	}
	return cfg
}

// mountTable wires every route table entry behind Authenticate and RequireRoles
func (m *Manager) mountTable(router *gin.Engine) {
	base := router.Group(m.cfg.BasePath)
	authenticate := middleware.Authenticate(m.verifier, m.logger)

	for _, e := range m.table.Endpoints {
		chain := []gin.HandlerFunc{authenticate, middleware.RequireRoles(e.Roles, m.logger), e.Handler}
		if e.Method == "" {
			base.Any(e.Path, chain...)
			base.Any(e.Path+"/*rest", chain...)
		} else {
			base.Handle(e.Method, e.Path, chain...)
		}
		m.logger.Debug("Mounted endpoint",
			zap.String("method", methodLabel(e.Method)),
			zap.String("path", joinPath(m.cfg.BasePath, e.Path)),
			zap.Strings("roles", e.Roles.Strings()))
	}

	for _, g := range m.table.Groups {
		rg := base.Group("/"+g.Resource, authenticate, middleware.RequireRoles(g.Roles, m.logger))
		g.Register(rg)
		m.logger.Debug("Mounted route group",
			zap.String("path", joinPath(m.cfg.BasePath, "/"+g.Resource)),
			zap.Strings("roles", g.Roles.Strings()))
	}
}

func methodLabel(method string) string {
	if method == "" {
		return "ANY"
	}
	return method
}

func joinPath(base, p string) string {
	return strings.TrimSuffix(base, "/") + p
}
