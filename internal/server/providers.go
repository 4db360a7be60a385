package server

import (
	"github.com/gin-gonic/gin"

	"github.com/sirosfoundation/go-ehms-backend/internal/api"
	"github.com/sirosfoundation/go-ehms-backend/internal/realtime"
)

// SystemProvider serves the unauthenticated root and status endpoints
type SystemProvider struct {
	handlers *api.Handlers
}

// NewSystemProvider creates the root/status provider
func NewSystemProvider(handlers *api.Handlers) *SystemProvider {
	return &SystemProvider{handlers: handlers}
}

func (p *SystemProvider) Name() string { return "system" }

func (p *SystemProvider) RegisterRoutes(router *gin.Engine) {
	router.GET("/", p.handlers.Root)
	router.GET("/health", p.handlers.Status)
	router.GET("/status", p.handlers.Status)
}

// RealtimeProvider mounts the WebSocket endpoint on the shared listener
type RealtimeProvider struct {
	path     string
	notifier *realtime.Notifier
}

// NewRealtimeProvider creates the realtime provider
func NewRealtimeProvider(path string, notifier *realtime.Notifier) *RealtimeProvider {
	return &RealtimeProvider{path: path, notifier: notifier}
}

func (p *RealtimeProvider) Name() string { return "realtime" }

func (p *RealtimeProvider) RegisterRoutes(router *gin.Engine) {
	router.GET(p.path, p.notifier.Handler())
}
