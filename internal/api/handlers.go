package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-ehms-backend/internal/apperror"
	"github.com/sirosfoundation/go-ehms-backend/internal/auth"
	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
	"github.com/sirosfoundation/go-ehms-backend/internal/storage"
	"github.com/sirosfoundation/go-ehms-backend/pkg/config"
	"github.com/sirosfoundation/go-ehms-backend/pkg/middleware"
)

// ServiceName is reported by /status
const ServiceName = "ehms-backend"

// RootMessage is the plain-text body of GET /
const RootMessage = "Backend is up and running!"

// Handlers aggregates all HTTP handlers
type Handlers struct {
	store  storage.Store
	issuer *auth.Issuer
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(store storage.Store, issuer *auth.Issuer, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		store:  store,
		issuer: issuer,
		cfg:    cfg,
		logger: logger.Named("handlers"),
	}
}

// Root handles GET /
func (h *Handlers) Root(c *gin.Context) {
	c.String(http.StatusOK, RootMessage)
}

// Status handles the /status and /health endpoints. It always answers 200;
// an unreachable database is reported as degraded.
func (h *Handlers) Status(c *gin.Context) {
	features := append([]string(nil), APICapabilities[CurrentAPIVersion]...)
	if h.cfg.Realtime.Enabled {
		features = append(features, FeatureRealtime)
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status:     "ok",
		Service:    ServiceName,
		APIVersion: CurrentAPIVersion,
		Features:   features,
		Database:   h.databaseHealth(c.Request.Context()),
	})
}

func (h *Handlers) databaseHealth(ctx context.Context) string {
	timeout := config.Seconds(h.cfg.Storage.ProbeTimeout)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Database health check failed", zap.Error(err))
		return DatabaseDegraded
	}
	return DatabaseOK
}

// ListEmployees returns every employee in the directory
func (h *Handlers) ListEmployees(c *gin.Context) {
	employees, err := h.store.Employees().GetAll(c.Request.Context())
	if err != nil {
		_ = c.Error(apperror.Upstream("Failed to fetch employees", err))
		return
	}
	if employees == nil {
		employees = []*domain.Employee{}
	}
	c.JSON(http.StatusOK, employees)
}

// GetEmployee returns one employee by id
func (h *Handlers) GetEmployee(c *gin.Context) {
	id := domain.EmployeeID(c.Param("id"))
	employee, err := h.store.Employees().GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = c.Error(apperror.NotFound("Employee not found"))
			return
		}
		_ = c.Error(apperror.Upstream("Failed to fetch employee", err))
		return
	}
	c.JSON(http.StatusOK, employee)
}

// CreateEmployeeRequest is the body of POST /employee
type CreateEmployeeRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department"`
}

// CreateEmployee adds an employee to the directory
func (h *Handlers) CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(middleware.BodyError(err))
		return
	}

	employee := &domain.Employee{
		Name:       req.Name,
		Email:      req.Email,
		Role:       domain.Role(req.Role),
		Department: req.Department,
	}
	if err := employee.Validate(); err != nil {
		_ = c.Error(apperror.BadRequest(err.Error(), err))
		return
	}

	if err := h.store.Employees().Create(c.Request.Context(), employee); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			_ = c.Error(apperror.Conflict("Employee already exists", err))
			return
		}
		_ = c.Error(apperror.Upstream("Failed to create employee", err))
		return
	}

	h.logger.Info("Employee created",
		zap.String("id", employee.ID.String()),
		zap.String("role", employee.Role.String()),
	)
	c.JSON(http.StatusCreated, employee)
}

// AccessResponse describes the caller as seen by the role gate
type AccessResponse struct {
	Message   string    `json:"message,omitempty"`
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func accessFor(identity *domain.Identity) AccessResponse {
	return AccessResponse{
		Subject:   identity.Subject,
		Role:      identity.Role.String(),
		IssuedAt:  identity.IssuedAt,
		ExpiresAt: identity.ExpiresAt,
	}
}

// CheckAccess confirms the caller passed the gate and echoes its identity
func (h *Handlers) CheckAccess(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		_ = c.Error(apperror.InternalConfiguration("Internal Server Error"))
		return
	}
	resp := accessFor(identity)
	resp.Message = "Access granted"
	c.JSON(http.StatusOK, resp)
}

// Me returns the identity carried by the caller's token
func (h *Handlers) Me(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		_ = c.Error(apperror.InternalConfiguration("Internal Server Error"))
		return
	}
	c.JSON(http.StatusOK, accessFor(identity))
}

// TokenResponse is returned by token refresh
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RefreshToken issues a fresh token for the caller's subject and role
func (h *Handlers) RefreshToken(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		_ = c.Error(apperror.InternalConfiguration("Internal Server Error"))
		return
	}

	token, expiresAt, err := h.issuer.Issue(identity.Subject, identity.Role)
	if err != nil {
		_ = c.Error(apperror.Upstream("Failed to issue token", err))
		return
	}

	h.logger.Debug("Token refreshed", zap.String("subject", identity.Subject))
	c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}
