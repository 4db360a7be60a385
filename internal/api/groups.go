package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
	"github.com/sirosfoundation/go-ehms-backend/pkg/middleware"
)

// EmployeeGroup serves the employee directory. Reads are open to every
// role; creating an employee is Admin only.
type EmployeeGroup struct {
	h *Handlers
}

// NewEmployeeGroup creates the employee route group
func NewEmployeeGroup(h *Handlers) *EmployeeGroup {
	return &EmployeeGroup{h: h}
}

func (g *EmployeeGroup) Resource() string      { return "employee" }
func (g *EmployeeGroup) Roles() domain.RoleSet { return domain.AllRoles }

func (g *EmployeeGroup) Register(rg *gin.RouterGroup) {
	rg.GET("", g.h.ListEmployees)
	rg.GET("/:id", g.h.GetEmployee)
	rg.POST("", middleware.RequireRoles(domain.NewRoleSet(domain.RoleAdmin), g.h.logger), g.h.CreateEmployee)
}

// AuthGroup serves token introspection and refresh. Tokens are first
// issued out of band with ehmsctl.
type AuthGroup struct {
	h       *Handlers
	limiter *middleware.AuthRateLimiter
}

// NewAuthGroup creates the auth route group. A nil limiter disables
// refresh rate limiting.
func NewAuthGroup(h *Handlers, limiter *middleware.AuthRateLimiter) *AuthGroup {
	return &AuthGroup{h: h, limiter: limiter}
}

func (g *AuthGroup) Resource() string      { return "auth" }
func (g *AuthGroup) Roles() domain.RoleSet { return domain.AllRoles }

func (g *AuthGroup) Register(rg *gin.RouterGroup) {
	rg.GET("/me", g.h.Me)
	if g.limiter != nil {
		rg.POST("/refresh", middleware.AuthRateLimitMiddleware(g.limiter), g.h.RefreshToken)
		return
	}
	rg.POST("/refresh", g.h.RefreshToken)
}
