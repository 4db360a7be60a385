package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sirosfoundation/go-ehms-backend/internal/apperror"
	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
	"github.com/sirosfoundation/go-ehms-backend/pkg/middleware"
)

// RouteGroup is the contract a business controller implements to be mounted
// under <base>/<Resource()>. Every route it registers sits behind the
// credential verifier and a role gate for Roles(). Handlers report failures
// with c.Error (or panic) and leave the response to the error responder.
type RouteGroup interface {
	Resource() string
	Roles() domain.RoleSet
	Register(rg *gin.RouterGroup)
}

// BusinessResources are the controller groups mounted by every build
var BusinessResources = []string{
	"reports",
	"instructions",
	"allergies",
	"conditions",
	"dashboard",
	"analytics",
	"doctors",
	"technicians",
}

// RouteEntry is one mounted group: prefix, required roles, registration
type RouteEntry struct {
	Resource string
	Roles    domain.RoleSet
	Register func(rg *gin.RouterGroup)
}

// Endpoint is a route wired straight to a handler under the base path.
// An empty Method matches every method on Path and on every path below it.
type Endpoint struct {
	Method  string
	Path    string
	Roles   domain.RoleSet
	Handler gin.HandlerFunc
}

// RouteTable is the complete set of authenticated routes. It is built once
// and only read after the server starts.
type RouteTable struct {
	Groups    []RouteEntry
	Endpoints []Endpoint
}

// EntryFor converts a RouteGroup to a RouteEntry
func EntryFor(g RouteGroup) RouteEntry {
	return RouteEntry{
		Resource: g.Resource(),
		Roles:    g.Roles(),
		Register: g.Register,
	}
}

// Validate checks that every entry is mountable and no prefix is taken twice
func (t RouteTable) Validate() error {
	seen := make(map[string]bool)
	for _, g := range t.Groups {
		if g.Resource == "" || strings.Contains(g.Resource, "/") {
			return fmt.Errorf("invalid route group resource %q", g.Resource)
		}
		if g.Register == nil {
			return fmt.Errorf("route group %q has no register function", g.Resource)
		}
		if seen[g.Resource] {
			return fmt.Errorf("duplicate route group %q", g.Resource)
		}
		seen[g.Resource] = true
	}
	for _, e := range t.Endpoints {
		if !strings.HasPrefix(e.Path, "/") {
			return fmt.Errorf("endpoint path %q must start with /", e.Path)
		}
		if e.Handler == nil {
			return fmt.Errorf("endpoint %s has no handler", e.Path)
		}
		if seen[strings.TrimPrefix(e.Path, "/")] {
			return fmt.Errorf("endpoint %s collides with a route group", e.Path)
		}
	}
	return nil
}

// DefaultRouteTable builds the production route table. Groups passed in
// linked replace the matching placeholder; business resources without a
// linked controller answer 501.
func DefaultRouteTable(h *Handlers, limiter *middleware.AuthRateLimiter, linked ...RouteGroup) RouteTable {
	byResource := make(map[string]RouteGroup, len(linked))
	for _, g := range linked {
		byResource[g.Resource()] = g
	}

	groups := []RouteGroup{
		NewEmployeeGroup(h),
		NewAuthGroup(h, limiter),
	}
	for _, resource := range BusinessResources {
		if g, ok := byResource[resource]; ok {
			groups = append(groups, g)
			delete(byResource, resource)
			continue
		}
		groups = append(groups, Unlinked(resource))
	}
	// Linked groups outside the standard list keep their caller's order
	for _, g := range linked {
		if _, ok := byResource[g.Resource()]; ok {
			groups = append(groups, g)
		}
	}

	table := RouteTable{
		Endpoints: []Endpoint{
			{Path: "/allemployees", Roles: domain.AllRoles, Handler: h.ListEmployees},
			{Method: http.MethodGet, Path: "/checkAccess", Roles: domain.AllRoles, Handler: h.CheckAccess},
		},
	}
	for _, g := range groups {
		table.Groups = append(table.Groups, EntryFor(g))
	}
	return table
}

// unlinkedGroup stands in for a controller that is not part of this build
type unlinkedGroup struct {
	resource string
}

// Unlinked returns a placeholder group that answers 501 on every route
func Unlinked(resource string) RouteGroup {
	return unlinkedGroup{resource: resource}
}

func (g unlinkedGroup) Resource() string      { return g.resource }
func (g unlinkedGroup) Roles() domain.RoleSet { return domain.AllRoles }

func (g unlinkedGroup) Register(rg *gin.RouterGroup) {
	handler := func(c *gin.Context) {
		_ = c.Error(apperror.NotImplemented(fmt.Sprintf("%s controller is not available", g.resource)))
	}
	rg.Any("", handler)
	rg.Any("/*path", handler)
}
