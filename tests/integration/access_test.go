package integration

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
)

// reportsGroup stands in for a linked business module.
type reportsGroup struct{}

func (reportsGroup) Resource() string      { return "reports" }
func (reportsGroup) Roles() domain.RoleSet { return domain.AllRoles }
func (reportsGroup) Register(rg *gin.RouterGroup) {
	rg.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"reports": []string{}})
	})
}

func TestCheckAccess(t *testing.T) {
	h := NewTestHarness(t)

	t.Run("no credential", func(t *testing.T) {
		h.GET(h.API("/checkAccess")).Status(http.StatusUnauthorized).
			BodyContains("Authorization header required")
	})

	t.Run("malformed credential", func(t *testing.T) {
		h.WithAuth("not-a-jwt").GET(h.API("/checkAccess")).
			Status(http.StatusUnauthorized).
			BodyContains("Invalid token")
	})

	for _, role := range []domain.Role{domain.RoleTechnician, domain.RoleAdmin, domain.RoleDoctor, domain.RoleEmployee} {
		t.Run(string(role), func(t *testing.T) {
			var body map[string]interface{}
			h.WithAuth(h.Token("user-"+string(role), role)).
				GET(h.API("/checkAccess")).
				Status(http.StatusOK).
				JSON(&body)
			if body["role"] != string(role) {
				t.Errorf("Expected role %q, got %q", role, body["role"])
			}
		})
	}

	t.Run("unknown role is forbidden", func(t *testing.T) {
		h.WithAuth(h.ForgedRoleToken("guest", "Guest")).
			GET(h.API("/checkAccess")).
			Status(http.StatusForbidden).
			BodyContains("insufficient role")
	})

	t.Run("POST is not routed", func(t *testing.T) {
		h.WithAuth(h.Token("doc", domain.RoleDoctor)).
			POST(h.API("/checkAccess"), nil).
			Status(http.StatusNotFound)
	})
}

func TestBusinessGroups(t *testing.T) {
	h := NewTestHarness(t, WithGroups(reportsGroup{}))
	doctor := h.WithAuth(h.Token("doc-1", domain.RoleDoctor))

	t.Run("linked group is served behind the gate", func(t *testing.T) {
		h.GET(h.API("/reports")).Status(http.StatusUnauthorized)
		doctor.GET(h.API("/reports")).Status(http.StatusOK).BodyContains(`"reports":[]`)
	})

	t.Run("unlinked group answers 501 after the gate", func(t *testing.T) {
		h.GET(h.API("/analytics/summary")).Status(http.StatusUnauthorized)
		doctor.GET(h.API("/analytics/summary")).Status(http.StatusNotImplemented)
	})
}

func TestEmployeeDirectory(t *testing.T) {
	h := NewTestHarness(t)
	admin := h.WithAuth(h.Token("admin-1", domain.RoleAdmin))
	tech := h.WithAuth(h.Token("tech-1", domain.RoleTechnician))

	t.Run("empty directory", func(t *testing.T) {
		tech.GET(h.API("/employee")).Status(http.StatusOK).BodyEquals("[]")
	})

	t.Run("non-admin cannot create", func(t *testing.T) {
		tech.POST(h.API("/employee"), map[string]string{
			"name": "Ada", "email": "ada@example.org", "role": "Doctor",
		}).Status(http.StatusForbidden)
	})

	var created domain.Employee
	t.Run("admin creates", func(t *testing.T) {
		admin.POST(h.API("/employee"), map[string]string{
			"name": "Ada", "email": "ada@example.org", "role": "Doctor", "department": "Cardiology",
		}).Status(http.StatusCreated).JSON(&created)
		if created.ID == "" {
			t.Fatal("Expected an assigned employee id")
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		admin.POST(h.API("/employee"), map[string]string{
			"name": "Ada Again", "email": "ada@example.org", "role": "Doctor",
		}).Status(http.StatusConflict)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		admin.POST(h.API("/employee"), map[string]string{
			"name": "Bob", "email": "bob@example.org", "role": "Guest",
		}).Status(http.StatusBadRequest)
	})

	t.Run("lookup and listing", func(t *testing.T) {
		var got domain.Employee
		tech.GET(h.API("/employee/" + string(created.ID))).Status(http.StatusOK).JSON(&got)
		if got.Email != "ada@example.org" {
			t.Errorf("Expected ada@example.org, got %q", got.Email)
		}

		var all []domain.Employee
		tech.GET(h.API("/allemployees")).Status(http.StatusOK).JSON(&all)
		if len(all) != 1 {
			t.Errorf("Expected 1 employee, got %d", len(all))
		}
	})

	t.Run("missing employee", func(t *testing.T) {
		tech.GET(h.API("/employee/does-not-exist")).Status(http.StatusNotFound)
	})
}

func TestAuthEndpoints(t *testing.T) {
	h := NewTestHarness(t)
	client := h.WithAuth(h.Token("emp-7", domain.RoleEmployee))

	var me map[string]interface{}
	client.GET(h.API("/auth/me")).Status(http.StatusOK).JSON(&me)
	if me["subject"] != "emp-7" {
		t.Errorf("Expected subject emp-7, got %q", me["subject"])
	}

	var refreshed map[string]interface{}
	client.POST(h.API("/auth/refresh"), nil).Status(http.StatusOK).JSON(&refreshed)
	token, _ := refreshed["token"].(string)
	if token == "" {
		t.Fatal("Expected a refreshed token")
	}

	// The refreshed token is accepted by the running server.
	h.WithAuth(token).GET(h.API("/checkAccess")).Status(http.StatusOK)
}
