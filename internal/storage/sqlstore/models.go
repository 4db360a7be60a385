package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/sirosfoundation/go-ehms-backend/internal/domain"
)

// employeeModel is the relational shape of domain.Employee
type employeeModel struct {
	bun.BaseModel `bun:"table:employees,alias:e"`

	ID         string    `bun:"id,pk,type:varchar(36)"`
	Name       string    `bun:"name,notnull,type:varchar(255)"`
	Email      string    `bun:"email,notnull,unique,type:varchar(255)"`
	Role       string    `bun:"role,notnull,type:varchar(32)"`
	Department string    `bun:"department,type:varchar(255)"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

// models lists every table Sync reconciles, in creation order
var models = []interface{}{
	(*employeeModel)(nil),
}

func employeeToModel(e *domain.Employee) *employeeModel {
	return &employeeModel{
		ID:         e.ID.String(),
		Name:       e.Name,
		Email:      e.Email,
		Role:       string(e.Role),
		Department: e.Department,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func (m *employeeModel) toDomain() *domain.Employee {
	return &domain.Employee{
		ID:         domain.EmployeeID(m.ID),
		Name:       m.Name,
		Email:      m.Email,
		Role:       domain.Role(m.Role),
		Department: m.Department,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
