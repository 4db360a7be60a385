package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmployeeID represents a unique employee identifier
type EmployeeID string

// NewEmployeeID creates a new random employee ID
func NewEmployeeID() EmployeeID {
	return EmployeeID(uuid.New().String())
}

// String returns the string representation
func (id EmployeeID) String() string {
	return string(id)
}

// Employee is a directory entry for a person who can sign in to EHMS
type Employee struct {
	ID         EmployeeID `json:"id" bson:"_id"`
	Name       string     `json:"name" bson:"name"`
	Email      string     `json:"email" bson:"email"`
	Role       Role       `json:"role" bson:"role"`
	Department string     `json:"department,omitempty" bson:"department,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" bson:"updated_at"`
}

// NormalizeEmail is the canonical form stores persist and compare emails in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the fields a caller must provide
func (e *Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("employee name is required")
	}
	if _, err := mail.ParseAddress(e.Email); err != nil {
		return fmt.Errorf("invalid employee email %q", e.Email)
	}
	if !e.Role.IsValid() {
		return fmt.Errorf("invalid employee role %q", e.Role)
	}
	return nil
}
