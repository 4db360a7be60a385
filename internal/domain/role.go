package domain

import (
	"fmt"
	"sort"
)

// Role is the closed set of roles a caller can hold.
type Role string

const (
	RoleTechnician Role = "Technician"
	RoleAdmin      Role = "Admin"
	RoleDoctor     Role = "Doctor"
	RoleEmployee   Role = "Employee"
)

// ValidRoles lists every role in the enumeration
var ValidRoles = []Role{RoleTechnician, RoleAdmin, RoleDoctor, RoleEmployee}

// IsValid reports whether r is a member of the enumeration.
// Comparison is case-sensitive.
func (r Role) IsValid() bool {
	for _, valid := range ValidRoles {
		if r == valid {
			return true
		}
	}
	return false
}

// String returns the string representation
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name, returning an error if it is not one of ValidRoles
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q, valid roles: %v", s, ValidRoles)
	}
	return role, nil
}

// RoleSet is an immutable set of acceptable roles attached to a route.
// It is safe for concurrent reads.
type RoleSet struct {
	members map[Role]struct{}
}

// NewRoleSet builds a RoleSet. Roles outside the enumeration are dropped,
// so a RoleSet can never admit an unknown role.
func NewRoleSet(roles ...Role) RoleSet {
	members := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if r.IsValid() {
			members[r] = struct{}{}
		}
	}
	return RoleSet{members: members}
}

// AllRoles admits every role in the enumeration
var AllRoles = NewRoleSet(ValidRoles...)

// Contains reports set membership
func (s RoleSet) Contains(r Role) bool {
	_, ok := s.members[r]
	return ok
}

// Len returns the number of roles in the set
func (s RoleSet) Len() int {
	return len(s.members)
}

// Roles returns the members sorted by name
func (s RoleSet) Roles() []Role {
	roles := make([]Role, 0, len(s.members))
	for r := range s.members {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Strings returns the sorted member names, for logging
func (s RoleSet) Strings() []string {
	roles := s.Roles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
