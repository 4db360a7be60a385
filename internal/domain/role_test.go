package domain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{"technician", "Technician", RoleTechnician, false},
		{"admin", "Admin", RoleAdmin, false},
		{"doctor", "Doctor", RoleDoctor, false},
		{"employee", "Employee", RoleEmployee, false},
		{"lowercase is rejected", "admin", "", true},
		{"unknown role", "Guest", "", true},
		{"empty", "", "", true},
		{"padded", " Admin", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleSet_Contains(t *testing.T) {
	set := NewRoleSet(RoleAdmin, RoleDoctor)

	assert.True(t, set.Contains(RoleAdmin))
	assert.True(t, set.Contains(RoleDoctor))
	assert.False(t, set.Contains(RoleEmployee))
	assert.False(t, set.Contains(Role("Guest")))
	assert.False(t, set.Contains(Role("admin")))
}

func TestRoleSet_OrderIrrelevant(t *testing.T) {
	a := NewRoleSet(RoleAdmin, RoleDoctor, RoleTechnician)
	b := NewRoleSet(RoleTechnician, RoleAdmin, RoleDoctor)

	assert.Equal(t, a.Roles(), b.Roles())
	for _, r := range ValidRoles {
		assert.Equal(t, a.Contains(r), b.Contains(r), "role %s", r)
	}
}

func TestRoleSet_DropsInvalidRoles(t *testing.T) {
	set := NewRoleSet(RoleAdmin, Role("Guest"), Role(""))

	assert.Equal(t, 1, set.Len())
	assert.False(t, set.Contains(Role("Guest")))
	assert.False(t, set.Contains(Role("")))
}

func TestAllRoles(t *testing.T) {
	assert.Equal(t, 4, AllRoles.Len())
	assert.Equal(t, []string{"Admin", "Doctor", "Employee", "Technician"}, AllRoles.Strings())
}

func TestRoleSet_ZeroValue(t *testing.T) {
	var set RoleSet
	assert.False(t, set.Contains(RoleAdmin))
	assert.Empty(t, set.Roles())
}

func TestRoleSet_ConcurrentReads(t *testing.T) {
	set := NewRoleSet(RoleAdmin, RoleEmployee)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, set.Contains(RoleAdmin))
			assert.False(t, set.Contains(RoleDoctor))
		}()
	}
	wg.Wait()
}
