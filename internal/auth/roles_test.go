package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

func TestValidateRole(t *testing.T) {
	ac := NewAccessController(nil)

	assert.True(t, ac.ValidateRole(""), "missing role is tolerated")
	assert.True(t, ac.ValidateRole("STUDENT"))
	assert.True(t, ac.ValidateRole("Coordenador Acadêmico"))
	assert.False(t, ac.ValidateRole("janitor"))
}

func TestDashboardForEveryCanonicalRole(t *testing.T) {
	ac := NewAccessController(nil)

	for _, role := range domain.Roles {
		dashboard := ac.DashboardFor(string(role))
		assert.NotEmpty(t, dashboard, role)
		assert.Equal(t, dashboard, ac.DashboardFor(string(role)), "stable for %s", role)
		assert.True(t, ac.CanAccess(string(role), dashboard), "own dashboard for %s", role)
		assert.True(t, ac.CanAccess(string(role), dashboard+"/reports"), "nested dashboard for %s", role)
	}

	assert.Empty(t, ac.DashboardFor(""))
	assert.Empty(t, ac.DashboardFor("janitor"))
}

func TestSystemAdminBypassesEveryPath(t *testing.T) {
	ac := NewAccessController(nil)

	for _, role := range []string{"SYSTEM_ADMIN", "system_admin", "Administrador do Sistema"} {
		for _, path := range []string{"/institution/secret", "/dashboard/student", "/dashboard/guardian/children", "/"} {
			assert.True(t, ac.CanAccess(role, path), "%s -> %s", role, path)
		}
	}
}

func TestCanAccessDashboards(t *testing.T) {
	ac := NewAccessController(nil)

	cases := []struct {
		role string
		path string
		want bool
	}{
		{"student", "/dashboard", true},
		{"student", "/courses/42", true},
		{"student", "/dashboard/student", true},
		{"student", "/dashboard/student/grades", true},
		{"student", "/dashboard/studentfoo", false},
		{"student", "/dashboard/teacher", false},
		{"aluno", "/dashboard/student", true},
		{"professor", "/dashboard/teacher/classes", true},
		{"responsável", "/dashboard/guardian", true},
		{"guardian", "/dashboard/system-admin", false},
		{"janitor", "/dashboard/student", false},
		{"janitor", "/profile", true},
		{"", "/dashboard/teacher", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ac.CanAccess(tc.role, tc.path), "%s -> %s", tc.role, tc.path)
	}
}
