package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Role is the canonical, normalized portal role.
type Role string

const (
	RoleStudent             Role = "student"
	RoleTeacher             Role = "teacher"
	RoleSystemAdmin         Role = "system_admin"
	RoleInstitutionManager  Role = "institution_manager"
	RoleAcademicCoordinator Role = "academic_coordinator"
	RoleGuardian            Role = "guardian"
)

// Roles lists every canonical role.
var Roles = []Role{
	RoleStudent,
	RoleTeacher,
	RoleSystemAdmin,
	RoleInstitutionManager,
	RoleAcademicCoordinator,
	RoleGuardian,
}

var roleAliases = map[string]Role{
	"student":   RoleStudent,
	"aluno":     RoleStudent,
	"estudante": RoleStudent,

	"teacher":   RoleTeacher,
	"professor": RoleTeacher,

	"system_admin":             RoleSystemAdmin,
	"administrador do sistema": RoleSystemAdmin,
	"administrador":            RoleSystemAdmin,
	"admin":                    RoleSystemAdmin,

	"institution_manager":   RoleInstitutionManager,
	"gestor":                RoleInstitutionManager,
	"manager":               RoleInstitutionManager,
	"gestor de instituição": RoleInstitutionManager,

	"academic_coordinator":  RoleAcademicCoordinator,
	"coordinator":           RoleAcademicCoordinator,
	"coordenador":           RoleAcademicCoordinator,
	"coordenador acadêmico": RoleAcademicCoordinator,

	"guardian":    RoleGuardian,
	"responsável": RoleGuardian,
}

var roleDashboards = map[Role]string{
	RoleStudent:             "/dashboard/student",
	RoleTeacher:             "/dashboard/teacher",
	RoleSystemAdmin:         "/dashboard/system-admin",
	RoleInstitutionManager:  "/dashboard/institution-manager",
	RoleAcademicCoordinator: "/dashboard/coordinator",
	RoleGuardian:            "/dashboard/guardian",
}

// NormalizeRoleName folds a raw role string into the form used for alias lookup.
func NormalizeRoleName(raw string) string {
	trimmed := strings.TrimSpace(norm.NFC.String(raw))
	return cases.Lower(language.Und).String(trimmed)
}

// ParseRole maps any known alias (English or Portuguese, any case) to its canonical role.
func ParseRole(raw string) (Role, bool) {
	role, ok := roleAliases[NormalizeRoleName(raw)]
	return role, ok
}

// Dashboard returns the canonical dashboard path for the role.
func (r Role) Dashboard() string {
	return roleDashboards[r]
}

// IsSuperuser reports whether the role bypasses path-based access checks.
func (r Role) IsSuperuser() bool {
	return r == RoleSystemAdmin
}

func (r Role) String() string {
	return string(r)
}
