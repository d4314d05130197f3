package constants

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Template pesan error role
const (
	ErrOnlyStaffCanAccess    = "❌ Hanya teacher atau admin yang boleh mengakses fitur %s."
	ErrOnlyStudentsCanAccess = "❌ Hanya student yang boleh mengakses fitur %s."
	ErrOnlyAdminsCanAccess   = "❌ Hanya admin yang boleh mengakses fitur %s."
)

func RoleErrorStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyStaffCanAccess, feature)
}

func RoleErrorStudent(feature string) string {
	return fmt.Sprintf(ErrOnlyStudentsCanAccess, feature)
}

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

// ParseRole accepts any casing; unknown names are rejected.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return r, true
	}
	return "", false
}

// RoleSet is a closed set of roles used by the authorization gate.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersects reports whether any of have is in s.
func (s RoleSet) Intersects(have []Role) bool {
	for _, r := range have {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// ==========================
// ✅ Grouped Role Sets
// ==========================
var (
	AllRoles    = NewRoleSet(RoleStudent, RoleTeacher, RoleAdmin)
	StaffRoles  = NewRoleSet(RoleTeacher, RoleAdmin)
	StudentOnly = NewRoleSet(RoleStudent)
	AdminOnly   = NewRoleSet(RoleAdmin)
	TeacherOnly = NewRoleSet(RoleTeacher)
)

// IsStaff is true for teachers and admins.
func IsStaff(roles []Role) bool { return StaffRoles.Intersects(roles) }
