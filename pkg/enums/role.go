package enums

import "fmt"

// Role identifies the personnel group (or the applicant) acting on a permit.
type Role string

const (
	RoleApplicant       Role = "applicant"
	RoleReceivingClerk  Role = "receiving_clerk"
	RoleTechnicalStaff  Role = "technical_staff"
	RoleChiefRPS        Role = "chief_rps"
	RoleChiefTSD        Role = "chief_tsd"
	RoleInspector       Role = "inspector"
	RolePENRCENROfficer Role = "penr_cenr_officer"
	RoleAccountant      Role = "accountant"
	RoleAdmin           Role = "admin"
)

var validRoles = []Role{
	RoleApplicant,
	RoleReceivingClerk,
	RoleTechnicalStaff,
	RoleChiefRPS,
	RoleChiefTSD,
	RoleInspector,
	RolePENRCENROfficer,
	RoleAccountant,
	RoleAdmin,
}

// IsValid checks whether the given role matches the canonical enum.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw strings into Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
