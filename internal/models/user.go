package models

// UserRole represents the platform roles notifications and RBAC are scoped to.
type UserRole string

const (
	RolePatient  UserRole = "PATIENT"
	RoleDonor    UserRole = "DONOR"
	RoleHospital UserRole = "HOSPITAL"
	RoleNGO      UserRole = "NGO"
	RoleAdmin    UserRole = "ADMIN"
)

// ValidRole reports whether the given role is one of the platform roles.
func ValidRole(role UserRole) bool {
	switch role {
	case RolePatient, RoleDonor, RoleHospital, RoleNGO, RoleAdmin:
		return true
	default:
		return false
	}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
