package enums

import "fmt"

// ProfileRole is the storefront role stored on a user's profile.
type ProfileRole string

const (
	ProfileRoleCustomer ProfileRole = "customer"
	ProfileRoleAdmin    ProfileRole = "admin"
)

var validProfileRoles = []ProfileRole{
	ProfileRoleCustomer,
	ProfileRoleAdmin,
}

// String implements fmt.Stringer.
func (r ProfileRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ProfileRole.
func (r ProfileRole) IsValid() bool {
	for _, candidate := range validProfileRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseProfileRole converts raw input into a ProfileRole.
func ParseProfileRole(value string) (ProfileRole, error) {
	for _, candidate := range validProfileRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid profile role %q", value)
}
