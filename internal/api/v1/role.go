package v1

import "fmt"

// Role is the single role an identity holds. The zero value is not a role;
// identities without an explicit assignment are RoleUser.
type Role string

const (
	RoleUser      Role = "User"
	RoleOrganizer Role = "Organizer"
	RoleAdmin     Role = "Admin"
)

// ParseRole accepts the canonical role names.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleOrganizer, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// RoleResponse is the body of GET /v1/roles/:identity.
type RoleResponse struct {
	Identity string `json:"identity"`
	Role     Role   `json:"role"`
}
