package entities

import "strings"

// Role is the back-office permission level carried by a bearer token
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// ParseRole normalises a role claim. Unknown roles map to owner.
func ParseRole(value string) Role {
	if strings.EqualFold(strings.TrimSpace(value), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleOwner
}

// User is the identity extracted from a verified bearer token
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name,omitempty"`
}

// IsAdmin reports whether the user has admin rights
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanManage reports whether the user may edit resources belonging to ownerID
func (u *User) CanManage(ownerID string) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin() || (ownerID != "" && u.ID == ownerID)
}
