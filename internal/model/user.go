package model

import "time"

// Role is the platform-wide permission level of a user account.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCollaborator Role = "collaborator"
	RoleViewer       Role = "viewer"
)

// User is the account snapshot returned by the profile endpoints.
// It is replaced wholesale on every profile update, never mutated
// field by field.
type User struct {
	// ID is the server-assigned account identifier.
	ID int64 `json:"id"`

	// Username is the unique login name.
	Username string `json:"username"`

	// Email is the account email address.
	Email string `json:"email"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// FullName is the server-computed display name.
	FullName string `json:"full_name"`

	Phone string `json:"phone,omitempty"`

	// Role controls what the user may do across the platform
	// (use the Role* constants).
	Role        Role   `json:"role"`
	RoleDisplay string `json:"role_display"`

	Avatar string `json:"avatar,omitempty"`

	// Verified reports whether the account email has been confirmed.
	Verified bool `json:"is_verified"`

	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login,omitempty"`

	// CanEditProjects is a server-computed permission hint for the UI.
	CanEditProjects bool `json:"can_edit_projects,omitempty"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
