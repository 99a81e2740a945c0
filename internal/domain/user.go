package domain

import "time"

// UserRole enumerates operator roles.
type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleManager UserRole = "manager"
	UserRoleAgent   UserRole = "agent"
)

// User models an operator who works tickets. Users act as both the actors
// behind audit entries and the assignees of tickets.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	GroupID      *int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasElevatedRole reports whether the role alone grants full ticket
// visibility.
func (u *User) HasElevatedRole() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleManager
}

// Group bundles users; ViewAll grants full ticket visibility to members
// regardless of role.
type Group struct {
	ID        int64
	Name      string
	ViewAll   bool
	CreatedAt time.Time
}
