package auth

import (
	"time"

	"github.com/fixpoint-app/fixpoint/internal/authz"
)

// User represents an authenticated staff account within a company.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CompanyID    int64
	LocationID   int64
	Role         authz.Role
	Roles        []authz.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity converts the loaded user into the request-scoped identity
// consumed by the authorization layer. Auxiliary roles are carried as
// loaded; an identity built from bare token claims will not have them.
func (u *User) Identity() *authz.Identity {
	if u == nil {
		return nil
	}
	return &authz.Identity{
		UserID:     u.ID,
		Email:      u.Email,
		CompanyID:  u.CompanyID,
		LocationID: u.LocationID,
		Role:       u.Role,
		Roles:      u.Roles,
		IsActive:   u.IsActive,
	}
}
