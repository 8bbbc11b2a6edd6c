package users

import (
	"errors"
	"time"

	"github.com/fixpoint-app/fixpoint/internal/authz"
)

var (
	// ErrNotFound indicates the user does not exist in this company.
	ErrNotFound = errors.New("users: not found")
	// ErrLastAdmin prevents removing the final admin of a company.
	ErrLastAdmin = errors.New("users: cannot remove the last admin")
)

// User represents a staff account as managed within a company.
type User struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	CompanyID  int64      `json:"company_id"`
	LocationID int64      `json:"location_id"`
	Role       authz.Role `json:"role"`
	Roles      []authz.Role `json:"roles,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ListFilter narrows user listings.
type ListFilter struct {
	CompanyID int64
	IsActive  *bool
	Role      authz.Role
	Search    string
	Limit     int
	Offset    int
}
