// Package authz implements the multi-tenant role and permission layer that
// gates every authenticated route. Decisions are always evaluated against
// the company the request is scoped to.
package authz

import "context"

// Role is a label attached to a user and a key into the permission catalog.
type Role string

// Built-in roles. Tenants may define additional custom roles in the catalog.
const (
	RoleSuperuser  Role = "superuser"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleFrontdesk  Role = "frontdesk"
)

// Core permission tokens, resource.action convention.
const (
	PermCustomersRead  = "customers.read"
	PermCustomersEdit  = "customers.edit"
	PermTicketsRead    = "tickets.read"
	PermTicketsEdit    = "tickets.edit"
	PermTicketsAssign  = "tickets.assign"
	PermInvoicesRead   = "invoices.read"
	PermInvoicesEdit   = "invoices.edit"
	PermInvoicesVoid   = "invoices.void"
	PermInventoryRead  = "inventory.read"
	PermInventoryEdit  = "inventory.edit"
	PermDrawersRead    = "drawers.read"
	PermDrawersManage  = "drawers.manage"
	PermChecklistsRead = "checklists.read"
	PermChecklistsEdit = "checklists.edit"
	PermUsersRead      = "users.read"
	PermUsersEdit      = "users.edit"
	PermReportsRead    = "reports.read"
	PermSettingsAccess = "settings.access"
)

// AllScopes lists every permission the platform defines.
func AllScopes() []string {
	return []string{
		PermCustomersRead,
		PermCustomersEdit,
		PermTicketsRead,
		PermTicketsEdit,
		PermTicketsAssign,
		PermInvoicesRead,
		PermInvoicesEdit,
		PermInvoicesVoid,
		PermInventoryRead,
		PermInventoryEdit,
		PermDrawersRead,
		PermDrawersManage,
		PermChecklistsRead,
		PermChecklistsEdit,
		PermUsersRead,
		PermUsersEdit,
		PermReportsRead,
		PermSettingsAccess,
	}
}

// Identity is the authenticated-user view attached to the request by the
// authentication middleware. Role is always set; Roles carries auxiliary
// roles when the load path provided them (a fresh directory read does, a
// bare JWT claim does not).
type Identity struct {
	UserID     int64
	Email      string
	CompanyID  int64
	LocationID int64
	Role       Role
	Roles      []Role
	IsActive   bool
}

type identityContextKey struct{}

// ContextWithIdentity stores the authenticated identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the authenticated identity, nil if absent.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}
