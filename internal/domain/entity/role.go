// Package entity contains the core business objects of the project.
package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// RoleName is one of the fixed role names seeded at bootstrap.
type RoleName string

const (
	RoleSuperAdmin RoleName = "superAdmin"
	RoleAdmin      RoleName = "admin"
	RoleSubAdmin   RoleName = "subAdmin"
	RoleVendor     RoleName = "vendor"
	RoleCustomer   RoleName = "customer"
)

// PermissionWildcard grants every permission.
const PermissionWildcard = "*"

// Named permissions checked by the core flows.
const (
	PermissionApproveVendor = "approve_vendor"
	PermissionVendorBasic   = "vendor:basic"
)

// String returns the string representation of the RoleName.
func (r RoleName) String() string {
	return string(r)
}

// IsValid checks if the RoleName is one of the seeded names.
func (r RoleName) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleSubAdmin, RoleVendor, RoleCustomer:
		return true
	default:
		return false
	}
}

// IsAdminType reports whether r can be provisioned through the admin-creation flow.
func (r RoleName) IsAdminType() bool {
	return r == RoleAdmin || r == RoleSubAdmin
}

// Role is a named permission set. Exactly one Role exists per name.
type Role struct {
	ID          uuid.UUID
	Name        RoleName
	Description string
	Permissions Permissions
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permissions is a set of permission strings; "*" satisfies any check.
type Permissions []string

// Grants reports whether the set contains the wildcard or permission itself.
func (p Permissions) Grants(permission string) bool {
	return slices.Contains(p, PermissionWildcard) || slices.Contains(p, permission)
}

// IsWildcard reports whether the set is the wildcard set.
func (p Permissions) IsWildcard() bool {
	return slices.Contains(p, PermissionWildcard)
}

// Normalize collapses a set containing "*" to exactly {"*"} and removes duplicates and blanks.
func (p Permissions) Normalize() Permissions {
	if p.IsWildcard() {
		return Permissions{PermissionWildcard}
	}

	out := make(Permissions, 0, len(p))
	for _, perm := range p {
		if perm == "" || slices.Contains(out, perm) {
			continue
		}
		out = append(out, perm)
	}

	return out
}

// DefaultRoles returns the bootstrap role set.
func DefaultRoles() []*Role {
	return []*Role{
		{
			Name:        RoleSuperAdmin,
			Description: "Super Administrator with all permissions",
			Permissions: Permissions{PermissionWildcard},
			IsDefault:   true,
		},
		{
			Name:        RoleAdmin,
			Description: "Administrator with management permissions",
			Permissions: Permissions{
				"user:read", "user:update",
				"product:create", "product:update", "product:delete",
				"order:read", "order:update",
				"category:manage",
				PermissionApproveVendor,
			},
			IsDefault: true,
		},
		{
			Name:        RoleSubAdmin,
			Description: "Sub Administrator with limited permissions",
			Permissions: Permissions{
				"user:read",
				"product:read", "product:update",
				"order:read", "order:update",
			},
			IsDefault: true,
		},
		{
			Name:        RoleVendor,
			Description: "Vendor managing their own store",
			Permissions: Permissions{
				"product:create", "product:update", "product:delete:own",
				"order:read:own", "order:update:status",
			},
			IsDefault: true,
		},
		{
			Name:        RoleCustomer,
			Description: "Regular customer",
			Permissions: Permissions{
				"order:create", "order:read:own", "order:cancel:own",
				"review:create", "review:update:own", "review:delete:own",
			},
			IsDefault: true,
		},
	}
}
