package models

import "gorm.io/gorm"

// Role determines which inventory operations a user may perform.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleClerk   Role = "clerk"
)

// User represents a member of staff who can sign in to the shop.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       Role   `json:"role" gorm:"type:varchar(20);default:clerk" validate:"required,oneof=admin manager clerk"`
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// PermissionSet lists the operations a role is allowed to perform.
type PermissionSet struct {
	CanView    bool `json:"canView"`
	CanSell    bool `json:"canSell"`
	CanAdd     bool `json:"canAdd"`
	CanEdit    bool `json:"canEdit"`
	CanDelete  bool `json:"canDelete"`
	CanRestock bool `json:"canRestock"`
	CanExport  bool `json:"canExport"`
	CanImport  bool `json:"canImport"`
}

// Permissions returns the fixed permission set for the role. Unknown roles
// fall back to the clerk permissions.
func (r Role) Permissions() PermissionSet {
	switch r {
	case RoleAdmin:
		return PermissionSet{
			CanView:    true,
			CanSell:    true,
			CanAdd:     true,
			CanEdit:    true,
			CanDelete:  true,
			CanRestock: true,
			CanExport:  true,
			CanImport:  true,
		}
	case RoleManager:
		return PermissionSet{
			CanView:    true,
			CanSell:    true,
			CanAdd:     true,
			CanEdit:    true,
			CanRestock: true,
			CanExport:  true,
			CanImport:  true,
		}
	default:
		return PermissionSet{
			CanView: true,
			CanSell: true,
		}
	}
}
