package model

// RoleAdmin bypasses permission checks
const RoleAdmin = "admin"

// Role represents a user role with associated permissions
type Role struct {
	Base
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // built-in roles cannot be deleted
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
}

// Permission represents a single permission that can be assigned to roles
type Permission struct {
	Base
	Code  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "products.force_delete"
	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Group string `gorm:"type:varchar(50);not null;index" json:"group"`
}
