package model

import "gorm.io/gorm"

// User represents an operator of the back office
type User struct {
	Base
	Username  string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone     string         `gorm:"type:varchar(20)" json:"phone"`
	Password  string         `gorm:"type:varchar(255);not null" json:"-"`
	Role      string         `gorm:"type:varchar(50);not null;index" json:"role"` // references roles.name
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
