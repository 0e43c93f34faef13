package model

import (
	"time"

	"gorm.io/gorm"
)

// Client is an individual customer of the sales team
type Client struct {
	Base
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Document  string         `gorm:"type:varchar(50);index" json:"document"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	BirthDate *time.Time     `json:"birth_date"`
	Notes     string         `gorm:"type:text" json:"notes"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	Addresses []Address      `gorm:"polymorphic:Addressable;" json:"addresses"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
