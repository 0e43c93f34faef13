package model

import "gorm.io/gorm"

const (
	PartnerTypeClient   = "client"
	PartnerTypeSupplier = "supplier"
	PartnerTypeBoth     = "both"
)

// Partner represents a company acting as client, supplier, or both
type Partner struct {
	Base
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Type          string         `gorm:"type:varchar(20);not null;index" json:"type"`
	Document      string         `gorm:"type:varchar(50);index" json:"document"`
	CompanyName   string         `gorm:"type:varchar(255)" json:"company_name"`
	ContactPerson string         `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string         `gorm:"type:varchar(50)" json:"phone"`
	Email         string         `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	Addresses     []Address      `gorm:"polymorphic:Addressable;" json:"addresses"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
