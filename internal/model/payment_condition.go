package model

import "gorm.io/gorm"

// PaymentCondition describes how an order is paid, e.g. "3x every 30 days"
type PaymentCondition struct {
	Base
	Name                    string         `gorm:"type:varchar(255);not null" json:"name"`
	Installments            int            `gorm:"type:int;not null;default:1" json:"installments"`
	DaysBetweenInstallments int            `gorm:"type:int;not null;default:0" json:"days_between_installments"`
	IsActive                bool           `gorm:"default:true" json:"is_active"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}
