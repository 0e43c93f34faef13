package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Vendor is a salesperson earning commission on sales orders
type Vendor struct {
	Base
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Email          string          `gorm:"type:varchar(255)" json:"email"`
	Phone          string          `gorm:"type:varchar(50)" json:"phone"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"` // percent
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
