package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductCategory groups products
type ProductCategory struct {
	Base
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Product represents an item in the catalog and its stock level
type Product struct {
	Base
	CategoryID     *uuid.UUID       `gorm:"type:uuid;index" json:"category_id"`
	Category       *ProductCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Name           string           `gorm:"type:varchar(255);not null" json:"name"`
	Slug           string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	SKU            string           `gorm:"type:varchar(100);index" json:"sku"`
	Description    string           `gorm:"type:text" json:"description"`
	CostPrice      decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"cost_price"`
	SalePrice      decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0" json:"sale_price"`
	Stock          int              `gorm:"type:int;not null;default:0" json:"stock"`
	MinStock       int              `gorm:"type:int;not null;default:0" json:"min_stock"`
	CommissionRate *decimal.Decimal `gorm:"type:decimal(5,2)" json:"commission_rate"` // percent, nil falls back to the vendor rate
	IsActive       bool             `gorm:"default:true" json:"is_active"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}
