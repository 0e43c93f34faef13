package model

import "github.com/google/uuid"

const (
	StockIn  = "in"
	StockOut = "out"
)

const (
	StockRefSalesOrder    = "sales_order"
	StockRefPurchaseOrder = "purchase_order"
)

// StockMovement is the stock ledger ("kardex") of a product
type StockMovement struct {
	Base
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	Type          string     `gorm:"type:varchar(10);not null" json:"type"`
	Quantity      int        `gorm:"type:int;not null" json:"quantity"`
	StockAfter    int        `gorm:"type:int;not null" json:"stock_after"`
	ReferenceType string     `gorm:"type:varchar(30)" json:"reference_type"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid;index" json:"reference_id"`
	UserID        *uuid.UUID `gorm:"type:uuid" json:"user_id"`
}
