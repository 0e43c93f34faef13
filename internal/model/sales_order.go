package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	SalesStatusPending    = "pending"
	SalesStatusProcessing = "processing"
	SalesStatusCompleted  = "completed"
	SalesStatusCancelled  = "cancelled"
)

// SalesOrder is a sale to a client, optionally credited to a vendor.
// Monetary aggregates are stored so reports keep working when items are missing.
type SalesOrder struct {
	Base
	Code               string            `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	ClientID           uuid.UUID         `gorm:"type:uuid;not null;index" json:"client_id"`
	Client             *Client           `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	VendorID           *uuid.UUID        `gorm:"type:uuid;index" json:"vendor_id"`
	Vendor             *Vendor           `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	PaymentConditionID *uuid.UUID        `gorm:"type:uuid;index" json:"payment_condition_id"`
	PaymentCondition   *PaymentCondition `gorm:"foreignKey:PaymentConditionID" json:"payment_condition,omitempty"`
	UserID             *uuid.UUID        `gorm:"type:uuid;index" json:"user_id"`
	Status             string            `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	OrderDate          time.Time         `gorm:"not null;index" json:"order_date"`
	Subtotal           decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"subtotal"`
	Discount           decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"discount"`
	DeliveryCost       decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"delivery_cost"`
	ProductCost        decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"product_cost"`
	Commission         decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"commission"`
	Total              decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"total"`
	Notes              string            `gorm:"type:text" json:"notes"`
	Items              []ItemSalesOrder  `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE" json:"items"`
	DeletedAt          gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

// ItemSalesOrder is a sales order line; Subtotal is always Quantity x UnitPrice
type ItemSalesOrder struct {
	Base
	SalesOrderID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"sales_order_id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product          *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity         int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"unit_cost"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"commission_rate"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"commission_amount"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`
}

// BeforeSave keeps Subtotal consistent with Quantity and UnitPrice
func (i *ItemSalesOrder) BeforeSave(_ *gorm.DB) error {
	i.Subtotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
	return nil
}
