package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusReceived  = "received"
	PurchaseStatusCancelled = "cancelled"
)

// PurchaseOrder is a purchase from a supplier partner
type PurchaseOrder struct {
	Base
	Code               string              `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	PartnerID          uuid.UUID           `gorm:"type:uuid;not null;index" json:"partner_id"`
	Partner            *Partner            `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	PaymentConditionID *uuid.UUID          `gorm:"type:uuid;index" json:"payment_condition_id"`
	PaymentCondition   *PaymentCondition   `gorm:"foreignKey:PaymentConditionID" json:"payment_condition,omitempty"`
	UserID             *uuid.UUID          `gorm:"type:uuid;index" json:"user_id"`
	Status             string              `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	OrderDate          time.Time           `gorm:"not null;index" json:"order_date"`
	ExpectedDate       *time.Time          `json:"expected_date"`
	Subtotal           decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0" json:"subtotal"`
	Discount           decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0" json:"discount"`
	ShippingCost       decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0" json:"shipping_cost"`
	Total              decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0" json:"total"`
	Notes              string              `gorm:"type:text" json:"notes"`
	Items              []ItemPurchaseOrder `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE" json:"items"`
	DeletedAt          gorm.DeletedAt      `gorm:"index" json:"deleted_at,omitempty"`
}

// ItemPurchaseOrder is a purchase order line
type ItemPurchaseOrder struct {
	Base
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity        int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`
}

func (i *ItemPurchaseOrder) BeforeSave(_ *gorm.DB) error {
	i.Subtotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
	return nil
}
