package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PayableStatusOpen      = "open"
	PayableStatusPaid      = "paid"
	PayableStatusCancelled = "cancelled"
)

// Payable is money owed to a partner
type Payable struct {
	Base
	PartnerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"partner_id"`
	Partner        *Partner        `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	BankAccountID  *uuid.UUID      `gorm:"type:uuid;index" json:"bank_account_id"`
	BankAccount    *BankAccount    `gorm:"foreignKey:BankAccountID" json:"bank_account,omitempty"`
	UserID         *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	Description    string          `gorm:"type:varchar(255);not null" json:"description"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status         string          `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	IssueDate      time.Time       `gorm:"not null" json:"issue_date"`
	DueDate        time.Time       `gorm:"not null;index" json:"due_date"`
	PaymentDate    *time.Time      `gorm:"index" json:"payment_date"`
	DocumentNumber string          `gorm:"type:varchar(100)" json:"document_number"`
	Notes          string          `gorm:"type:text" json:"notes"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
