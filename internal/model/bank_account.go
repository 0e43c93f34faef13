package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MovementInput    = "input"
	MovementOutput   = "output"
	MovementTransfer = "transfer"
)

// BankAccount holds money; CurrentBalance only moves through BalanceMovement rows
type BankAccount struct {
	Base
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Bank           string          `gorm:"type:varchar(100)" json:"bank"`
	Agency         string          `gorm:"type:varchar(20)" json:"agency"`
	AccountNumber  string          `gorm:"type:varchar(50)" json:"account_number"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"initial_balance"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"current_balance"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}

// BalanceMovement is an input, output or transfer against a bank account
type BalanceMovement struct {
	Base
	BankAccountID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"bank_account_id"`
	BankAccount          *BankAccount    `gorm:"foreignKey:BankAccountID" json:"bank_account,omitempty"`
	DestinationAccountID *uuid.UUID      `gorm:"type:uuid;index" json:"destination_account_id"`
	DestinationAccount   *BankAccount    `gorm:"foreignKey:DestinationAccountID" json:"destination_account,omitempty"`
	Type                 string          `gorm:"type:varchar(20);not null" json:"type"`
	Amount               decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description          string          `gorm:"type:varchar(255)" json:"description"`
	MovementDate         time.Time       `gorm:"not null;index" json:"movement_date"`
	UserID               *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	PayableID            *uuid.UUID      `gorm:"type:uuid;index" json:"payable_id"`
	ReceivableID         *uuid.UUID      `gorm:"type:uuid;index" json:"receivable_id"`
}
