package service

import (
	"context"
	"fmt"
	"time"

	"erpcrm/internal/export"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinanceRequest creates or replaces a payable or receivable
type FinanceRequest struct {
	PartnerID      string          `json:"partner_id" binding:"required,uuid"`
	BankAccountID  *string         `json:"bank_account_id" binding:"omitempty,uuid"`
	Description    string          `json:"description" binding:"required,max=255"`
	Amount         decimal.Decimal `json:"amount" binding:"money"`
	IssueDate      *time.Time      `json:"issue_date"`
	DueDate        time.Time       `json:"due_date" binding:"required"`
	DocumentNumber string          `json:"document_number" binding:"max=100"`
	Notes          string          `json:"notes"`
}

// SettleRequest pays a payable or receives a receivable
type SettleRequest struct {
	BankAccountID *string    `json:"bank_account_id" binding:"omitempty,uuid"`
	PaymentDate   *time.Time `json:"payment_date"`
}

// financeRefs resolves the partner and bank account of finance documents
type financeRefs struct {
	partnerRepo repository.PartnerRepository
	accountRepo repository.BankAccountRepository
}

// resolve checks req; partners of type excluded cannot hold the document
func (f financeRefs) resolve(ctx context.Context, req FinanceRequest, excluded string) (uuid.UUID, *uuid.UUID, time.Time, error) {
	if req.Description == "" {
		return uuid.Nil, nil, time.Time{}, fieldError("description", "is required")
	}
	if !req.Amount.IsPositive() {
		return uuid.Nil, nil, time.Time{}, fieldError("amount", "must be greater than zero")
	}
	if req.DueDate.IsZero() {
		return uuid.Nil, nil, time.Time{}, fieldError("due_date", "is required")
	}
	issue := effectiveDate(req.IssueDate, time.Time{})
	if req.DueDate.Before(issue.Truncate(24 * time.Hour)) {
		return uuid.Nil, nil, time.Time{}, fieldError("due_date", "must not be before the issue date")
	}

	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		return uuid.Nil, nil, time.Time{}, fieldError("partner_id", "must be a valid id")
	}
	partner, err := f.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return uuid.Nil, nil, time.Time{}, fieldError("partner_id", "does not exist")
	}
	if partner.Type == excluded {
		return uuid.Nil, nil, time.Time{}, fieldError("partner_id", "partner type "+partner.Type+" is not allowed here")
	}

	accountID, err := f.account(ctx, req.BankAccountID)
	if err != nil {
		return uuid.Nil, nil, time.Time{}, err
	}
	return partnerID, accountID, issue, nil
}

func (f financeRefs) account(ctx context.Context, id *string) (*uuid.UUID, error) {
	accountID, err := parseOptionalID(id, "bank_account_id")
	if err != nil || accountID == nil {
		return accountID, err
	}
	if _, err := f.accountRepo.FindByID(ctx, *accountID); err != nil {
		return nil, fieldError("bank_account_id", "does not exist")
	}
	return accountID, nil
}

// settleAccount picks the account a settlement posts to: the request's, else the document's
func (f financeRefs) settleAccount(ctx context.Context, req SettleRequest, current *uuid.UUID) (uuid.UUID, error) {
	accountID, err := f.account(ctx, req.BankAccountID)
	if err != nil {
		return uuid.Nil, err
	}
	if accountID == nil {
		accountID = current
	}
	if accountID == nil {
		return uuid.Nil, fieldError("bank_account_id", "is required to settle")
	}
	return *accountID, nil
}

func financeStatusError(entity, status, action string) error {
	return fmt.Errorf("cannot %s a %s %s: %w", action, status, entity, ErrInvalidTransition)
}

// financeRow is the exported view shared by payables and receivables
type financeRow struct {
	description string
	partner     *model.Partner
	account     *model.BankAccount
	amount      decimal.Decimal
	status      string
	issueDate   time.Time
	dueDate     time.Time
	paymentDate *time.Time
	document    string
}

func financeTable[T any](name string, docs []T, view func(T) financeRow) *export.Table {
	table := &export.Table{
		Name:   name,
		Header: []string{"description", "partner", "bank_account", "amount", "status", "issue_date", "due_date", "payment_date", "document_number"},
	}
	for _, doc := range docs {
		row := view(doc)
		partner, account := "", ""
		if row.partner != nil {
			partner = row.partner.Name
		}
		if row.account != nil {
			account = row.account.Name
		}
		table.Append(
			row.description, partner, account, export.Money(row.amount), row.status,
			export.Date(&row.issueDate), export.Date(&row.dueDate), export.Date(row.paymentDate), row.document,
		)
	}
	return table
}
