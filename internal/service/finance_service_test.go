package service

import (
	"context"
	"testing"
	"time"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func financeRequest(partnerID, accountID, amount string) FinanceRequest {
	req := FinanceRequest{
		PartnerID:   partnerID,
		Description: "Office rent",
		Amount:      dec(amount),
		DueDate:     time.Now().AddDate(0, 0, 30),
	}
	if accountID != "" {
		req.BankAccountID = &accountID
	}
	return req
}

func TestPayableService_PayAndCancel(t *testing.T) {
	f := newFixture(t)
	svc := NewPayableService(f.payables, f.partners, f.accounts, f.audit, f.tx, f.notifier)
	bankSvc := NewBankAccountService(f.accounts, f.audit, f.tx)
	ctx := context.Background()

	supplier := f.partner(t, "Landlord Ltd", model.PartnerTypeSupplier)
	account := f.account(t, "Checking", "1000")

	payable, err := svc.Create(ctx, "", financeRequest(supplier.ID.String(), account.ID.String(), "300"))
	require.NoError(t, err)
	assert.Equal(t, model.PayableStatusOpen, payable.Status)
	assert.Equal(t, "1000.00", f.balance(t, account.ID.String()))

	paid, err := svc.Pay(ctx, "", payable.ID.String(), SettleRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.PayableStatusPaid, paid.Status)
	require.NotNil(t, paid.PaymentDate)
	assert.Equal(t, "700.00", f.balance(t, account.ID.String()))

	_, err = svc.Pay(ctx, "", payable.ID.String(), SettleRequest{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "700.00", f.balance(t, account.ID.String()))

	_, err = svc.Update(ctx, "", payable.ID.String(), financeRequest(supplier.ID.String(), "", "10"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, svc.Delete(ctx, "", payable.ID.String()), ErrInvalidTransition)

	movements, _, err := bankSvc.ListMovements(ctx, account.ID.String(), pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementOutput, movements[0].Type)
	require.NotNil(t, movements[0].PayableID)
	assert.Equal(t, payable.ID, *movements[0].PayableID)
	assert.ErrorIs(t, bankSvc.DeleteMovement(ctx, "", movements[0].ID.String()), ErrConflict)

	cancelled, err := svc.Cancel(ctx, "", payable.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.PayableStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.PaymentDate)
	assert.Equal(t, "1000.00", f.balance(t, account.ID.String()))

	_, total, err := bankSvc.ListMovements(ctx, account.ID.String(), pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = svc.Cancel(ctx, "", payable.ID.String())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.EqualValues(t, 1, f.auditCount(t, "payable", model.ActionPay))
	assert.EqualValues(t, 1, f.auditCount(t, "payable", model.ActionCancel))
	assert.Contains(t, f.notifier.Sources(), "payable")

	require.NoError(t, svc.Delete(ctx, "", payable.ID.String()))
}

func TestPayableService_PayNeedsAccount(t *testing.T) {
	f := newFixture(t)
	svc := NewPayableService(f.payables, f.partners, f.accounts, f.audit, f.tx, f.notifier)
	ctx := context.Background()

	supplier := f.partner(t, "Utility Co", model.PartnerTypeBoth)
	payable, err := svc.Create(ctx, "", financeRequest(supplier.ID.String(), "", "45.90"))
	require.NoError(t, err)

	_, err = svc.Pay(ctx, "", payable.ID.String(), SettleRequest{})
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "bank_account_id", fieldErr.Field)

	account := f.account(t, "Cash", "50")
	accountID := account.ID.String()
	paid, err := svc.Pay(ctx, "", payable.ID.String(), SettleRequest{BankAccountID: &accountID})
	require.NoError(t, err)
	require.NotNil(t, paid.BankAccountID)
	assert.Equal(t, account.ID, *paid.BankAccountID)
	assert.Equal(t, "4.10", f.balance(t, accountID))
}

func TestPayableService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewPayableService(f.payables, f.partners, f.accounts, f.audit, f.tx, f.notifier)
	ctx := context.Background()

	supplier := f.partner(t, "Supplier", model.PartnerTypeSupplier).ID.String()
	client := f.partner(t, "Client", model.PartnerTypeClient).ID.String()
	issued := time.Now()

	tests := []struct {
		name   string
		mutate func(*FinanceRequest)
		field  string
	}{
		{"client partner", func(r *FinanceRequest) { r.PartnerID = client }, "partner_id"},
		{"unknown partner", func(r *FinanceRequest) { r.PartnerID = "0b3a4a0c-1d2e-4f50-8a6b-7c8d9e0f1a2b" }, "partner_id"},
		{"missing description", func(r *FinanceRequest) { r.Description = "" }, "description"},
		{"zero amount", func(r *FinanceRequest) { r.Amount = dec("0") }, "amount"},
		{"missing due date", func(r *FinanceRequest) { r.DueDate = time.Time{} }, "due_date"},
		{"due before issue", func(r *FinanceRequest) {
			r.IssueDate = &issued
			r.DueDate = issued.AddDate(0, 0, -3)
		}, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := financeRequest(supplier, "", "10")
			tt.mutate(&req)
			_, err := svc.Create(ctx, "", req)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}

	_, total, err := svc.List(ctx, repository.FinanceFilter{}, pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestReceivableService_ReceiveAndCancel(t *testing.T) {
	f := newFixture(t)
	svc := NewReceivableService(f.receivables, f.partners, f.accounts, f.audit, f.tx, f.notifier)
	ctx := context.Background()

	customer := f.partner(t, "Acme", model.PartnerTypeClient)
	account := f.account(t, "Checking", "100")

	_, err := svc.Create(ctx, "", financeRequest(f.partner(t, "Only supplier", model.PartnerTypeSupplier).ID.String(), "", "10"))
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "partner_id", fieldErr.Field)

	receivable, err := svc.Create(ctx, "", financeRequest(customer.ID.String(), account.ID.String(), "250.25"))
	require.NoError(t, err)
	assert.Equal(t, model.ReceivableStatusPending, receivable.Status)

	received, err := svc.Receive(ctx, "", receivable.ID.String(), SettleRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.ReceivableStatusReceived, received.Status)
	assert.Equal(t, "350.25", f.balance(t, account.ID.String()))

	_, err = svc.Receive(ctx, "", receivable.ID.String(), SettleRequest{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, svc.Delete(ctx, "", receivable.ID.String()), ErrInvalidTransition)

	_, err = svc.Cancel(ctx, "", receivable.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "100.00", f.balance(t, account.ID.String()))
	assert.EqualValues(t, 1, f.auditCount(t, "receivable", model.ActionReceive))
}
