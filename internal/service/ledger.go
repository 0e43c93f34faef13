package service

import (
	"context"
	"fmt"
	"slices"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ledger keeps bank balances in step with balance movements
type ledger struct {
	accountRepo repository.BankAccountRepository
}

// effects returns the balance delta per account a movement causes
func (l ledger) effects(m *model.BalanceMovement) (map[uuid.UUID]decimal.Decimal, error) {
	switch m.Type {
	case model.MovementInput:
		return map[uuid.UUID]decimal.Decimal{m.BankAccountID: m.Amount}, nil
	case model.MovementOutput:
		return map[uuid.UUID]decimal.Decimal{m.BankAccountID: m.Amount.Neg()}, nil
	case model.MovementTransfer:
		if m.DestinationAccountID == nil {
			return nil, fieldError("destination_account_id", "is required for transfers")
		}
		if *m.DestinationAccountID == m.BankAccountID {
			return nil, fieldError("destination_account_id", "must differ from the source account")
		}
		return map[uuid.UUID]decimal.Decimal{
			m.BankAccountID:         m.Amount.Neg(),
			*m.DestinationAccountID: m.Amount,
		}, nil
	default:
		return nil, fieldError("type", fmt.Sprintf("unknown movement type %q", m.Type))
	}
}

// adjust locks the touched accounts in id order and applies sign x delta to each
func (l ledger) adjust(ctx context.Context, deltas map[uuid.UUID]decimal.Decimal, sign int64) error {
	ids := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })

	for _, id := range ids {
		if _, err := l.accountRepo.FindByIDForUpdate(ctx, id); err != nil {
			return translate(err, "bank_account")
		}
		if err := l.accountRepo.AdjustBalance(ctx, id, deltas[id].Mul(decimal.NewFromInt(sign))); err != nil {
			return translate(err, "bank_account")
		}
	}
	return nil
}

// post validates and stores m, then moves the balances
func (l ledger) post(ctx context.Context, m *model.BalanceMovement) error {
	if !m.Amount.IsPositive() {
		return fieldError("amount", "must be greater than zero")
	}
	m.Amount = m.Amount.Round(2)
	deltas, err := l.effects(m)
	if err != nil {
		return err
	}
	if err := l.adjust(ctx, deltas, 1); err != nil {
		return err
	}
	if err := l.accountRepo.CreateMovement(ctx, m); err != nil {
		return fmt.Errorf("failed to create balance movement: %w", err)
	}
	return nil
}

// reverse undoes the balance effect of m and deletes it
func (l ledger) reverse(ctx context.Context, m *model.BalanceMovement) error {
	deltas, err := l.effects(m)
	if err != nil {
		return err
	}
	if err := l.adjust(ctx, deltas, -1); err != nil {
		return err
	}
	return translate(l.accountRepo.DeleteMovement(ctx, m.ID), "balance_movement")
}

// reverseReferenced undoes every movement posted for a payable or receivable
func (l ledger) reverseReferenced(ctx context.Context, column string, refID uuid.UUID) error {
	movements, err := l.accountRepo.FindMovementsByReference(ctx, column, refID)
	if err != nil {
		return fmt.Errorf("failed to load balance movements: %w", err)
	}
	for i := range movements {
		if err := l.reverse(ctx, &movements[i]); err != nil {
			return err
		}
	}
	return nil
}
