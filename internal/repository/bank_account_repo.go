package repository

import (
	"context"

	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BankAccountRepository interface {
	SoftDeleteRepository[model.BankAccount]
	List(ctx context.Context, active *bool, p pagination.Params) ([]model.BankAccount, int64, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.BankAccount, error)
	// AdjustBalance adds delta (negative for withdrawals) to current_balance
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	CreateMovement(ctx context.Context, m *model.BalanceMovement) error
	FindMovement(ctx context.Context, id uuid.UUID) (*model.BalanceMovement, error)
	DeleteMovement(ctx context.Context, id uuid.UUID) error
	ListMovements(ctx context.Context, accountID uuid.UUID, p pagination.Params) ([]model.BalanceMovement, int64, error)
	FindMovementsByReference(ctx context.Context, column string, refID uuid.UUID) ([]model.BalanceMovement, error)
}

type bankAccountRepository struct {
	softDeleteRepository[model.BankAccount]
}

func NewBankAccountRepository(db *gorm.DB) BankAccountRepository {
	return &bankAccountRepository{newSoftDeleteRepository[model.BankAccount](db)}
}

func (r *bankAccountRepository) List(ctx context.Context, active *bool, p pagination.Params) ([]model.BankAccount, int64, error) {
	return r.list(ctx, p, "name ASC", Active(active), Search(p.Search, "name", "bank", "account_number"))
}

func (r *bankAccountRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.BankAccount, error) {
	return r.lockByID(ctx, id)
}

func (r *bankAccountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return rowsOrNotFound(GetDB(ctx, r.db).Unscoped().Model(&model.BankAccount{}).
		Where("id = ?", id).
		Update("current_balance", gorm.Expr("current_balance + ?", delta)))
}

func (r *bankAccountRepository) CreateMovement(ctx context.Context, m *model.BalanceMovement) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *bankAccountRepository) FindMovement(ctx context.Context, id uuid.UUID) (*model.BalanceMovement, error) {
	var m model.BalanceMovement
	if err := GetDB(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *bankAccountRepository) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	return rowsOrNotFound(GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.BalanceMovement{}))
}

// ListMovements returns movements where the account is the source or the transfer destination
func (r *bankAccountRepository) ListMovements(ctx context.Context, accountID uuid.UUID, p pagination.Params) ([]model.BalanceMovement, int64, error) {
	var (
		rows  []model.BalanceMovement
		total int64
	)
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("bank_account_id = ? OR destination_account_id = ?", accountID, accountID)
	}
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.BalanceMovement{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := db.Model(&model.BalanceMovement{}).Scopes(scope).Preload("DestinationAccount").Order("movement_date DESC, created_at DESC")
	if p.Limit > 0 {
		q = q.Offset(p.Offset).Limit(p.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *bankAccountRepository) FindMovementsByReference(ctx context.Context, column string, refID uuid.UUID) ([]model.BalanceMovement, error) {
	var rows []model.BalanceMovement
	if err := GetDB(ctx, r.db).Where(column+" = ?", refID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
