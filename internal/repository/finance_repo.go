package repository

import (
	"context"

	"erpcrm/internal/database"
	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"

	"gorm.io/gorm"
)

// FinanceFilter narrows payable and receivable listings
type FinanceFilter struct {
	Status    string
	PartnerID string
	Overdue   bool
}

func (f FinanceFilter) scopes(openStatus string) []func(*gorm.DB) *gorm.DB {
	overdue := func(db *gorm.DB) *gorm.DB {
		if !f.Overdue {
			return db
		}
		return db.Where("status = ? AND due_date < CURRENT_TIMESTAMP", openStatus)
	}
	return []func(*gorm.DB) *gorm.DB{
		Equals("status", f.Status),
		Equals("partner_id", f.PartnerID),
		overdue,
	}
}

type PayableRepository interface {
	SoftDeleteRepository[model.Payable]
	List(ctx context.Context, filter FinanceFilter, p pagination.Params) ([]model.Payable, int64, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payable, error)
}

type payableRepository struct {
	softDeleteRepository[model.Payable]
}

func NewPayableRepository(db *gorm.DB) PayableRepository {
	return &payableRepository{newSoftDeleteRepository[model.Payable](db, "Partner", "BankAccount")}
}

func (r *payableRepository) List(ctx context.Context, filter FinanceFilter, p pagination.Params) ([]model.Payable, int64, error) {
	scopes := append(filter.scopes(model.PayableStatusOpen), Search(p.Search, database.FullTextColumns["payables"]...))
	return r.list(ctx, p, "due_date ASC", scopes...)
}

type ReceivableRepository interface {
	SoftDeleteRepository[model.Receivable]
	List(ctx context.Context, filter FinanceFilter, p pagination.Params) ([]model.Receivable, int64, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Receivable, error)
}

type receivableRepository struct {
	softDeleteRepository[model.Receivable]
}

func NewReceivableRepository(db *gorm.DB) ReceivableRepository {
	return &receivableRepository{newSoftDeleteRepository[model.Receivable](db, "Partner", "BankAccount")}
}

func (r *receivableRepository) List(ctx context.Context, filter FinanceFilter, p pagination.Params) ([]model.Receivable, int64, error) {
	scopes := append(filter.scopes(model.ReceivableStatusPending), Search(p.Search, database.FullTextColumns["receivables"]...))
	return r.list(ctx, p, "due_date ASC", scopes...)
}

func (r *payableRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payable, error) {
	return r.lockByID(ctx, id)
}

func (r *receivableRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Receivable, error) {
	return r.lockByID(ctx, id)
}
