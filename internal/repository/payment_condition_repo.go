package repository

import (
	"context"

	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"gorm.io/gorm"
)

type PaymentConditionRepository interface {
	SoftDeleteRepository[model.PaymentCondition]
	List(ctx context.Context, active *bool, p pagination.Params) ([]model.PaymentCondition, int64, error)
}

type paymentConditionRepository struct {
	softDeleteRepository[model.PaymentCondition]
}

func NewPaymentConditionRepository(db *gorm.DB) PaymentConditionRepository {
	return &paymentConditionRepository{newSoftDeleteRepository[model.PaymentCondition](db)}
}

func (r *paymentConditionRepository) List(ctx context.Context, active *bool, p pagination.Params) ([]model.PaymentCondition, int64, error) {
	return r.list(ctx, p, "installments ASC, name ASC", Active(active), Search(p.Search, "name"))
}
