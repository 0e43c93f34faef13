package repository

import (
	"context"

	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMovementRepository records the stock ledger
type StockMovementRepository interface {
	Create(ctx context.Context, m *model.StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, p pagination.Params) ([]model.StockMovement, int64, error)
}

type stockMovementRepository struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) Create(ctx context.Context, m *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *stockMovementRepository) ListByProduct(ctx context.Context, productID uuid.UUID, p pagination.Params) ([]model.StockMovement, int64, error) {
	var (
		rows  []model.StockMovement
		total int64
	)
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.StockMovement{}).Where("product_id = ?", productID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Where("product_id = ?", productID).Order("created_at DESC").
		Offset(p.Offset).Limit(p.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
