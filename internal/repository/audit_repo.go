package repository

import (
	"context"

	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"gorm.io/gorm"
)

// AuditFilter narrows the audit trail
type AuditFilter struct {
	EntityType string
	EntityID   string
	Action     string
	UserID     string
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter, p pagination.Params) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter, p pagination.Params) ([]model.AuditLog, int64, error) {
	var (
		logs  []model.AuditLog
		total int64
	)
	scopes := []func(*gorm.DB) *gorm.DB{
		Equals("entity_type", filter.EntityType),
		Equals("entity_id", filter.EntityID),
		Equals("action", filter.Action),
		Equals("user_id", filter.UserID),
	}

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.AuditLog{}).Scopes(scopes...).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Scopes(scopes...).Preload("User", func(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }).
		Order("created_at desc").Offset(p.Offset).Limit(p.Limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
