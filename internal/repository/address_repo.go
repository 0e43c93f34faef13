package repository

import (
	"context"

	"erpcrm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddressRepository manages the polymorphic addresses of partners and clients
type AddressRepository interface {
	Replace(ctx context.Context, ownerType string, ownerID uuid.UUID, addresses []model.Address) error
	DeleteByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) error
}

type addressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepository{db: db}
}

// Replace deletes the owner's addresses and inserts the new set
func (r *addressRepository) Replace(ctx context.Context, ownerType string, ownerID uuid.UUID, addresses []model.Address) error {
	if err := r.DeleteByOwner(ctx, ownerType, ownerID); err != nil {
		return err
	}
	if len(addresses) == 0 {
		return nil
	}
	for i := range addresses {
		addresses[i].AddressableType = ownerType
		addresses[i].AddressableID = ownerID
	}
	return GetDB(ctx, r.db).Create(&addresses).Error
}

func (r *addressRepository) DeleteByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("addressable_type = ? AND addressable_id = ?", ownerType, ownerID).
		Delete(&model.Address{}).Error
}
