package repository

import (
	"context"

	"erpcrm/internal/database"
	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"gorm.io/gorm"
)

type VendorFilter struct {
	Active *bool
}

type VendorRepository interface {
	SoftDeleteRepository[model.Vendor]
	List(ctx context.Context, filter VendorFilter, p pagination.Params) ([]model.Vendor, int64, error)
}

type vendorRepository struct {
	softDeleteRepository[model.Vendor]
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{newSoftDeleteRepository[model.Vendor](db)}
}

func (r *vendorRepository) List(ctx context.Context, filter VendorFilter, p pagination.Params) ([]model.Vendor, int64, error) {
	return r.list(ctx, p, "name ASC",
		Active(filter.Active),
		Search(p.Search, database.FullTextColumns["vendors"]...),
	)
}
