package repository

import (
	"context"

	"erpcrm/internal/database"
	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"gorm.io/gorm"
)

// PartnerFilter narrows partner listings
type PartnerFilter struct {
	Type   string
	Active *bool
}

type PartnerRepository interface {
	SoftDeleteRepository[model.Partner]
	List(ctx context.Context, filter PartnerFilter, p pagination.Params) ([]model.Partner, int64, error)
}

type partnerRepository struct {
	softDeleteRepository[model.Partner]
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{newSoftDeleteRepository[model.Partner](db, "Addresses")}
}

func (r *partnerRepository) List(ctx context.Context, filter PartnerFilter, p pagination.Params) ([]model.Partner, int64, error) {
	typeScope := func(db *gorm.DB) *gorm.DB {
		switch filter.Type {
		case "":
			return db
		case model.PartnerTypeClient, model.PartnerTypeSupplier:
			// "both" partners show up under either side
			return db.Where("type IN ?", []string{filter.Type, model.PartnerTypeBoth})
		default:
			return db.Where("type = ?", filter.Type)
		}
	}
	return r.list(ctx, p, "created_at DESC",
		typeScope,
		Active(filter.Active),
		Search(p.Search, database.FullTextColumns["partners"]...),
	)
}
