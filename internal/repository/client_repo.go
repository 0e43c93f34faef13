package repository

import (
	"context"

	"erpcrm/internal/database"
	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"gorm.io/gorm"
)

type ClientFilter struct {
	Active *bool
}

type ClientRepository interface {
	SoftDeleteRepository[model.Client]
	List(ctx context.Context, filter ClientFilter, p pagination.Params) ([]model.Client, int64, error)
}

type clientRepository struct {
	softDeleteRepository[model.Client]
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{newSoftDeleteRepository[model.Client](db, "Addresses")}
}

func (r *clientRepository) List(ctx context.Context, filter ClientFilter, p pagination.Params) ([]model.Client, int64, error) {
	return r.list(ctx, p, "name ASC",
		Active(filter.Active),
		Search(p.Search, database.FullTextColumns["clients"]...),
	)
}
