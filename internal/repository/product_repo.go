package repository

import (
	"context"
	"errors"
	"fmt"

	"erpcrm/internal/database"
	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a stock adjustment would go below zero
var ErrInsufficientStock = errors.New("insufficient stock")

type CategoryFilter struct {
	Active *bool
}

type CategoryRepository interface {
	SoftDeleteRepository[model.ProductCategory]
	List(ctx context.Context, filter CategoryFilter, p pagination.Params) ([]model.ProductCategory, int64, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
}

type categoryRepository struct {
	softDeleteRepository[model.ProductCategory]
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{newSoftDeleteRepository[model.ProductCategory](db)}
}

func (r *categoryRepository) List(ctx context.Context, filter CategoryFilter, p pagination.Params) ([]model.ProductCategory, int64, error) {
	return r.list(ctx, p, "name ASC",
		Active(filter.Active),
		Search(p.Search, database.FullTextColumns["product_categories"]...),
	)
}

func (r *categoryRepository) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	return r.slugExists(ctx, slug, exclude)
}

type ProductFilter struct {
	CategoryID string
	Active     *bool
	LowStock   bool
}

type ProductRepository interface {
	SoftDeleteRepository[model.Product]
	List(ctx context.Context, filter ProductFilter, p pagination.Params) ([]model.Product, int64, error)
	SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// AdjustStock adds delta to the stock of a locked product and returns the new level
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error)
}

type productRepository struct {
	softDeleteRepository[model.Product]
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{newSoftDeleteRepository[model.Product](db, "Category")}
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter, p pagination.Params) ([]model.Product, int64, error) {
	lowStock := func(db *gorm.DB) *gorm.DB {
		if !filter.LowStock {
			return db
		}
		return db.Where("stock <= min_stock")
	}
	return r.list(ctx, p, "name ASC",
		Equals("category_id", filter.CategoryID),
		Active(filter.Active),
		lowStock,
		Search(p.Search, database.FullTextColumns["products"]...),
	)
}

func (r *productRepository) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	return r.slugExists(ctx, slug, exclude)
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := forUpdate(GetDB(ctx, r.db)).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	product, err := r.FindByIDForUpdate(ctx, id)
	if err != nil {
		return 0, err
	}
	newStock := product.Stock + delta
	if newStock < 0 {
		return product.Stock, fmt.Errorf("%w for %s: have %d, need %d", ErrInsufficientStock, product.Name, product.Stock, -delta)
	}
	if err := GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("stock", newStock).Error; err != nil {
		return 0, err
	}
	return newStock, nil
}
