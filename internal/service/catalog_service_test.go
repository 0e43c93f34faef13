package service

import (
	"context"
	"fmt"
	"testing"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Cadeira Ergonômica":    "cadeira-ergonomica",
		"  Mesa -- de  Jantar ": "mesa-de-jantar",
		"Ação & Reação!":        "acao-reacao",
		"***":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCategoryService_Slugs(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(f.categories, f.audit, f.tx)
	ctx := context.Background()

	first, err := svc.Create(ctx, "", CategoryRequest{Name: "Escritório"})
	require.NoError(t, err)
	assert.Equal(t, "escritorio", first.Slug)

	second, err := svc.Create(ctx, "", CategoryRequest{Name: "Escritorio"})
	require.NoError(t, err)
	assert.Equal(t, "escritorio-1", second.Slug)

	// soft-deleted rows still hold their slug
	require.NoError(t, svc.Delete(ctx, "", second.ID.String()))
	third, err := svc.Create(ctx, "", CategoryRequest{Name: "Escritorio"})
	require.NoError(t, err)
	assert.Equal(t, "escritorio-2", third.Slug)

	_, err = svc.Create(ctx, "", CategoryRequest{Name: "Other", Slug: "Escritorio"})
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "slug", fieldErr.Field)

	symbols, err := svc.Create(ctx, "", CategoryRequest{Name: "!!!"})
	require.NoError(t, err)
	assert.Equal(t, "category", symbols.Slug)

	renamed, err := svc.Update(ctx, "", first.ID.String(), CategoryRequest{Name: "Home office"})
	require.NoError(t, err)
	assert.Equal(t, "home-office", renamed.Slug)

	// updating with its own slug is not a collision
	same, err := svc.Update(ctx, "", first.ID.String(), CategoryRequest{Name: "Home office", Slug: "home-office"})
	require.NoError(t, err)
	assert.Equal(t, "home-office", same.Slug)

	assert.EqualValues(t, 4, f.auditCount(t, "category", model.ActionCreate))
}

// staleSlugRepo reports the first slug it is asked about as free, like a reader
// that lost the race against a concurrent insert
type staleSlugRepo struct {
	repository.CategoryRepository
	probes int
}

func (r *staleSlugRepo) SlugExists(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	r.probes++
	if r.probes == 1 {
		return false, nil
	}
	return r.CategoryRepository.SlugExists(ctx, slug, exclude)
}

func TestCategoryService_SlugRetriesOnDuplicateKey(t *testing.T) {
	ctx := context.Background()

	t.Run("generated slug is re-probed", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewCategoryService(f.categories, f.audit, f.tx).Create(ctx, "", CategoryRequest{Name: "Chairs"})
		require.NoError(t, err)

		repo := &staleSlugRepo{CategoryRepository: f.categories}
		category, err := NewCategoryService(repo, f.audit, f.tx).Create(ctx, "", CategoryRequest{Name: "Chairs"})
		require.NoError(t, err)
		assert.Equal(t, "chairs-1", category.Slug)
		assert.Equal(t, 3, repo.probes, "stale probe, then chairs and chairs-1")
		assert.EqualValues(t, 2, f.auditCount(t, "category", model.ActionCreate), "the failed insert left no audit row")
	})

	t.Run("supplied slug is not retried", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewCategoryService(f.categories, f.audit, f.tx).Create(ctx, "", CategoryRequest{Name: "Chairs"})
		require.NoError(t, err)

		repo := &staleSlugRepo{CategoryRepository: f.categories}
		category, err := NewCategoryService(repo, f.audit, f.tx).Create(ctx, "", CategoryRequest{Name: "Seating", Slug: "chairs"})
		assert.ErrorIs(t, err, ErrConflict)
		assert.Nil(t, category)
		assert.Equal(t, 1, repo.probes)
	})
}

func TestWriteWithSlug_GivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := writeWithSlug(context.Background(),
		func(context.Context) (bool, error) { return true, nil },
		func(context.Context) error {
			attempts++
			return fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)
		},
	)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	assert.Equal(t, maxSlugAttempts, attempts)
}

func TestProductService_Create(t *testing.T) {
	f := newFixture(t)
	categories := NewCategoryService(f.categories, f.audit, f.tx)
	svc := NewProductService(f.products, f.categories, f.stock, f.audit, f.tx, f.notifier)
	ctx := context.Background()

	category, err := categories.Create(ctx, "", CategoryRequest{Name: "Chairs"})
	require.NoError(t, err)
	categoryID := category.ID.String()

	product, err := svc.Create(ctx, "", ProductRequest{
		CategoryID: &categoryID,
		Name:       "Office Chair",
		CostPrice:  dec("80.005"),
		SalePrice:  dec("150"),
		Stock:      12,
	})
	require.NoError(t, err)
	assert.Equal(t, "office-chair", product.Slug)
	assert.Equal(t, "80.01", product.CostPrice.StringFixed(2))
	assert.Equal(t, []string{"product"}, f.notifier.Sources())

	movements, total, err := svc.StockMovements(ctx, product.ID.String(), pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, model.StockIn, movements[0].Type)
	assert.Equal(t, 12, movements[0].StockAfter)

	// stock is only moved by orders
	updated, err := svc.Update(ctx, "", product.ID.String(), ProductRequest{Name: "Office Chair", SalePrice: dec("160"), Stock: 99})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Stock)
	assert.Nil(t, updated.CategoryID)
	assert.Equal(t, "office-chair", updated.Slug)

	missing := "0b3a4a0c-1d2e-4f50-8a6b-7c8d9e0f1a2b"
	tests := []struct {
		name  string
		req   ProductRequest
		field string
	}{
		{"unknown category", ProductRequest{Name: "X", CategoryID: &missing}, "category_id"},
		{"negative price", ProductRequest{Name: "X", SalePrice: dec("-1")}, "sale_price"},
		{"commission above 100", ProductRequest{Name: "X", CommissionRate: ptr(dec("120"))}, "commission_rate"},
		{"negative stock", ProductRequest{Name: "X", Stock: -1}, "stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "", tt.req)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}
}
