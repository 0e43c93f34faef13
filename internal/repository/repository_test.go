package repository

import (
	"context"
	"testing"
	"time"

	"erpcrm/internal/database"
	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSoftDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewClientRepository(newSQLiteDB(t))

	c := &model.Client{Name: "Maria Silva", Email: "maria@example.com", IsActive: true}
	require.NoError(t, repo.Create(ctx, c))
	require.NotEqual(t, "", c.ID.String())

	require.NoError(t, repo.Delete(ctx, c.ID))

	_, err := repo.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	trashed, err := repo.FindWithTrashed(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, trashed.DeletedAt.Valid)

	only, total, err := repo.List(ctx, ClientFilter{}, pagination.Params{Page: 1, Limit: 10, Trashed: pagination.TrashedOnly})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, only, 1)

	require.NoError(t, repo.Restore(ctx, c.ID))
	assert.ErrorIs(t, repo.Restore(ctx, c.ID), gorm.ErrRecordNotFound, "restoring a live row is a miss")

	require.NoError(t, repo.ForceDelete(ctx, c.ID))
	_, err = repo.FindWithTrashed(ctx, c.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSearchFallsBackToLikeOnSQLite(t *testing.T) {
	ctx := context.Background()
	repo := NewPartnerRepository(newSQLiteDB(t))

	require.NoError(t, repo.Create(ctx, &model.Partner{Name: "Acme Tools", Type: model.PartnerTypeSupplier, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &model.Partner{Name: "Beta Foods", Type: model.PartnerTypeBoth, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &model.Partner{Name: "Gamma", Type: model.PartnerTypeClient, IsActive: true}))

	found, total, err := repo.List(ctx, PartnerFilter{}, pagination.Params{Page: 1, Limit: 10, Search: "ACME"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Acme Tools", found[0].Name)

	found, total, err = repo.List(ctx, PartnerFilter{}, pagination.Params{Page: 1, Limit: 10, Search: "ood"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "the term matches anywhere in the name")
	assert.Equal(t, "Beta Foods", found[0].Name)

	suppliers, total, err := repo.List(ctx, PartnerFilter{Type: model.PartnerTypeSupplier}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "both-type partners count as suppliers")
	assert.Len(t, suppliers, 2)
}

func TestSlugExistsSeesTrashedRows(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(newSQLiteDB(t))

	cat := &model.ProductCategory{Name: "Tools", Slug: "tools"}
	require.NoError(t, repo.Create(ctx, cat))
	require.NoError(t, repo.Delete(ctx, cat.ID))

	exists, err := repo.SlugExists(ctx, "tools", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists(ctx, "tools", cat.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestProductRepository_AdjustStock(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(newSQLiteDB(t))

	p := &model.Product{Name: "Widget", Slug: "widget", Stock: 5, CostPrice: decimal.NewFromInt(2)}
	require.NoError(t, repo.Create(ctx, p))

	stock, err := repo.AdjustStock(ctx, p.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, stock)

	_, err = repo.AdjustStock(ctx, p.ID, -3)
	assert.Error(t, err)
}

func TestDashboardRepository_Aggregates(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewDashboardRepository(db)

	jan := Period{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	client := &model.Client{Name: "Maria"}
	require.NoError(t, db.Create(client).Error)

	orders := []model.SalesOrder{
		{Code: "SO-1", ClientID: client.ID, Status: model.SalesStatusCompleted, OrderDate: jan.Start.Add(24 * time.Hour), Total: decimal.RequireFromString("100.50")},
		{Code: "SO-2", ClientID: client.ID, Status: model.SalesStatusCancelled, OrderDate: jan.Start.Add(48 * time.Hour), Total: decimal.NewFromInt(40)},
		{Code: "SO-3", ClientID: client.ID, Status: model.SalesStatusPending, OrderDate: jan.End, Total: decimal.NewFromInt(999)},
	}
	require.NoError(t, db.Create(&orders).Error)

	total, err := repo.SumSalesTotal(ctx, jan)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100.50").Equal(total), total.String())

	count, err := repo.CountSalesOrders(ctx, jan)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	cancelled, err := repo.CountSalesOrders(ctx, jan, model.SalesStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cancelled)

	empty, err := repo.SumReceivedReceivables(ctx, jan)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
