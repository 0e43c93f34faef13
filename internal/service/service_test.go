package service

import (
	"context"
	"sync"
	"testing"

	"erpcrm/internal/database"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
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

// recordingNotifier remembers every DataChanged source
type recordingNotifier struct {
	mu      sync.Mutex
	sources []string
}

func (n *recordingNotifier) DataChanged(_ context.Context, source string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sources = append(n.sources, source)
}

func (n *recordingNotifier) Sources() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sources...)
}

// fixture wires every repository against one in-memory database
type fixture struct {
	db             *gorm.DB
	tx             repository.TransactionManager
	audit          repository.AuditRepository
	addresses      repository.AddressRepository
	users          repository.UserRepository
	roles          repository.RoleRepository
	partners       repository.PartnerRepository
	clients        repository.ClientRepository
	vendors        repository.VendorRepository
	categories     repository.CategoryRepository
	products       repository.ProductRepository
	stock          repository.StockMovementRepository
	conditions     repository.PaymentConditionRepository
	salesOrders    repository.SalesOrderRepository
	purchaseOrders repository.PurchaseOrderRepository
	accounts       repository.BankAccountRepository
	payables       repository.PayableRepository
	receivables    repository.ReceivableRepository
	notifier       *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	return &fixture{
		db:             db,
		tx:             repository.NewTransactionManager(db),
		audit:          repository.NewAuditRepository(db),
		addresses:      repository.NewAddressRepository(db),
		users:          repository.NewUserRepository(db),
		roles:          repository.NewRoleRepository(db),
		partners:       repository.NewPartnerRepository(db),
		clients:        repository.NewClientRepository(db),
		vendors:        repository.NewVendorRepository(db),
		categories:     repository.NewCategoryRepository(db),
		products:       repository.NewProductRepository(db),
		stock:          repository.NewStockMovementRepository(db),
		conditions:     repository.NewPaymentConditionRepository(db),
		salesOrders:    repository.NewSalesOrderRepository(db),
		purchaseOrders: repository.NewPurchaseOrderRepository(db),
		accounts:       repository.NewBankAccountRepository(db),
		payables:       repository.NewPayableRepository(db),
		receivables:    repository.NewReceivableRepository(db),
		notifier:       &recordingNotifier{},
	}
}

func (f *fixture) auditCount(t *testing.T, entityType, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.AuditLog{}).
		Where("entity_type = ? AND action = ?", entityType, action).
		Count(&n).Error)
	return n
}

func (f *fixture) client(t *testing.T, name string) *model.Client {
	t.Helper()
	c := &model.Client{Name: name, IsActive: true}
	require.NoError(t, f.clients.Create(context.Background(), c))
	return c
}

func (f *fixture) vendor(t *testing.T, name string, rate int64) *model.Vendor {
	t.Helper()
	v := &model.Vendor{Name: name, CommissionRate: decimal.NewFromInt(rate), IsActive: true}
	require.NoError(t, f.vendors.Create(context.Background(), v))
	return v
}

func (f *fixture) partner(t *testing.T, name, partnerType string) *model.Partner {
	t.Helper()
	p := &model.Partner{Name: name, Type: partnerType, IsActive: true}
	require.NoError(t, f.partners.Create(context.Background(), p))
	return p
}

func (f *fixture) product(t *testing.T, slug string, cost, sale string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:      slug,
		Slug:      slug,
		CostPrice: decimal.RequireFromString(cost),
		SalePrice: decimal.RequireFromString(sale),
		Stock:     stock,
		IsActive:  true,
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) account(t *testing.T, name, balance string) *model.BankAccount {
	t.Helper()
	b := decimal.RequireFromString(balance)
	a := &model.BankAccount{Name: name, InitialBalance: b, CurrentBalance: b, IsActive: true}
	require.NoError(t, f.accounts.Create(context.Background(), a))
	return a
}

func (f *fixture) balance(t *testing.T, id string) string {
	t.Helper()
	var a model.BankAccount
	require.NoError(t, f.db.Unscoped().First(&a, "id = ?", id).Error)
	return a.CurrentBalance.StringFixed(2)
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
