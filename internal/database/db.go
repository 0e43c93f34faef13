package database

import (
	"fmt"
	"strings"

	"erpcrm/internal/config"
	"erpcrm/internal/logger"
	"erpcrm/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Models lists every table managed by AutoMigrate, parents first
var Models = []any{
	&model.User{},
	&model.Role{},
	&model.Permission{},
	&model.AuditLog{},
	&model.Address{},
	&model.Partner{},
	&model.Client{},
	&model.Vendor{},
	&model.ProductCategory{},
	&model.Product{},
	&model.PaymentCondition{},
	&model.SalesOrder{},
	&model.ItemSalesOrder{},
	&model.PurchaseOrder{},
	&model.ItemPurchaseOrder{},
	&model.BankAccount{},
	&model.BalanceMovement{},
	&model.Payable{},
	&model.Receivable{},
	&model.StockMovement{},
}

// FullTextColumns lists the columns searched by each table's full-text index
var FullTextColumns = map[string][]string{
	"partners":           {"name", "company_name", "document", "email"},
	"clients":            {"name", "document", "email"},
	"vendors":            {"name", "email"},
	"products":           {"name", "sku", "description"},
	"product_categories": {"name", "description"},
	"payables":           {"description", "document_number"},
	"receivables":        {"description", "document_number"},
}

// NewConnection opens the configured database, migrates the schema and
// creates the Postgres-only full-text indexes.
func NewConnection(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DialectSQLite:
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.NewGormLogger(log, gormlogger.Warn, cfg.SlowQuery),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DialectSQLite {
		// a single connection keeps ":memory:" databases shared
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Database connected", zap.String("driver", cfg.Driver))
	return db, nil
}

// Migrate runs AutoMigrate and, on Postgres, the GIN full-text indexes
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if db.Dialector.Name() != DialectPostgres {
		return nil
	}
	for table, cols := range FullTextColumns {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_fulltext ON %s USING GIN (%s)", table, table, TSVector(cols...))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create full-text index on %s: %w", table, err)
		}
	}
	return nil
}

// TSVector builds the tsvector expression shared by the index and the search scope
func TSVector(cols ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("coalesce(%s, '')", c)
	}
	return fmt.Sprintf("to_tsvector('simple', %s)", strings.Join(parts, " || ' ' || "))
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}
