package repository

import (
	"context"
	"time"

	"erpcrm/internal/model"
	"erpcrm/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderFilter narrows sales and purchase order listings
type OrderFilter struct {
	Status   string
	PartyID  string // client for sales orders, supplier partner for purchase orders
	VendorID string
	DateFrom *time.Time
	DateTo   *time.Time
}

func (f OrderFilter) dateScope(db *gorm.DB) *gorm.DB {
	if f.DateFrom != nil {
		db = db.Where("order_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		db = db.Where("order_date < ?", *f.DateTo)
	}
	return db
}

type SalesOrderRepository interface {
	SoftDeleteRepository[model.SalesOrder]
	List(ctx context.Context, filter OrderFilter, p pagination.Params) ([]model.SalesOrder, int64, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.ItemSalesOrder) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type salesOrderRepository struct {
	softDeleteRepository[model.SalesOrder]
}

func NewSalesOrderRepository(db *gorm.DB) SalesOrderRepository {
	return &salesOrderRepository{newSoftDeleteRepository[model.SalesOrder](db, "Client", "Vendor", "PaymentCondition", "Items", "Items.Product")}
}

func (r *salesOrderRepository) List(ctx context.Context, filter OrderFilter, p pagination.Params) ([]model.SalesOrder, int64, error) {
	return r.list(ctx, p, "order_date DESC, created_at DESC",
		Equals("status", filter.Status),
		Equals("client_id", filter.PartyID),
		Equals("vendor_id", filter.VendorID),
		filter.dateScope,
		Search(p.Search, "code", "notes"),
	)
}

func (r *salesOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var order model.SalesOrder
	if err := forUpdate(GetDB(ctx, r.db)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("sales_order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *salesOrderRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.ItemSalesOrder) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("sales_order_id = ?", orderID).Delete(&model.ItemSalesOrder{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].SalesOrderID = orderID
	}
	return db.Create(&items).Error
}

func (r *salesOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.SalesOrder{}).Where("id = ?", id).Update("status", status).Error
}

type PurchaseOrderRepository interface {
	SoftDeleteRepository[model.PurchaseOrder]
	List(ctx context.Context, filter OrderFilter, p pagination.Params) ([]model.PurchaseOrder, int64, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.ItemPurchaseOrder) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type purchaseOrderRepository struct {
	softDeleteRepository[model.PurchaseOrder]
}

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{newSoftDeleteRepository[model.PurchaseOrder](db, "Partner", "PaymentCondition", "Items", "Items.Product")}
}

func (r *purchaseOrderRepository) List(ctx context.Context, filter OrderFilter, p pagination.Params) ([]model.PurchaseOrder, int64, error) {
	return r.list(ctx, p, "order_date DESC, created_at DESC",
		Equals("status", filter.Status),
		Equals("partner_id", filter.PartyID),
		filter.dateScope,
		Search(p.Search, "code", "notes"),
	)
}

func (r *purchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := forUpdate(GetDB(ctx, r.db)).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("purchase_order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseOrderRepository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []model.ItemPurchaseOrder) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("purchase_order_id = ?", orderID).Delete(&model.ItemPurchaseOrder{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].PurchaseOrderID = orderID
	}
	return db.Create(&items).Error
}

func (r *purchaseOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.PurchaseOrder{}).Where("id = ?", id).Update("status", status).Error
}
