package repository

import (
	"context"
	"time"

	"erpcrm/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Period is a half-open time range [Start, End)
type Period struct {
	Start time.Time
	End   time.Time
}

// DashboardRepository runs the read-only aggregates behind the dashboard KPIs
type DashboardRepository interface {
	SumSalesTotal(ctx context.Context, p Period) (decimal.Decimal, error)
	CountSalesOrders(ctx context.Context, p Period, statuses ...string) (int64, error)
	CountNewClients(ctx context.Context, p Period) (int64, error)
	CountNewVendors(ctx context.Context, p Period) (int64, error)
	// SalesOrdersForProfit returns orders in the given statuses with their items
	SalesOrdersForProfit(ctx context.Context, p Period, statuses ...string) ([]model.SalesOrder, error)
	InventoryValueAt(ctx context.Context, at time.Time) (decimal.Decimal, error)
	SumPurchaseTotal(ctx context.Context, p Period) (decimal.Decimal, error)
	SumPaidPayables(ctx context.Context, p Period) (decimal.Decimal, error)
	SumReceivedReceivables(ctx context.Context, p Period) (decimal.Decimal, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

type sumResult struct {
	Value decimal.Decimal
}

func sum(q *gorm.DB, expr string) (decimal.Decimal, error) {
	var res sumResult
	if err := q.Select("COALESCE(SUM(" + expr + "), 0) AS value").Scan(&res).Error; err != nil {
		return decimal.Zero, err
	}
	return res.Value, nil
}

func (r *dashboardRepository) orders(ctx context.Context, p Period) *gorm.DB {
	return GetDB(ctx, r.db).Model(&model.SalesOrder{}).
		Where("order_date >= ? AND order_date < ?", p.Start, p.End)
}

func (r *dashboardRepository) SumSalesTotal(ctx context.Context, p Period) (decimal.Decimal, error) {
	return sum(r.orders(ctx, p).Where("status <> ?", model.SalesStatusCancelled), "total")
}

// CountSalesOrders counts orders in the given statuses, or every non-cancelled order when none are given
func (r *dashboardRepository) CountSalesOrders(ctx context.Context, p Period, statuses ...string) (int64, error) {
	var count int64
	q := r.orders(ctx, p)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	} else {
		q = q.Where("status <> ?", model.SalesStatusCancelled)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountNewClients(ctx context.Context, p Period) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Client{}).
		Where("created_at >= ? AND created_at < ?", p.Start, p.End).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountNewVendors(ctx context.Context, p Period) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Vendor{}).
		Where("created_at >= ? AND created_at < ?", p.Start, p.End).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) SalesOrdersForProfit(ctx context.Context, p Period, statuses ...string) ([]model.SalesOrder, error) {
	var orders []model.SalesOrder
	err := GetDB(ctx, r.db).Preload("Items").
		Where("order_date >= ? AND order_date < ?", p.Start, p.End).
		Where("status IN ?", statuses).
		Find(&orders).Error
	return orders, err
}

func (r *dashboardRepository) InventoryValueAt(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	q := GetDB(ctx, r.db).Unscoped().Model(&model.Product{}).
		Where("created_at < ?", at).
		Where("deleted_at IS NULL OR deleted_at >= ?", at)
	return sum(q, "cost_price * stock")
}

func (r *dashboardRepository) SumPurchaseTotal(ctx context.Context, p Period) (decimal.Decimal, error) {
	q := GetDB(ctx, r.db).Model(&model.PurchaseOrder{}).
		Where("order_date >= ? AND order_date < ?", p.Start, p.End).
		Where("status <> ?", model.PurchaseStatusCancelled)
	return sum(q, "total")
}

func (r *dashboardRepository) SumPaidPayables(ctx context.Context, p Period) (decimal.Decimal, error) {
	q := GetDB(ctx, r.db).Model(&model.Payable{}).
		Where("status = ?", model.PayableStatusPaid).
		Where("payment_date >= ? AND payment_date < ?", p.Start, p.End)
	return sum(q, "amount")
}

func (r *dashboardRepository) SumReceivedReceivables(ctx context.Context, p Period) (decimal.Decimal, error) {
	q := GetDB(ctx, r.db).Model(&model.Receivable{}).
		Where("status = ?", model.ReceivableStatusReceived).
		Where("payment_date >= ? AND payment_date < ?", p.Start, p.End)
	return sum(q, "amount")
}
