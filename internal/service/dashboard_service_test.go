package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"erpcrm/internal/cache"
	"erpcrm/internal/database"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monthValues holds a figure for the requested month and for the month before
type monthValues struct{ cur, prev decimal.Decimal }

func mv(cur, prev string) monthValues { return monthValues{dec(cur), dec(prev)} }

// fakeDashboardRepo answers with fixed figures depending on whether the period is the requested month
type fakeDashboardRepo struct {
	month time.Month

	sales, purchases, paid, received, inventory monthValues
	clients, vendors, orders, cancelled         [2]int64
	profitOrders                                [2][]model.SalesOrder

	calls   atomic.Int32
	fail    error
	onSales func()
}

func (f *fakeDashboardRepo) pick(p repository.Period) int {
	f.calls.Add(1)
	if p.Start.Month() == f.month {
		return 0
	}
	return 1
}

func (f *fakeDashboardRepo) value(p repository.Period, v monthValues) (decimal.Decimal, error) {
	if f.pick(p) == 0 {
		return v.cur, f.fail
	}
	return v.prev, f.fail
}

func (f *fakeDashboardRepo) SumSalesTotal(_ context.Context, p repository.Period) (decimal.Decimal, error) {
	if f.onSales != nil {
		f.onSales()
	}
	return f.value(p, f.sales)
}

func (f *fakeDashboardRepo) CountSalesOrders(_ context.Context, p repository.Period, statuses ...string) (int64, error) {
	i := f.pick(p)
	if len(statuses) == 1 && statuses[0] == model.SalesStatusCancelled {
		return f.cancelled[i], nil
	}
	return f.orders[i], nil
}

func (f *fakeDashboardRepo) CountNewClients(_ context.Context, p repository.Period) (int64, error) {
	return f.clients[f.pick(p)], nil
}

func (f *fakeDashboardRepo) CountNewVendors(_ context.Context, p repository.Period) (int64, error) {
	return f.vendors[f.pick(p)], nil
}

func (f *fakeDashboardRepo) SalesOrdersForProfit(_ context.Context, p repository.Period, statuses ...string) ([]model.SalesOrder, error) {
	if len(statuses) != 1 || statuses[0] != model.SalesStatusCompleted {
		f.pick(p)
		return nil, nil
	}
	return f.profitOrders[f.pick(p)], nil
}

func (f *fakeDashboardRepo) InventoryValueAt(_ context.Context, at time.Time) (decimal.Decimal, error) {
	f.calls.Add(1)
	if at.AddDate(0, -1, 0).Month() == f.month {
		return f.inventory.cur, nil
	}
	return f.inventory.prev, nil
}

func (f *fakeDashboardRepo) SumPurchaseTotal(_ context.Context, p repository.Period) (decimal.Decimal, error) {
	return f.value(p, f.purchases)
}

func (f *fakeDashboardRepo) SumPaidPayables(_ context.Context, p repository.Period) (decimal.Decimal, error) {
	return f.value(p, f.paid)
}

func (f *fakeDashboardRepo) SumReceivedReceivables(_ context.Context, p repository.Period) (decimal.Decimal, error) {
	return f.value(p, f.received)
}

type published struct {
	event string
	data  any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) Publish(event string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{event: event, data: data})
}

func newFakeDashboardRepo() *fakeDashboardRepo {
	return &fakeDashboardRepo{
		month:     time.March,
		sales:     mv("1500", "1000"),
		purchases: mv("300", "400"),
		paid:      mv("100", "100"),
		received:  mv("0", "250"),
		inventory: mv("5000", "5000"),
		clients:   [2]int64{4, 2},
		vendors:   [2]int64{1, 0},
		orders:    [2]int64{10, 8},
		cancelled: [2]int64{3, 1},
		profitOrders: [2][]model.SalesOrder{
			{{
				Subtotal: dec("200"), Discount: dec("10"), DeliveryCost: dec("15"),
				Items: []model.ItemSalesOrder{
					{Quantity: 2, UnitCost: dec("40"), Subtotal: dec("200"), CommissionAmount: dec("10")},
				},
			}},
			nil,
		},
	}
}

func metricByKey(t *testing.T, metrics []model.Metric, key string) model.Metric {
	t.Helper()
	for _, m := range metrics {
		if m.Key == key {
			return m
		}
	}
	t.Fatalf("metric %s missing", key)
	return model.Metric{}
}

func TestDelta(t *testing.T) {
	tests := []struct {
		name      string
		cur, prev string
		want      float64
	}{
		{"growth", "150", "100", 50},
		{"decline", "80", "100", -20},
		{"previous zero divides by one", "50", "0", 5000},
		{"both zero", "0", "0", 0},
		{"rounded to two places", "1", "3", -66.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, delta(dec(tt.cur), dec(tt.prev)))
		})
	}
}

func TestOrderProfit(t *testing.T) {
	t.Run("item level sums", func(t *testing.T) {
		o := &model.SalesOrder{
			Subtotal: dec("999"), Discount: dec("5"), DeliveryCost: dec("10"),
			Items: []model.ItemSalesOrder{
				{Quantity: 3, UnitCost: dec("20"), Subtotal: dec("90"), CommissionAmount: dec("4.5")},
				{Quantity: 1, UnitCost: dec("10"), Subtotal: dec("30"), CommissionAmount: dec("1.5")},
			},
		}
		// 120 - 70 - 10 - 5 - 6
		assert.Equal(t, "29", orderProfit(o).String())
	})

	t.Run("falls back to order aggregates when items sum to zero", func(t *testing.T) {
		o := &model.SalesOrder{
			Subtotal: dec("100"), ProductCost: dec("60"), Commission: dec("5"),
			Discount: dec("0"), DeliveryCost: dec("10"),
		}
		assert.Equal(t, "25", orderProfit(o).String())
	})
}

func TestMonthPeriods(t *testing.T) {
	cur, prev := monthPeriods(2024, 1)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cur.Start)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), cur.End)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, cur.Start, prev.End)
}

func TestDashboardOptions_FanOut(t *testing.T) {
	assert.True(t, DashboardOptions{Concurrent: true, Dialect: database.DialectPostgres}.fanOut())
	assert.False(t, DashboardOptions{Concurrent: true, Dialect: database.DialectSQLite}.fanOut())
	assert.False(t, DashboardOptions{Concurrent: true, Dialect: database.DialectPostgres, Testing: true}.fanOut())
	assert.False(t, DashboardOptions{Dialect: database.DialectPostgres}.fanOut())
}

func TestDashboardService_GetDashboard(t *testing.T) {
	repo := newFakeDashboardRepo()
	svc := NewDashboardService(repo, nil, nil, DashboardOptions{CurrencyPrefix: "R$"})

	metrics, err := svc.GetDashboard(context.Background(), 2024, 3)
	require.NoError(t, err)

	keys := make([]string, len(metrics))
	for i, m := range metrics {
		keys[i] = m.Key
	}
	assert.Equal(t, []string{
		"total_sales", "new_clients", "active_vendors", "sales_orders", "completed_profit",
		"open_profit", "inventory_value", "costs", "cancellations", "receivables_received",
	}, keys)

	sales := metricByKey(t, metrics, "total_sales")
	assert.Equal(t, 1500.0, sales.Value)
	assert.Equal(t, 1000.0, sales.LastMonth)
	assert.Equal(t, 50.0, sales.Delta)
	assert.True(t, sales.Positive)
	assert.Equal(t, "R$", sales.Prefix)

	assert.Empty(t, sales.Suffix)

	clients := metricByKey(t, metrics, "new_clients")
	assert.Equal(t, 4.0, clients.Value)
	assert.Empty(t, clients.Prefix)
	assert.Equal(t, "clients", clients.Suffix)
	assert.Equal(t, "orders", metricByKey(t, metrics, "cancellations").Suffix)

	profit := metricByKey(t, metrics, "completed_profit")
	// 200 - 80 - 15 - 10 - 10
	assert.Equal(t, 85.0, profit.Value)
	assert.Equal(t, 0.0, profit.LastMonth)

	costs := metricByKey(t, metrics, "costs")
	assert.Equal(t, 400.0, costs.Value)
	assert.Equal(t, 500.0, costs.LastMonth)
	assert.Equal(t, -20.0, costs.Delta)
	assert.True(t, costs.Positive, "lower costs are good news")

	cancellations := metricByKey(t, metrics, "cancellations")
	assert.False(t, cancellations.Positive, "more cancellations are bad news")

	inventory := metricByKey(t, metrics, "inventory_value")
	assert.True(t, inventory.Positive, "an unchanged value counts as positive")

	received := metricByKey(t, metrics, "receivables_received")
	assert.False(t, received.Positive)
	assert.Equal(t, -100.0, received.Delta)
}

func TestDashboardService_FanOutMatchesSequential(t *testing.T) {
	sequential, err := NewDashboardService(newFakeDashboardRepo(), nil, nil, DashboardOptions{}).
		GetDashboard(context.Background(), 2024, 3)
	require.NoError(t, err)

	parallel, err := NewDashboardService(newFakeDashboardRepo(), nil, nil, DashboardOptions{
		Dialect:     database.DialectPostgres,
		Concurrent:  true,
		MaxParallel: 4,
	}).GetDashboard(context.Background(), 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestDashboardService_FailureAbortsWholeCall(t *testing.T) {
	repo := newFakeDashboardRepo()
	repo.fail = errors.New("connection reset")

	for _, opts := range []DashboardOptions{{}, {Dialect: database.DialectPostgres, Concurrent: true, MaxParallel: 2}} {
		metrics, err := NewDashboardService(repo, nil, nil, opts).GetDashboard(context.Background(), 2024, 3)
		assert.ErrorContains(t, err, "connection reset")
		assert.Nil(t, metrics)
	}
}

func TestDashboardService_ValidatesMonth(t *testing.T) {
	svc := NewDashboardService(newFakeDashboardRepo(), nil, nil, DashboardOptions{})

	_, err := svc.GetDashboard(context.Background(), 2024, 13)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetDashboard(context.Background(), 10000, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDashboardService_CacheAndInvalidation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeDashboardRepo()
	publisher := &fakePublisher{}
	svc := NewDashboardService(repo, cache.NewMemoryCache(), publisher, DashboardOptions{CacheTTL: time.Minute})

	first, err := svc.GetDashboard(ctx, 2024, 3)
	require.NoError(t, err)
	calls := repo.calls.Load()

	second, err := svc.GetDashboard(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, calls, repo.calls.Load(), "second call is served from cache")

	svc.DataChanged(ctx, "sales_order")
	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventDashboardInvalidated, publisher.events[0].event)
	assert.Equal(t, map[string]string{"source": "sales_order"}, publisher.events[0].data)

	_, err = svc.GetDashboard(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Greater(t, repo.calls.Load(), calls, "invalidation forces a recompute")
}

func TestDashboardService_ChangeDuringComputeIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo := newFakeDashboardRepo()
	svc := NewDashboardService(repo, cache.NewMemoryCache(), nil, DashboardOptions{CacheTTL: time.Minute})

	var once sync.Once
	repo.onSales = func() {
		once.Do(func() { svc.DataChanged(ctx, "sales_order") })
	}

	_, err := svc.GetDashboard(ctx, 2024, 3)
	require.NoError(t, err)
	calls := repo.calls.Load()

	_, err = svc.GetDashboard(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Greater(t, repo.calls.Load(), calls, "a month computed across a change is recomputed")

	calls = repo.calls.Load()
	_, err = svc.GetDashboard(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, calls, repo.calls.Load(), "the fresh result is cached")
}
