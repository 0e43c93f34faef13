package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"erpcrm/internal/cache"
	"erpcrm/internal/database"
	"erpcrm/internal/logger"
	"erpcrm/internal/model"
	"erpcrm/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardCachePrefix = "dashboard:"
	// EventDashboardInvalidated is broadcast when cached KPIs went stale
	EventDashboardInvalidated = "dashboard.invalidated"
)

// Publisher pushes an event to connected front-ends
type Publisher interface {
	Publish(event string, data any)
}

// DashboardOptions configures how the KPIs are computed and cached
type DashboardOptions struct {
	Dialect        string
	Testing        bool
	Concurrent     bool
	MaxParallel    int
	CacheTTL       time.Duration
	CurrencyPrefix string
}

// fanOut reports whether metric queries may run in parallel. SQLite and test
// runs always go sequentially.
func (o DashboardOptions) fanOut() bool {
	return o.Concurrent && o.Dialect != database.DialectSQLite && !o.Testing
}

type DashboardService interface {
	ChangeNotifier
	GetDashboard(ctx context.Context, year, month int) ([]model.Metric, error)
}

type dashboardService struct {
	repo      repository.DashboardRepository
	cache     cache.Cache
	publisher Publisher
	opts      DashboardOptions

	// bumped by DataChanged; results computed under an older value are not cached
	generation atomic.Uint64
}

func NewDashboardService(repo repository.DashboardRepository, c cache.Cache, publisher Publisher, opts DashboardOptions) DashboardService {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	return &dashboardService{repo: repo, cache: c, publisher: publisher, opts: opts}
}

// metricDef computes one KPI for a month
type metricDef struct {
	key      string
	title    string
	money    bool
	suffix   string
	inverted bool // growth is bad news
	compute  func(ctx context.Context, p repository.Period) (decimal.Decimal, error)
}

func (s *dashboardService) metrics() []metricDef {
	count := func(fn func(context.Context, repository.Period) (int64, error)) func(context.Context, repository.Period) (decimal.Decimal, error) {
		return func(ctx context.Context, p repository.Period) (decimal.Decimal, error) {
			n, err := fn(ctx, p)
			return decimal.NewFromInt(n), err
		}
	}
	return []metricDef{
		{key: "total_sales", title: "Total sales", money: true, compute: s.repo.SumSalesTotal},
		{key: "new_clients", title: "New clients", suffix: "clients", compute: count(s.repo.CountNewClients)},
		{key: "active_vendors", title: "Active vendors", suffix: "vendors", compute: count(s.repo.CountNewVendors)},
		{key: "sales_orders", title: "Sales orders", suffix: "orders", compute: count(func(ctx context.Context, p repository.Period) (int64, error) {
			return s.repo.CountSalesOrders(ctx, p)
		})},
		{key: "completed_profit", title: "Completed profit", money: true, compute: s.profit(model.SalesStatusCompleted)},
		{key: "open_profit", title: "Open profit", money: true, compute: s.profit(model.SalesStatusPending, model.SalesStatusProcessing)},
		{key: "inventory_value", title: "Inventory value", money: true, compute: func(ctx context.Context, p repository.Period) (decimal.Decimal, error) {
			return s.repo.InventoryValueAt(ctx, p.End)
		}},
		{key: "costs", title: "Costs", money: true, inverted: true, compute: s.costs},
		{key: "cancellations", title: "Cancellations", suffix: "orders", inverted: true, compute: count(func(ctx context.Context, p repository.Period) (int64, error) {
			return s.repo.CountSalesOrders(ctx, p, model.SalesStatusCancelled)
		})},
		{key: "receivables_received", title: "Receivables received", money: true, compute: s.repo.SumReceivedReceivables},
	}
}

func (s *dashboardService) profit(statuses ...string) func(context.Context, repository.Period) (decimal.Decimal, error) {
	return func(ctx context.Context, p repository.Period) (decimal.Decimal, error) {
		orders, err := s.repo.SalesOrdersForProfit(ctx, p, statuses...)
		if err != nil {
			return decimal.Zero, err
		}
		total := decimal.Zero
		for i := range orders {
			total = total.Add(orderProfit(&orders[i]))
		}
		return total, nil
	}
}

func (s *dashboardService) costs(ctx context.Context, p repository.Period) (decimal.Decimal, error) {
	purchases, err := s.repo.SumPurchaseTotal(ctx, p)
	if err != nil {
		return decimal.Zero, err
	}
	paid, err := s.repo.SumPaidPayables(ctx, p)
	if err != nil {
		return decimal.Zero, err
	}
	return purchases.Add(paid), nil
}

// orderProfit is revenue minus product cost, delivery, discount and commission.
// Each item-level sum falls back to the order aggregate when it comes out zero.
func orderProfit(o *model.SalesOrder) decimal.Decimal {
	revenue, commission, cost := decimal.Zero, decimal.Zero, decimal.Zero
	for _, item := range o.Items {
		revenue = revenue.Add(item.Subtotal)
		commission = commission.Add(item.CommissionAmount)
		cost = cost.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if revenue.IsZero() {
		revenue = o.Subtotal
	}
	if commission.IsZero() {
		commission = o.Commission
	}
	if cost.IsZero() {
		cost = o.ProductCost
	}
	return revenue.Sub(cost).Sub(o.DeliveryCost).Sub(o.Discount).Sub(commission)
}

// monthPeriods returns [first day, first day of next month) for the month and the one before
func monthPeriods(year, month int) (current, previous repository.Period) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	current = repository.Period{Start: start, End: start.AddDate(0, 1, 0)}
	previous = repository.Period{Start: start.AddDate(0, -1, 0), End: start}
	return current, previous
}

func delta(current, previous decimal.Decimal) float64 {
	base := previous
	if base.IsZero() {
		base = decimal.NewFromInt(1)
	}
	d, _ := current.Sub(previous).Div(base).Mul(hundred).Round(2).Float64()
	return d
}

func dashboardKey(year, month int) string {
	return fmt.Sprintf("%s%04d-%02d", dashboardCachePrefix, year, month)
}

func (s *dashboardService) GetDashboard(ctx context.Context, year, month int) ([]model.Metric, error) {
	if month < 1 || month > 12 {
		return nil, fieldError("month", "must be between 1 and 12")
	}
	if year < 1900 || year > 9999 {
		return nil, fieldError("year", "must be between 1900 and 9999")
	}

	log := logger.FromContext(ctx)
	key := dashboardKey(year, month)
	if s.cache != nil {
		var cached []model.Metric
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		if found {
			return cached, nil
		}
	}

	gen := s.generation.Load()
	metrics, err := s.compute(ctx, year, month)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.opts.CacheTTL > 0 && s.generation.Load() == gen {
		if err := s.cache.Set(ctx, key, metrics, s.opts.CacheTTL); err != nil {
			log.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
		// data changed while the entry was being written
		if s.generation.Load() != gen {
			if err := s.cache.DeletePrefix(ctx, key); err != nil {
				log.Warn("dashboard cache invalidation failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return metrics, nil
}

// compute evaluates every metric for both months. Results land in fixed slots
// so the output order never depends on scheduling.
func (s *dashboardService) compute(ctx context.Context, year, month int) ([]model.Metric, error) {
	defs := s.metrics()
	current, previous := monthPeriods(year, month)
	periods := [2]repository.Period{current, previous}
	values := make([][2]decimal.Decimal, len(defs))

	if s.opts.fanOut() {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.opts.MaxParallel)
		for i, def := range defs {
			for j, period := range periods {
				g.Go(func() error {
					v, err := def.compute(gctx, period)
					if err != nil {
						return fmt.Errorf("metric %s: %w", def.key, err)
					}
					values[i][j] = v
					return nil
				})
			}
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, def := range defs {
			for j, period := range periods {
				v, err := def.compute(ctx, period)
				if err != nil {
					return nil, fmt.Errorf("metric %s: %w", def.key, err)
				}
				values[i][j] = v
			}
		}
	}

	metrics := make([]model.Metric, len(defs))
	for i, def := range defs {
		cur, prev := values[i][0], values[i][1]
		positive := cur.GreaterThanOrEqual(prev)
		if def.inverted {
			positive = cur.LessThanOrEqual(prev)
		}
		value, _ := cur.Round(2).Float64()
		lastMonth, _ := prev.Round(2).Float64()
		metric := model.Metric{
			Key:       def.key,
			Title:     def.title,
			Value:     value,
			Delta:     delta(cur, prev),
			LastMonth: lastMonth,
			Positive:  positive,
			Suffix:    def.suffix,
		}
		if def.money {
			metric.Prefix = s.opts.CurrencyPrefix
		}
		metrics[i] = metric
	}
	return metrics, nil
}

// DataChanged drops every cached month and tells the front-ends to refetch
func (s *dashboardService) DataChanged(ctx context.Context, source string) {
	s.generation.Add(1)
	if s.cache != nil {
		if err := s.cache.DeletePrefix(ctx, dashboardCachePrefix); err != nil {
			logger.FromContext(ctx).Warn("dashboard cache invalidation failed", zap.String("source", source), zap.Error(err))
		}
	}
	if s.publisher != nil {
		s.publisher.Publish(EventDashboardInvalidated, map[string]string{"source": source})
	}
}
