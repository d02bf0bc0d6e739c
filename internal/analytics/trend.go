package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

const periodLayout = "2006-01"

// TrendPoint conveys one month of sales and expense movements.
type TrendPoint struct {
	Period   string          `json:"period"`
	Sales    decimal.Decimal `json:"sales"`
	COGS     decimal.Decimal `json:"cogs"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

// GetProfitTrend returns monthly movements within the filter, oldest month first.
// Months without activity are omitted.
func (s *Service) GetProfitTrend(ctx context.Context, filter KPIFilter) ([]TrendPoint, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, shared.Validationf("period end before start")
	}
	loader := func(ctx context.Context) (any, error) {
		return s.loadTrend(ctx, filter)
	}
	if s.cache == nil {
		return s.loadTrend(ctx, filter)
	}
	key, err := s.cache.BuildKey(ctx, keyTrend(filter.From, filter.To))
	if err != nil {
		return nil, err
	}
	var points []TrendPoint
	if err := s.cache.FetchJSON(ctx, key, &points, loader); err != nil {
		return nil, err
	}
	return points, nil
}

func (s *Service) loadTrend(ctx context.Context, filter KPIFilter) ([]TrendPoint, error) {
	period := store.PeriodFilter{From: filter.From, To: filter.To}
	var (
		orders   []store.SalesOrder
		expenses []store.Expense
		products []store.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.store.ListSalesOrders(gctx, period)
		return shared.StoreError("analytics.list_sales", err)
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListExpenses(gctx, period)
		return shared.StoreError("analytics.list_expenses", err)
	})
	g.Go(func() (err error) {
		products, err = s.store.ListProducts(gctx)
		return shared.StoreError("analytics.list_products", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byMonth := make(map[string][]store.SalesOrder)
	spend := make(map[string][]store.Expense)
	for _, o := range orders {
		key := o.CreatedAt.UTC().Format(periodLayout)
		byMonth[key] = append(byMonth[key], o)
	}
	for _, e := range expenses {
		key := e.ExpenseDate.UTC().Format(periodLayout)
		spend[key] = append(spend[key], e)
	}
	months := make(map[string]struct{}, len(byMonth)+len(spend))
	for k := range byMonth {
		months[k] = struct{}{}
	}
	for k := range spend {
		months[k] = struct{}{}
	}

	points := make([]TrendPoint, 0, len(months))
	for month := range months {
		kpi := ComputeKPIs(byMonth[month], spend[month], products, s.threshold)
		points = append(points, TrendPoint{
			Period:   month,
			Sales:    kpi.SalesTotal,
			COGS:     kpi.COGS,
			Expenses: kpi.ExpensesTotal,
			Net:      kpi.NetProfit,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Period < points[j].Period })
	return points, nil
}

// ParsePeriod parses a YYYY-MM month into its first instant in UTC.
func ParsePeriod(value string) (time.Time, error) {
	t, err := time.ParseInLocation(periodLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, shared.Validationf("period must use %s", periodLayout)
	}
	return t, nil
}
