package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// KPIFilter bounds the period. From is inclusive, To exclusive, zero means unbounded.
type KPIFilter struct {
	From time.Time
	To   time.Time
}

// KPISummary contains the indicators surfaced on the dashboard.
type KPISummary struct {
	SalesTotal     decimal.Decimal `json:"sales_total"`
	COGS           decimal.Decimal `json:"cogs"`
	ExpensesTotal  decimal.Decimal `json:"expenses_total"`
	GrossProfit    decimal.Decimal `json:"gross_profit"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	Margin         decimal.Decimal `json:"margin"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	LowStockCount  int             `json:"low_stock_count"`
	OrderCount     int             `json:"order_count"`
}

// GetKPIs resolves the KPI card using cache-aware lookups.
func (s *Service) GetKPIs(ctx context.Context, filter KPIFilter) (KPISummary, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return KPISummary{}, shared.Validationf("period end before start")
	}
	loader := func(ctx context.Context) (any, error) {
		return s.loadKPIs(ctx, filter)
	}
	if s.cache == nil {
		return s.loadKPIs(ctx, filter)
	}
	key, err := s.cache.BuildKey(ctx, keyKPI(filter.From, filter.To))
	if err != nil {
		return KPISummary{}, err
	}
	var summary KPISummary
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return KPISummary{}, err
	}
	return summary, nil
}

func (s *Service) loadKPIs(ctx context.Context, filter KPIFilter) (KPISummary, error) {
	period := store.PeriodFilter{From: filter.From, To: filter.To}
	var (
		orders   []store.SalesOrder
		expenses []store.Expense
		products []store.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.store.ListSalesOrders(gctx, period)
		return shared.StoreError("analytics.list_sales", err)
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListExpenses(gctx, period)
		return shared.StoreError("analytics.list_expenses", err)
	})
	g.Go(func() error {
		var err error
		products, err = s.store.ListProducts(gctx)
		return shared.StoreError("analytics.list_products", err)
	})
	if err := g.Wait(); err != nil {
		return KPISummary{}, err
	}
	return ComputeKPIs(orders, expenses, products, s.threshold), nil
}

// ComputeKPIs aggregates already loaded rows. Only completed orders count as sales.
// COGS prices sold quantities at the product's current cost price.
func ComputeKPIs(orders []store.SalesOrder, expenses []store.Expense, products []store.Product, threshold int) KPISummary {
	costs := make(map[string]decimal.Decimal, len(products))
	inventoryValue := decimal.Zero
	for _, p := range products {
		costs[p.ID] = p.CostPrice
		inventoryValue = inventoryValue.Add(p.CostPrice.Mul(decimal.NewFromInt(int64(p.Stock))))
	}

	summary := KPISummary{
		SalesTotal:     decimal.Zero,
		COGS:           decimal.Zero,
		ExpensesTotal:  decimal.Zero,
		InventoryValue: inventoryValue,
		LowStockCount:  len(inventory.CollectLowStock(products, threshold)),
	}
	for _, order := range orders {
		if order.Status != store.SalesOrderStatusCompleted {
			continue
		}
		summary.OrderCount++
		summary.SalesTotal = summary.SalesTotal.Add(order.TotalAmount)
		for _, item := range order.Items {
			summary.COGS = summary.COGS.Add(costs[item.ProductID].Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	for _, e := range expenses {
		summary.ExpensesTotal = summary.ExpensesTotal.Add(e.Amount)
	}
	summary.GrossProfit = summary.SalesTotal.Sub(summary.COGS)
	summary.NetProfit = summary.GrossProfit.Sub(summary.ExpensesTotal)
	summary.Margin = decimal.Zero
	if !summary.SalesTotal.IsZero() {
		summary.Margin = summary.NetProfit.DivRound(summary.SalesTotal, 4)
	}
	return summary
}
