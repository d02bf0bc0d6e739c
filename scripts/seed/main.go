// Command seed loads a small demo shop through the same services the API uses.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/expenses"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/procurement"
	"github.com/odyssey-erp/odyssey-pos/internal/sales"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

const actor = "seed"

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	st, _, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	audit := shared.NewSlogAuditor(logger)
	ledger := inventory.NewLedger(nil)
	catalogService := catalog.NewService(st, ledger, logger, audit, nil)
	salesService := sales.NewService(st, ledger, logger, sales.ServiceConfig{EnforceStockCheck: true, Audit: audit})
	procurementService := procurement.NewService(st, ledger, catalogService, logger, procurement.ServiceConfig{Audit: audit})
	expenseService := expenses.NewService(st, logger, audit, nil)

	if err := seed(ctx, catalogService, salesService, procurementService, expenseService); err != nil {
		logger.Error("seed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("seed complete", slog.String("store", cfg.StoreDriver))
}

func seed(ctx context.Context, cat *catalog.Service, sal *sales.Service, proc *procurement.Service, exp *expenses.Service) error {
	customer, err := cat.CreateCustomer(ctx, catalog.PartyInput{Name: "Walk-in Customer"})
	if err != nil {
		return err
	}
	supplier, err := cat.CreateSupplier(ctx, catalog.PartyInput{Name: "Sumber Makmur", Phone: "+62 21 555 0101"})
	if err != nil {
		return err
	}

	rice, err := cat.CreateProduct(ctx, catalog.CreateProductInput{
		Name: "Rice 5kg", SKU: "RICE-5", CostPrice: decimal.NewFromInt(60000), SellPrice: decimal.NewFromInt(72000),
		Stock: 40, Actor: actor,
	})
	if err != nil {
		return err
	}
	shirt, err := cat.CreateProduct(ctx, catalog.CreateProductInput{
		Name: "Polo Shirt", SKU: "POLO", CostPrice: decimal.NewFromInt(45000), SellPrice: decimal.NewFromInt(85000),
		Variants: []catalog.CreateVariantInput{
			{Name: "M", SKU: "POLO-M", Stock: 12},
			{Name: "XL", SKU: "POLO-XL", Stock: 4, PriceAdjustment: decimal.NewFromInt(5000)},
		},
		Actor: actor,
	})
	if err != nil {
		return err
	}

	if _, err := proc.CreatePurchaseOrder(ctx, procurement.CreatePurchaseOrderInput{
		SupplierID: supplier.ID,
		Items:      []inventory.LineItem{{ProductID: rice.ID, Quantity: 20, UnitAmount: decimal.NewFromInt(58000)}},
		Actor:      actor,
	}); err != nil {
		return err
	}

	medium := shirt.Variants[0].ID
	if _, err := sal.CreateSale(ctx, sales.CreateSaleInput{
		CustomerID: customer.ID,
		Items: []inventory.LineItem{
			{ProductID: rice.ID, Quantity: 2},
			{ProductID: shirt.ID, VariantID: &medium, Quantity: 1},
		},
		Actor: actor,
	}); err != nil {
		return err
	}

	_, err = exp.Create(ctx, expenses.CreateExpenseInput{
		ExpenseDate: time.Now().UTC().Format("2006-01-02"),
		Category:    "Utilities",
		Amount:      decimal.NewFromInt(350000),
		Description: "Electricity",
		Actor:       actor,
	})
	return err
}
