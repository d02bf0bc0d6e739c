package sqlite

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Row types mirror the tables. Timestamps travel as text in timeLayout.

type productRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	SKU         string          `db:"sku"`
	CostPrice   decimal.Decimal `db:"cost_price"`
	SellPrice   decimal.Decimal `db:"sell_price"`
	Stock       int             `db:"stock"`
	HasVariants bool            `db:"has_variants"`
	CreatedAt   string          `db:"created_at"`
}

func (r productRow) toDomain() (store.Product, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return store.Product{}, err
	}
	return store.Product{
		ID:          r.ID,
		Name:        r.Name,
		SKU:         r.SKU,
		CostPrice:   r.CostPrice,
		SellPrice:   r.SellPrice,
		Stock:       r.Stock,
		HasVariants: r.HasVariants,
		CreatedAt:   createdAt,
	}, nil
}

type variantRow struct {
	ID              string          `db:"id"`
	ProductID       string          `db:"product_id"`
	Name            string          `db:"name"`
	SKU             string          `db:"sku"`
	Stock           int             `db:"stock"`
	PriceAdjustment decimal.Decimal `db:"price_adjustment"`
}

func (r variantRow) toDomain() store.Variant {
	return store.Variant{
		ID:              r.ID,
		ProductID:       r.ProductID,
		Name:            r.Name,
		SKU:             r.SKU,
		Stock:           r.Stock,
		PriceAdjustment: r.PriceAdjustment,
	}
}

type partyRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Email     string `db:"email"`
	Phone     string `db:"phone"`
	Address   string `db:"address"`
	CreatedAt string `db:"created_at"`
}

func (r partyRow) toCustomer() (store.Customer, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return store.Customer{}, err
	}
	return store.Customer{ID: r.ID, Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address, CreatedAt: createdAt}, nil
}

func (r partyRow) toSupplier() (store.Supplier, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return store.Supplier{}, err
	}
	return store.Supplier{ID: r.ID, Name: r.Name, Email: r.Email, Phone: r.Phone, Address: r.Address, CreatedAt: createdAt}, nil
}

type salesOrderRow struct {
	ID           string          `db:"id"`
	CustomerID   string          `db:"customer_id"`
	CustomerName string          `db:"customer_name"`
	CreatedAt    string          `db:"created_at"`
	Status       string          `db:"status"`
	Subtotal     decimal.Decimal `db:"subtotal"`
	TotalAmount  decimal.Decimal `db:"total_amount"`
}

func (r salesOrderRow) toDomain() (store.SalesOrder, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return store.SalesOrder{}, err
	}
	return store.SalesOrder{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		CustomerName: r.CustomerName,
		CreatedAt:    createdAt,
		Status:       store.SalesOrderStatus(r.Status),
		Subtotal:     r.Subtotal,
		TotalAmount:  r.TotalAmount,
	}, nil
}

// lineRow serves both sales and purchase items. Price is the unit price or unit cost, Total the line amount.
type lineRow struct {
	ID          string          `db:"id"`
	OrderID     string          `db:"order_id"`
	Position    int             `db:"position"`
	ProductID   string          `db:"product_id"`
	ProductName string          `db:"product_name"`
	VariantID   *string         `db:"variant_id"`
	VariantName string          `db:"variant_name"`
	Quantity    int             `db:"quantity"`
	Price       decimal.Decimal `db:"price"`
	Total       decimal.Decimal `db:"total"`
}

func (r lineRow) toSalesItem() store.SalesItem {
	return store.SalesItem{
		ID:          r.ID,
		OrderID:     r.OrderID,
		Position:    r.Position,
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		VariantID:   r.VariantID,
		VariantName: r.VariantName,
		Quantity:    r.Quantity,
		UnitPrice:   r.Price,
		Subtotal:    r.Total,
	}
}

func (r lineRow) toPurchaseItem() store.PurchaseItem {
	return store.PurchaseItem{
		ID:          r.ID,
		OrderID:     r.OrderID,
		Position:    r.Position,
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		VariantID:   r.VariantID,
		VariantName: r.VariantName,
		Quantity:    r.Quantity,
		UnitCost:    r.Price,
		LineTotal:   r.Total,
	}
}

type purchaseOrderRow struct {
	ID           string          `db:"id"`
	SupplierID   string          `db:"supplier_id"`
	SupplierName string          `db:"supplier_name"`
	CreatedAt    string          `db:"created_at"`
	TotalAmount  decimal.Decimal `db:"total_amount"`
}

func (r purchaseOrderRow) toDomain() (store.PurchaseOrder, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return store.PurchaseOrder{}, err
	}
	return store.PurchaseOrder{
		ID:           r.ID,
		SupplierID:   r.SupplierID,
		SupplierName: r.SupplierName,
		CreatedAt:    createdAt,
		TotalAmount:  r.TotalAmount,
	}, nil
}

type expenseRow struct {
	ID          string          `db:"id"`
	ExpenseDate string          `db:"expense_date"`
	Category    string          `db:"category"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	PaymentMode string          `db:"payment_mode"`
	Vendor      string          `db:"vendor"`
	CreatedAt   string          `db:"created_at"`
}

func (r expenseRow) toDomain() (store.Expense, error) {
	expenseDate, err := parseTime(r.ExpenseDate)
	if err != nil {
		return store.Expense{}, err
	}
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return store.Expense{}, err
	}
	return store.Expense{
		ID:          r.ID,
		ExpenseDate: expenseDate,
		Category:    r.Category,
		Amount:      r.Amount,
		Description: r.Description,
		PaymentMode: r.PaymentMode,
		Vendor:      r.Vendor,
		CreatedAt:   createdAt,
	}, nil
}
