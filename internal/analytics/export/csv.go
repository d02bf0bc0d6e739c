package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
)

// WriteKPICSV serialises KPI summary metrics to a CSV representation.
func WriteKPICSV(w io.Writer, summary analytics.KPISummary, period string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", period},
		{"Sales", summary.SalesTotal.StringFixed(2)},
		{"Cost of Goods Sold", summary.COGS.StringFixed(2)},
		{"Gross Profit", summary.GrossProfit.StringFixed(2)},
		{"Expenses", summary.ExpensesTotal.StringFixed(2)},
		{"Net Profit", summary.NetProfit.StringFixed(2)},
		{"Margin", summary.Margin.StringFixed(4)},
		{"Inventory Value", summary.InventoryValue.StringFixed(2)},
		{"Low Stock Items", strconv.Itoa(summary.LowStockCount)},
		{"Orders", strconv.Itoa(summary.OrderCount)},
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

// WriteTrendCSV emits the monthly profit movement as CSV.
func WriteTrendCSV(w io.Writer, points []analytics.TrendPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Period", "Sales", "COGS", "Expenses", "Net"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{
			point.Period,
			point.Sales.StringFixed(2),
			point.COGS.StringFixed(2),
			point.Expenses.StringFixed(2),
			point.Net.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
