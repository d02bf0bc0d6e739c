package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
)

func TestWriteKPICSV(t *testing.T) {
	summary := analytics.KPISummary{
		SalesTotal:    decimal.NewFromInt(200),
		NetProfit:     decimal.NewFromInt(100),
		Margin:        decimal.RequireFromString("0.5"),
		LowStockCount: 3,
	}
	buf := &bytes.Buffer{}
	require.NoError(t, WriteKPICSV(buf, summary, "2024-05"))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 11)
	assert.Equal(t, []string{"Period", "2024-05"}, records[1])
	assert.Equal(t, []string{"Sales", "200.00"}, records[2])
	assert.Equal(t, []string{"Margin", "0.5000"}, records[7])
	assert.Equal(t, []string{"Low Stock Items", "3"}, records[9])
}

func TestWriteTrendCSV(t *testing.T) {
	points := []analytics.TrendPoint{
		{Period: "2024-04", Sales: decimal.NewFromInt(10), Net: decimal.NewFromInt(4)},
		{Period: "2024-05", Sales: decimal.NewFromInt(20), Net: decimal.NewFromInt(-1)},
	}
	buf := &bytes.Buffer{}
	require.NoError(t, WriteTrendCSV(buf, points))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2024-05", "20.00", "0.00", "0.00", "-1.00"}, records[2])
}
