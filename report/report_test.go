package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minex/analytics"
	"minex/domain/orderbook"
	"minex/service"
)

func TestWriteTradesCSV(t *testing.T) {
	trades := []orderbook.Trade{
		{Sequence: 5, BuyOrderID: 1, SellOrderID: 2, Price: 15000, Quantity: 300,
			ExecTime: time.Unix(0, 0), Aggressor: orderbook.Buy, Symbol: "AAPL"},
		{Sequence: 9, BuyOrderID: 3, SellOrderID: 4, Price: 14999, Quantity: 100,
			ExecTime: time.Unix(0, 0), Aggressor: orderbook.Sell, Symbol: "AAPL"},
	}

	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, WriteTradesCSV(path, trades))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"seq", "buy_id", "sell_id", "price", "qty", "aggressor"}, rows[0])
	assert.Equal(t, []string{"5", "1", "2", "15000", "300", "B"}, rows[1])
	assert.Equal(t, []string{"9", "3", "4", "14999", "100", "S"}, rows[2])
}

func TestWriteSeriesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mids.csv")
	require.NoError(t, WriteMidpricesCSV(path, []orderbook.Price{10000, 10001, 9999}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"idx", "midprice"}, rows[0])
	assert.Equal(t, []string{"2", "9999"}, rows[3])
}

func TestRenderReport(t *testing.T) {
	var sb strings.Builder

	summary := Summary{
		Stats: service.EngineStats{
			TotalOrders: 1000,
			TotalTrades: 250,
			TotalVolume: 50000,
		},
		Spread: analytics.SpreadMetrics{
			AvgQuotedSpread:    2.1,
			AvgEffectiveSpread: 1.8,
		},
		Kyle: analytics.KyleLambdaResult{Lambda: 0.002, RSquared: 0.41, NumIntervals: 720},
		Facts: analytics.FactMetrics{
			ReturnKurtosis: 4.2,
			FactChecks: []analytics.FactCheck{
				{Name: "Fat tails", Reproduced: true, Value: 4.2, Benchmark: "> 0"},
				{Name: "Never true", Reproduced: false, Value: -1, Benchmark: "> 0"},
			},
		},
		Events:      1000,
		WallTimeSec: 2.0,
		OutputDir:   "out",
	}

	require.NoError(t, Render(&sb, summary))
	text := sb.String()

	assert.Contains(t, text, "Total orders:    1000")
	assert.Contains(t, text, "Throughput:      500 events/sec")
	assert.Contains(t, text, "Quoted spread:      2.10 ticks")
	assert.Contains(t, text, "lambda:   0.002000")
	assert.Contains(t, text, "[x] Fat tails")
	assert.Contains(t, text, "[ ] Never true")
	assert.Contains(t, text, "out/trades.csv")
}
