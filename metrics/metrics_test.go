package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minex/service"
)

func TestRecordAndWriteFile(t *testing.T) {
	m := New()
	m.Record(service.EngineStats{
		TotalOrders:   120,
		TotalCancels:  7,
		TotalAmends:   3,
		TotalTrades:   40,
		TotalVolume:   8000,
		TotalRejects:  1,
		ActiveOrders:  55,
		SymbolsActive: 1,
	})

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)

	assert.Contains(t, text, "minex_orders_total 120")
	assert.Contains(t, text, "minex_trades_total 40")
	assert.Contains(t, text, "minex_volume_total 8000")
	assert.Contains(t, text, "minex_active_orders 55")
	assert.Contains(t, text, "# HELP minex_orders_total")
}

func TestIsolatedRegistries(t *testing.T) {
	a := New()
	b := New()
	a.Record(service.EngineStats{TotalOrders: 5})

	path := filepath.Join(t.TempDir(), "b.prom")
	require.NoError(t, b.WriteFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "minex_orders_total 0")
}
