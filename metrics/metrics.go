// Package metrics exposes the engine's counters as prometheus metrics.
// The binary is a batch simulator, so instead of serving /metrics the
// registry is written in text exposition format into the output
// directory at end of run.
package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"minex/service"
)

// Metrics wraps a dedicated registry so a run's numbers are isolated
// from any global state.
type Metrics struct {
	registry *prometheus.Registry

	ordersTotal  prometheus.Counter
	cancelsTotal prometheus.Counter
	amendsTotal  prometheus.Counter
	tradesTotal  prometheus.Counter
	volumeTotal  prometheus.Counter
	rejectsTotal prometheus.Counter

	activeOrders  prometheus.Gauge
	symbolsActive prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.ordersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "minex_orders_total", Help: "Orders submitted to the engine.",
	})
	m.cancelsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "minex_cancels_total", Help: "Successful cancel requests.",
	})
	m.amendsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "minex_amends_total", Help: "Successful amend requests.",
	})
	m.tradesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "minex_trades_total", Help: "Executions produced by matching.",
	})
	m.volumeTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "minex_volume_total", Help: "Shares traded.",
	})
	m.rejectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "minex_rejects_total", Help: "Requests rejected for unknown symbols.",
	})
	m.activeOrders = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "minex_active_orders", Help: "Orders currently resting on the book.",
	})
	m.symbolsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "minex_symbols_active", Help: "Registered symbols.",
	})

	m.registry.MustRegister(
		m.ordersTotal, m.cancelsTotal, m.amendsTotal,
		m.tradesTotal, m.volumeTotal, m.rejectsTotal,
		m.activeOrders, m.symbolsActive,
	)
	return m
}

// Record folds a final stats snapshot into the registry.
func (m *Metrics) Record(s service.EngineStats) {
	m.ordersTotal.Add(float64(s.TotalOrders))
	m.cancelsTotal.Add(float64(s.TotalCancels))
	m.amendsTotal.Add(float64(s.TotalAmends))
	m.tradesTotal.Add(float64(s.TotalTrades))
	m.volumeTotal.Add(float64(s.TotalVolume))
	m.rejectsTotal.Add(float64(s.TotalRejects))
	m.activeOrders.Set(float64(s.ActiveOrders))
	m.symbolsActive.Set(float64(s.SymbolsActive))
}

// WriteFile dumps the registry in text exposition format.
func (m *Metrics) WriteFile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return err
		}
	}
	return nil
}
