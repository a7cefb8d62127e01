package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"minex/domain/orderbook"
	"minex/infra/wal"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Unix(0, 0) }
}

func newTestEngine() *Engine {
	e := NewEngine(zap.NewNop())
	e.AddSymbol("TEST")
	e.SetClock(fixedClock())
	return e
}

func TestBookLookup(t *testing.T) {
	e := newTestEngine()
	assert.NotNil(t, e.Book("TEST"))
	assert.Nil(t, e.Book("NOPE"))
	assert.Same(t, e.Book("TEST"), e.AddSymbol("TEST"), "re-adding returns the existing book")
}

func limitReq(id orderbook.OrderID, side orderbook.Side, price orderbook.Price, qty orderbook.Quantity) orderbook.NewOrderRequest {
	return orderbook.NewOrderRequest{
		ID: id, Side: side, Type: orderbook.Limit, Tif: orderbook.GTC,
		Price: price, Quantity: qty, Symbol: "TEST",
	}
}

func TestUnknownSymbolRejected(t *testing.T) {
	e := newTestEngine()

	req := limitReq(1, orderbook.Buy, 100, 100)
	req.Symbol = "NOPE"

	o, err := e.Submit(req)
	assert.Nil(t, o)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	assert.False(t, e.Cancel(orderbook.CancelRequest{OrderID: 1, Symbol: "NOPE"}))
	assert.False(t, e.Amend(orderbook.AmendRequest{OrderID: 1, NewQuantity: 50, Symbol: "NOPE"}))

	stats := e.Stats()
	assert.Equal(t, uint64(3), stats.TotalRejects)
	assert.Equal(t, uint64(0), stats.TotalOrders)
}

func TestEngineCounters(t *testing.T) {
	e := newTestEngine()

	_, err := e.Submit(limitReq(1, orderbook.Buy, 100, 100))
	require.NoError(t, err)
	_, err = e.Submit(limitReq(2, orderbook.Buy, 99, 100))
	require.NoError(t, err)
	_, err = e.Submit(limitReq(3, orderbook.Sell, 100, 50))
	require.NoError(t, err)

	assert.True(t, e.Amend(orderbook.AmendRequest{OrderID: 2, NewQuantity: 80, Symbol: "TEST"}))
	assert.True(t, e.Cancel(orderbook.CancelRequest{OrderID: 2, Symbol: "TEST"}))
	assert.False(t, e.Cancel(orderbook.CancelRequest{OrderID: 999, Symbol: "TEST"}))

	stats := e.Stats()
	assert.Equal(t, uint64(3), stats.TotalOrders)
	assert.Equal(t, uint64(1), stats.TotalTrades)
	assert.Equal(t, uint64(50), stats.TotalVolume)
	assert.Equal(t, uint64(1), stats.TotalAmends)
	assert.Equal(t, uint64(1), stats.TotalCancels)
	assert.Equal(t, uint64(1), stats.ActiveOrders)
	assert.Equal(t, uint64(1), stats.SymbolsActive)
}

func TestTradeFanOut(t *testing.T) {
	e := newTestEngine()

	var first, second []orderbook.Trade
	e.OnTrade(func(tr orderbook.Trade) { first = append(first, tr) })
	e.OnTrade(func(tr orderbook.Trade) { second = append(second, tr) })

	var updates []orderbook.OrderStatus
	e.OnOrder(func(o *orderbook.Order) { updates = append(updates, o.Status) })

	_, _ = e.Submit(limitReq(1, orderbook.Buy, 100, 100))
	_, _ = e.Submit(limitReq(2, orderbook.Sell, 100, 100))

	require.Len(t, first, 1)
	require.Equal(t, first, second, "every subscriber sees every trade")

	// Resting add, then the resting order's fill.
	assert.Contains(t, updates, orderbook.StatusNew)
	assert.Contains(t, updates, orderbook.StatusFilled)
}

func TestJournalReplayReproducesTrades(t *testing.T) {
	dir := t.TempDir()

	journal, err := wal.Open(wal.Config{Dir: dir, SegmentSize: 1 << 20})
	require.NoError(t, err)

	recorded := newTestEngine()
	recorded.SetJournal(journal)

	var original []orderbook.Trade
	recorded.OnTrade(func(tr orderbook.Trade) { original = append(original, tr) })

	_, _ = recorded.Submit(limitReq(1, orderbook.Buy, 100, 300))
	_, _ = recorded.Submit(limitReq(2, orderbook.Buy, 101, 200))
	recorded.Amend(orderbook.AmendRequest{OrderID: 1, NewQuantity: 200, Symbol: "TEST"})
	_, _ = recorded.Submit(limitReq(3, orderbook.Sell, 100, 350))
	recorded.Cancel(orderbook.CancelRequest{OrderID: 1, Symbol: "TEST"})
	require.NoError(t, journal.Close())
	require.NotEmpty(t, original)

	replayed := newTestEngine()
	var replay []orderbook.Trade
	replayed.OnTrade(func(tr orderbook.Trade) { replay = append(replay, tr) })

	require.NoError(t, ReplayJournal(dir, replayed))
	assert.Equal(t, original, replay, "journal replay must reproduce the trade stream")
	assert.Equal(t, recorded.Stats().ActiveOrders, replayed.Stats().ActiveOrders)
}
