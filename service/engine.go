/*
Package service is the only write entry point into the system. The
Engine facade routes requests to per-symbol books, keeps the global
counters, fans trade and order events out to every subscriber, and
write-ahead journals accepted requests so a run can be replayed.
*/
package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"minex/domain/orderbook"
	"minex/infra/sequence"
	"minex/infra/wal"
)

// ErrUnknownSymbol is returned when a request names a symbol with no
// registered book. The request is counted as a reject and nothing is
// mutated.
var ErrUnknownSymbol = errors.New("service: unknown symbol")

// EngineStats are the facade's running counters.
type EngineStats struct {
	TotalOrders   uint64
	TotalCancels  uint64
	TotalAmends   uint64
	TotalTrades   uint64
	TotalVolume   uint64
	TotalRejects  uint64
	ActiveOrders  uint64
	SymbolsActive uint64
}

// Engine dispatches requests to per-symbol order books. It is
// single-writer like the books it owns; no cross-symbol operation
// exists, so sharding by symbol needs no coordination.
type Engine struct {
	books map[string]*orderbook.OrderBook

	tradeSubs []orderbook.TradeHandler
	orderSubs []orderbook.OrderHandler

	stats EngineStats

	seq     *sequence.Sequencer
	journal *wal.Journal

	now func() time.Time
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	return &Engine{
		books: make(map[string]*orderbook.OrderBook),
		seq:   sequence.New(0),
		now:   time.Now,
		log:   log,
	}
}

// SetJournal enables write-ahead journaling of every request.
func (e *Engine) SetJournal(j *wal.Journal) { e.journal = j }

// SetClock replaces the facade's and every registered book's time
// source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
	for _, b := range e.books {
		b.SetClock(now)
	}
}

// AddSymbol registers a tradeable symbol. Must be called before any
// orders for it are submitted.
func (e *Engine) AddSymbol(symbol string) *orderbook.OrderBook {
	if b, ok := e.books[symbol]; ok {
		return b
	}

	b := orderbook.NewOrderBook(symbol)
	b.SetClock(e.now)
	b.SetTradeHandler(func(t orderbook.Trade) {
		e.stats.TotalTrades++
		e.stats.TotalVolume += t.Quantity
		for _, fn := range e.tradeSubs {
			fn(t)
		}
	})
	b.SetOrderHandler(func(o *orderbook.Order) {
		for _, fn := range e.orderSubs {
			fn(o)
		}
	})
	e.books[symbol] = b
	return b
}

func (e *Engine) Book(symbol string) *orderbook.OrderBook {
	return e.books[symbol]
}

// OnTrade subscribes to every execution across all symbols. Handlers
// fire synchronously, in subscription order, before the mutating call
// returns.
func (e *Engine) OnTrade(fn orderbook.TradeHandler) {
	e.tradeSubs = append(e.tradeSubs, fn)
}

// OnOrder subscribes to order status transitions.
func (e *Engine) OnOrder(fn orderbook.OrderHandler) {
	e.orderSubs = append(e.orderSubs, fn)
}

// Submit routes a new order to its book. Returns ErrUnknownSymbol
// (and counts a reject) when no book is registered for the symbol.
func (e *Engine) Submit(req orderbook.NewOrderRequest) (*orderbook.Order, error) {
	e.journalRecord(wal.RecordNew, wal.EncodeNewOrder(req))

	b, ok := e.books[req.Symbol]
	if !ok {
		e.stats.TotalRejects++
		return nil, ErrUnknownSymbol
	}

	e.stats.TotalOrders++
	o := b.AddOrder(req)

	// A plain rest produces no transition inside the book; surface it
	// here so feed subscribers see the add.
	if o.Status == orderbook.StatusNew && o.LeavesQty > 0 {
		for _, fn := range e.orderSubs {
			fn(o)
		}
	}
	return o, nil
}

// Cancel routes a cancel to its book. Returns false when the symbol,
// the order id, or the order's active status is missing.
func (e *Engine) Cancel(req orderbook.CancelRequest) bool {
	e.journalRecord(wal.RecordCancel, wal.EncodeCancel(req))

	b, ok := e.books[req.Symbol]
	if !ok {
		e.stats.TotalRejects++
		return false
	}

	if !b.CancelOrder(req.OrderID) {
		return false
	}
	e.stats.TotalCancels++
	return true
}

// Amend routes an amend to its book.
func (e *Engine) Amend(req orderbook.AmendRequest) bool {
	e.journalRecord(wal.RecordAmend, wal.EncodeAmend(req))

	b, ok := e.books[req.Symbol]
	if !ok {
		e.stats.TotalRejects++
		return false
	}

	if !b.AmendOrder(req) {
		return false
	}
	e.stats.TotalAmends++
	return true
}

// Stats folds per-book gauges into the running counters.
func (e *Engine) Stats() EngineStats {
	s := e.stats
	s.ActiveOrders = 0
	s.SymbolsActive = uint64(len(e.books))
	for _, b := range e.books {
		s.ActiveOrders += uint64(b.ActiveOrders())
	}
	return s
}

func (e *Engine) journalRecord(t wal.RecordType, payload []byte) {
	if e.journal == nil {
		return
	}
	rec := &wal.Record{
		Type: t,
		Seq:  e.seq.Next(),
		Time: e.now().UnixNano(),
		Data: payload,
	}
	if err := e.journal.Append(rec); err != nil {
		e.log.Warn("journal append failed", zap.Error(err))
	}
}
