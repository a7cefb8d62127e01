package orderbook

import "time"

// TradeHandler observes executions; OrderHandler observes order status
// transitions. Both fire synchronously inside the mutating call.
type (
	TradeHandler func(Trade)
	OrderHandler func(*Order)
)

// BookLevel is a read-only depth row for snapshots.
type BookLevel struct {
	Price      Price
	Quantity   Quantity
	OrderCount int
}

// OrderBook owns the arena, both side trees, the id index, and the
// sequence counter for one symbol.
type OrderBook struct {
	symbol string

	bids *RBTree
	asks *RBTree

	index map[OrderID]*Order
	arena *Arena

	nextSeq SeqNum

	tradeCount  uint64
	totalVolume uint64

	onTrade TradeHandler
	onOrder OrderHandler

	now func() time.Time
}

const defaultArenaCapacity = 65536

func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol:  symbol,
		bids:    NewRBTree(),
		asks:    NewRBTree(),
		index:   make(map[OrderID]*Order),
		arena:   NewArena(defaultArenaCapacity),
		nextSeq: 1,
		now:     time.Now,
	}
}

func (b *OrderBook) SetTradeHandler(fn TradeHandler) { b.onTrade = fn }
func (b *OrderBook) SetOrderHandler(fn OrderHandler) { b.onOrder = fn }

// SetClock replaces the book's time source. The simulator supplies
// logical event time so replays are reproducible.
func (b *OrderBook) SetClock(now func() time.Time) { b.now = now }

// AddOrder allocates, sequences, matches, and then rests or cancels the
// remainder according to the order type. The returned pointer stays
// valid for the lifetime of the book.
func (b *OrderBook) AddOrder(req NewOrderRequest) *Order {
	o := b.arena.Get()
	now := b.now()

	o.ID = req.ID
	o.Sequence = b.nextSeq
	b.nextSeq++
	o.Side = req.Side
	o.Type = req.Type
	o.Tif = req.Tif
	o.Price = req.Price
	o.Quantity = req.Quantity
	o.FilledQty = 0
	o.LeavesQty = req.Quantity
	o.EntryTime = now
	o.LastUpdate = now
	o.Status = StatusNew
	o.Symbol = req.Symbol

	b.index[o.ID] = o

	b.match(o)

	if o.LeavesQty > 0 {
		switch o.Type {
		case Limit:
			b.restOrder(o)
		case Market, IOC, FOK:
			// FOK reaches here only when the pre-check failed, in
			// which case no fills occurred.
			o.cancel(b.now())
			delete(b.index, o.ID)
			if b.onOrder != nil {
				b.onOrder(o)
			}
		}
	} else {
		delete(b.index, o.ID)
	}

	return o
}

// CancelOrder unlinks and deactivates an order. Returns false when the
// id is unknown or the order is no longer active.
func (b *OrderBook) CancelOrder(id OrderID) bool {
	o, ok := b.index[id]
	if !ok || !o.IsActive() {
		return false
	}

	b.removeFromBook(o)
	o.cancel(b.now())
	delete(b.index, id)

	if b.onOrder != nil {
		b.onOrder(o)
	}
	return true
}

// AmendOrder changes price and/or quantity. A price change or a
// quantity increase loses queue priority: the order is unlinked, its
// sequence is reassigned immediately after the unlink, and it re-enters
// matching. A pure quantity reduction keeps priority in place.
func (b *OrderBook) AmendOrder(req AmendRequest) bool {
	o, ok := b.index[req.OrderID]
	if !ok || !o.IsActive() {
		return false
	}

	priceChanged := req.NewPrice != 0 && req.NewPrice != o.Price
	qtyIncreased := req.NewQuantity != 0 && req.NewQuantity > o.LeavesQty

	switch {
	case priceChanged || qtyIncreased:
		b.removeFromBook(o)

		if req.NewPrice != 0 {
			o.Price = req.NewPrice
		}
		if req.NewQuantity != 0 {
			// Amending below the filled quantity floors at the fill;
			// leaves can never go negative and filled+leaves stays
			// within quantity.
			if req.NewQuantity <= o.FilledQty {
				o.Quantity = o.FilledQty
				o.LeavesQty = 0
			} else {
				o.Quantity = req.NewQuantity
				o.LeavesQty = req.NewQuantity - o.FilledQty
			}
		}
		o.Sequence = b.nextSeq
		b.nextSeq++
		o.Status = StatusAmended
		o.LastUpdate = b.now()

		b.match(o)
		if o.LeavesQty > 0 && o.Type == Limit {
			b.restOrder(o)
		} else if o.IsFilled() {
			delete(b.index, o.ID)
		}

	case req.NewQuantity != 0 && req.NewQuantity < o.LeavesQty:
		reduction := o.LeavesQty - req.NewQuantity
		o.LeavesQty = req.NewQuantity
		o.Quantity -= reduction
		o.Status = StatusAmended
		o.LastUpdate = b.now()

		side := b.bids
		if !o.IsBuy() {
			side = b.asks
		}
		if lvl := side.Find(o.Price); lvl != nil {
			lvl.ReduceQuantity(reduction)
		}
	}

	if b.onOrder != nil {
		b.onOrder(o)
	}
	return true
}

// ---- matching ----

func (b *OrderBook) match(incoming *Order) {
	if incoming.Type == FOK && !b.canFillCompletely(incoming) {
		return // caller cancels with zero fills
	}

	if incoming.IsBuy() {
		b.matchAgainst(incoming, b.asks, func(orderPrice, levelPrice Price) bool {
			return orderPrice >= levelPrice || orderPrice == PriceMarket
		})
	} else {
		b.matchAgainst(incoming, b.bids, func(orderPrice, levelPrice Price) bool {
			return orderPrice <= levelPrice || orderPrice == PriceMarket
		})
	}
}

func (b *OrderBook) matchAgainst(incoming *Order, contra *RBTree, priceOK func(Price, Price) bool) {
	for incoming.LeavesQty > 0 {
		var level *PriceLevel
		if incoming.IsBuy() {
			level = contra.Min()
		} else {
			level = contra.Max()
		}
		if level == nil {
			return
		}
		if !priceOK(incoming.Price, level.Price) {
			return // contra side is sorted; nothing further crosses
		}

		for incoming.LeavesQty > 0 && !level.Empty() {
			resting := level.Front()

			fill := min(incoming.LeavesQty, resting.LeavesQty)
			now := b.now()

			trade := Trade{
				Sequence:  b.nextSeq,
				Price:     resting.Price,
				Quantity:  fill,
				ExecTime:  now,
				Aggressor: incoming.Side,
				Symbol:    incoming.Symbol,
			}
			b.nextSeq++
			if incoming.IsBuy() {
				trade.BuyOrderID = incoming.ID
				trade.SellOrderID = resting.ID
			} else {
				trade.BuyOrderID = resting.ID
				trade.SellOrderID = incoming.ID
			}

			// The aggregate must be reduced before fill mutates
			// LeavesQty; it tracks leaves of still-linked orders.
			level.ReduceQuantity(fill)
			incoming.fill(fill, now)
			resting.fill(fill, now)

			if b.onTrade != nil {
				b.onTrade(trade)
			}
			if b.onOrder != nil {
				b.onOrder(resting)
			}

			b.tradeCount++
			b.totalVolume += fill

			if resting.IsFilled() {
				level.PopFront()
				delete(b.index, resting.ID)
			}
		}

		if level.Empty() {
			contra.Delete(level.Price)
		}
	}
}

// canFillCompletely walks the contra side summing level aggregates
// while the price test holds, stopping early once the incoming quantity
// is covered.
func (b *OrderBook) canFillCompletely(o *Order) bool {
	needed := o.LeavesQty

	walk := func(lvl *PriceLevel) bool {
		if o.IsBuy() && o.Price < lvl.Price && o.Price != PriceMarket {
			return false
		}
		if !o.IsBuy() && o.Price > lvl.Price && o.Price != PriceMarket {
			return false
		}
		needed -= min(needed, lvl.TotalQty)
		return needed > 0
	}

	if o.IsBuy() {
		b.asks.WalkAsc(walk)
	} else {
		b.bids.WalkDesc(walk)
	}
	return needed == 0
}

func (b *OrderBook) restOrder(o *Order) {
	side := b.bids
	if !o.IsBuy() {
		side = b.asks
	}
	side.GetOrCreate(o.Price).PushBack(o)
}

func (b *OrderBook) removeFromBook(o *Order) {
	side := b.bids
	if !o.IsBuy() {
		side = b.asks
	}
	lvl := side.Find(o.Price)
	if lvl == nil {
		return
	}
	lvl.Remove(o)
	if lvl.Empty() {
		side.Delete(lvl.Price)
	}
}

// ---- queries ----

func (b *OrderBook) BestBid() (Price, bool) {
	lvl := b.bids.Max()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

func (b *OrderBook) BestAsk() (Price, bool) {
	lvl := b.asks.Min()
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

func (b *OrderBook) MidPrice() (Price, bool) {
	bb, okB := b.BestBid()
	ba, okA := b.BestAsk()
	if !okB || !okA {
		return 0, false
	}
	return (bb + ba) / 2, true
}

func (b *OrderBook) Spread() (Price, bool) {
	bb, okB := b.BestBid()
	ba, okA := b.BestAsk()
	if !okB || !okA {
		return 0, false
	}
	return ba - bb, true
}

// BidDepth sums resting bid quantity over the top maxLevels levels
// (all levels when 0).
func (b *OrderBook) BidDepth(maxLevels int) Quantity {
	return sideDepth(b.bids.WalkDesc, maxLevels)
}

func (b *OrderBook) AskDepth(maxLevels int) Quantity {
	return sideDepth(b.asks.WalkAsc, maxLevels)
}

func sideDepth(walk func(func(*PriceLevel) bool), maxLevels int) Quantity {
	var total Quantity
	count := 0
	walk(func(lvl *PriceLevel) bool {
		total += lvl.TotalQty
		count++
		return maxLevels == 0 || count < maxLevels
	})
	return total
}

// GetBids returns up to maxLevels depth rows, best first.
func (b *OrderBook) GetBids(maxLevels int) []BookLevel {
	return sideLevels(b.bids.WalkDesc, maxLevels)
}

func (b *OrderBook) GetAsks(maxLevels int) []BookLevel {
	return sideLevels(b.asks.WalkAsc, maxLevels)
}

func sideLevels(walk func(func(*PriceLevel) bool), maxLevels int) []BookLevel {
	out := make([]BookLevel, 0, maxLevels)
	walk(func(lvl *PriceLevel) bool {
		out = append(out, BookLevel{Price: lvl.Price, Quantity: lvl.TotalQty, OrderCount: lvl.OrderCount})
		return len(out) < maxLevels
	})
	return out
}

// Lookup returns the indexed order for id, or nil. Only indexed orders
// participate in matching.
func (b *OrderBook) Lookup(id OrderID) *Order { return b.index[id] }

func (b *OrderBook) Symbol() string       { return b.symbol }
func (b *OrderBook) TradeCount() uint64   { return b.tradeCount }
func (b *OrderBook) TotalVolume() uint64  { return b.totalVolume }
func (b *OrderBook) NextSequence() SeqNum { return b.nextSeq }
func (b *OrderBook) ActiveOrders() int    { return len(b.index) }

// WalkBids visits bid levels best first; WalkAsks likewise for asks.
func (b *OrderBook) WalkBids(fn func(*PriceLevel) bool) { b.bids.WalkDesc(fn) }
func (b *OrderBook) WalkAsks(fn func(*PriceLevel) bool) { b.asks.WalkAsc(fn) }

// ---- invariant checks (test support) ----

// CheckNoCrossedBook verifies best_bid < best_ask whenever both sides
// are populated.
func (b *OrderBook) CheckNoCrossedBook() bool {
	bb, okB := b.BestBid()
	ba, okA := b.BestAsk()
	if !okB || !okA {
		return true
	}
	return bb < ba
}

// CheckFIFO verifies link order equals sequence order in every level.
func (b *OrderBook) CheckFIFO() bool {
	ok := true
	check := func(lvl *PriceLevel) bool {
		var prevSeq SeqNum
		lvl.Walk(func(o *Order) bool {
			if o.Sequence <= prevSeq {
				ok = false
				return false
			}
			prevSeq = o.Sequence
			return true
		})
		return ok
	}
	b.bids.WalkAsc(check)
	b.asks.WalkAsc(check)
	return ok
}

// CheckLevelAggregates verifies each level's cached TotalQty and
// OrderCount against the linked orders.
func (b *OrderBook) CheckLevelAggregates() bool {
	ok := true
	check := func(lvl *PriceLevel) bool {
		var sum Quantity
		count := 0
		lvl.Walk(func(o *Order) bool {
			sum += o.LeavesQty
			count++
			return true
		})
		if sum != lvl.TotalQty || count != lvl.OrderCount {
			ok = false
		}
		return ok
	}
	b.bids.WalkAsc(check)
	b.asks.WalkAsc(check)
	return ok
}

func min(a, b Quantity) Quantity {
	if a < b {
		return a
	}
	return b
}
