package snapshot

import (
	"encoding/gob"
	"os"

	"minex/domain/orderbook"
)

// Load reads a snapshot file back into memory.
func Load(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Restore replays the snapshot's resting orders into a fresh book.
// Entries are stored in priority order, so re-adding them preserves
// price-time priority.
func Restore(s *Snapshot, book *orderbook.OrderBook) {
	for _, oe := range s.Orders {
		book.AddOrder(orderbook.NewOrderRequest{
			ID:       oe.ID,
			Side:     orderbook.Side(oe.Side),
			Type:     orderbook.OrderType(oe.Type),
			Tif:      orderbook.TimeInForce(oe.Tif),
			Price:    oe.Price,
			Quantity: oe.Leaves,
			Symbol:   s.Symbol,
		})
	}
}
