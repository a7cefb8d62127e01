package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"minex/domain/orderbook"
)

type Writer struct {
	Dir string
}

// Write dumps all active orders of the book, bids best-first then asks
// best-first.
func (w *Writer) Write(name string, book *orderbook.OrderBook) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(w.Dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	s := Snapshot{
		Symbol:  book.Symbol(),
		Seq:     book.NextSequence(),
		Created: time.Now(),
		Orders:  make([]OrderEntry, 0, 1024),
	}

	collect := func(lvl *orderbook.PriceLevel) bool {
		lvl.Walk(func(o *orderbook.Order) bool {
			if o.IsActive() {
				s.Orders = append(s.Orders, OrderEntry{
					ID:       o.ID,
					Side:     uint8(o.Side),
					Type:     uint8(o.Type),
					Tif:      uint8(o.Tif),
					Price:    o.Price,
					Quantity: o.Quantity,
					Leaves:   o.LeavesQty,
				})
			}
			return true
		})
		return true
	}

	book.WalkBids(collect)
	book.WalkAsks(collect)

	return gob.NewEncoder(f).Encode(&s)
}
