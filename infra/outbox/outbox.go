// Package outbox persists executed trades in a pebble store with a
// delivery state machine (NEW → SENT → ACKED). The broadcaster drains
// NEW records, so a crash between execution and publication loses
// nothing: undelivered trades are still sitting in the store.
package outbox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"minex/domain/orderbook"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Record pairs a trade with its delivery state.
type Record struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Trade       orderbook.Trade
}

// Outbox is a durable trade store backed by pebble.
type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// PutNew inserts a freshly executed trade in state NEW.
func (o *Outbox) PutNew(t orderbook.Trade) error {
	rec := Record{State: StateNew, Trade: t}
	return o.db.Set(keyFor(t.Sequence), encodeRecord(rec), pebble.Sync)
}

// UpdateState transitions a record after a send, ack, or failure.
func (o *Outbox) UpdateState(seq orderbook.SeqNum, state State, retries uint32) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// Delete removes an ACKED record.
func (o *Outbox) Delete(seq orderbook.SeqNum) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

func (o *Outbox) Get(seq orderbook.SeqNum) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	return decodeRecord(val)
}

// ScanByState iterates all records in the given state in sequence
// order. The broadcaster uses this to drain NEW trades.
func (o *Outbox) ScanByState(state State, fn func(seq orderbook.SeqNum, rec Record) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("trade/"),
		UpperBound: []byte("trade/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if rec.State != state {
			continue
		}

		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(seq, rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// ---- encoding ----

// value: [state:1][retries:4][lastAttempt:8][trade payload]
func encodeRecord(r Record) []byte {
	buf := make([]byte, 0, 13+tradeEncodedSize(r.Trade))
	buf = append(buf, byte(r.State))
	buf = binary.BigEndian.AppendUint32(buf, r.Retries)
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.LastAttempt))
	return appendTrade(buf, r.Trade)
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) < 13 {
		return Record{}, errors.New("outbox: record too short")
	}
	rec := Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
	}
	t, err := readTrade(b[13:])
	if err != nil {
		return Record{}, err
	}
	rec.Trade = t
	return rec, nil
}

func tradeEncodedSize(t orderbook.Trade) int {
	return 8*5 + 8 + 1 + 1 + len(t.Symbol)
}

func appendTrade(buf []byte, t orderbook.Trade) []byte {
	buf = binary.BigEndian.AppendUint64(buf, t.Sequence)
	buf = binary.BigEndian.AppendUint64(buf, t.BuyOrderID)
	buf = binary.BigEndian.AppendUint64(buf, t.SellOrderID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.Price))
	buf = binary.BigEndian.AppendUint64(buf, t.Quantity)
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.ExecTime.UnixNano()))
	buf = append(buf, byte(t.Aggressor))
	sym := t.Symbol
	if len(sym) > 16 {
		sym = sym[:16]
	}
	buf = append(buf, byte(len(sym)))
	return append(buf, sym...)
}

func readTrade(b []byte) (orderbook.Trade, error) {
	var t orderbook.Trade
	if len(b) < 8*6+2 {
		return t, errors.New("outbox: trade payload too short")
	}
	t.Sequence = binary.BigEndian.Uint64(b[0:8])
	t.BuyOrderID = binary.BigEndian.Uint64(b[8:16])
	t.SellOrderID = binary.BigEndian.Uint64(b[16:24])
	t.Price = orderbook.Price(binary.BigEndian.Uint64(b[24:32]))
	t.Quantity = binary.BigEndian.Uint64(b[32:40])
	t.ExecTime = time.Unix(0, int64(binary.BigEndian.Uint64(b[40:48])))
	t.Aggressor = orderbook.Side(b[48])
	n := int(b[49])
	if len(b) < 50+n {
		return t, errors.New("outbox: trade payload too short")
	}
	t.Symbol = string(b[50 : 50+n])
	return t, nil
}

func keyFor(seq orderbook.SeqNum) []byte {
	return []byte(fmt.Sprintf("trade/%020d", seq))
}

func parseKey(b []byte) (orderbook.SeqNum, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("trade/"))), "%d", &seq)
	return seq, err
}
