// Package feed publishes incremental book updates and snapshots in a
// tagged fixed-layout protocol modeled on ITCH-style feeds. Messages
// carry their own gap-detectable sequence; serialization writes the
// struct's fields packed in little-endian order (a production feed
// would use network byte order).
package feed

import (
	"bytes"
	"encoding/binary"

	"minex/domain/orderbook"
)

type MessageType byte

const (
	TypeAdd      MessageType = 'A' // new resting order
	TypeExecute  MessageType = 'X' // resting order (partially) executed
	TypeDelete   MessageType = 'D' // order removed by cancel
	TypeReplace  MessageType = 'U' // order amended
	TypeSnapshot MessageType = 'S' // book state
	TypeTrade    MessageType = 'T' // execution report
	TypeQuote    MessageType = 'Q' // BBO change
	TypeSystem   MessageType = 'E' // session event
)

// Message is a flat tagged record. Unused payload fields are zero; a
// flat struct keeps the hot path free of interface dispatch and makes
// the wire size fixed.
type Message struct {
	Type        MessageType
	Sequence    uint64
	TimestampNS uint64
	Symbol      [16]byte

	OrderID   uint64
	Side      uint8
	Price     int64
	Quantity  uint64
	LeavesQty uint64

	MatchID       uint64
	AggressorSide uint8

	BestBid  int64
	BestAsk  int64
	BidDepth uint64
	AskDepth uint64

	BidPrice int64
	AskPrice int64
	BidSize  uint64
	AskSize  uint64
}

// SymbolString trims the fixed-width tag back to a string.
func (m *Message) SymbolString() string {
	i := bytes.IndexByte(m.Symbol[:], 0)
	if i < 0 {
		i = len(m.Symbol)
	}
	return string(m.Symbol[:i])
}

// Encode serializes the message; the layout is fixed-size, so framing
// is implicit.
func (m *Message) Encode() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, m)
	return buf.Bytes()
}

// Decode reads one message back.
func Decode(b []byte) (Message, error) {
	var m Message
	err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &m)
	return m, err
}

// EncodedSize is the fixed wire size of one message.
func EncodedSize() int {
	return binary.Size(Message{})
}

// CheckGap reports whether next follows prev with no missing
// sequence numbers.
func CheckGap(prev, next uint64) bool {
	return next == prev+1
}

func symbolTag(s string) [16]byte {
	var tag [16]byte
	copy(tag[:], s)
	return tag
}

// ---- constructors ----

func MakeAdd(seq uint64, o *orderbook.Order) Message {
	return Message{
		Type:        TypeAdd,
		Sequence:    seq,
		TimestampNS: uint64(o.EntryTime.UnixNano()),
		Symbol:      symbolTag(o.Symbol),
		OrderID:     o.ID,
		Side:        uint8(o.Side),
		Price:       o.Price,
		Quantity:    o.LeavesQty,
	}
}

func MakeExecute(seq uint64, o *orderbook.Order) Message {
	return Message{
		Type:        TypeExecute,
		Sequence:    seq,
		TimestampNS: uint64(o.LastUpdate.UnixNano()),
		Symbol:      symbolTag(o.Symbol),
		OrderID:     o.ID,
		Side:        uint8(o.Side),
		Price:       o.Price,
		Quantity:    o.FilledQty,
		LeavesQty:   o.LeavesQty,
	}
}

func MakeDelete(seq uint64, o *orderbook.Order) Message {
	return Message{
		Type:        TypeDelete,
		Sequence:    seq,
		TimestampNS: uint64(o.LastUpdate.UnixNano()),
		Symbol:      symbolTag(o.Symbol),
		OrderID:     o.ID,
		Side:        uint8(o.Side),
		Price:       o.Price,
	}
}

func MakeReplace(seq uint64, o *orderbook.Order) Message {
	return Message{
		Type:        TypeReplace,
		Sequence:    seq,
		TimestampNS: uint64(o.LastUpdate.UnixNano()),
		Symbol:      symbolTag(o.Symbol),
		OrderID:     o.ID,
		Side:        uint8(o.Side),
		Price:       o.Price,
		Quantity:    o.Quantity,
		LeavesQty:   o.LeavesQty,
	}
}

func MakeTrade(seq uint64, t orderbook.Trade) Message {
	return Message{
		Type:          TypeTrade,
		Sequence:      seq,
		TimestampNS:   uint64(t.ExecTime.UnixNano()),
		Symbol:        symbolTag(t.Symbol),
		OrderID:       t.BuyOrderID,
		MatchID:       t.SellOrderID,
		Price:         t.Price,
		Quantity:      t.Quantity,
		AggressorSide: uint8(t.Aggressor),
	}
}

func MakeQuote(seq uint64, tsNS uint64, symbol string, bidPrice int64, bidSize uint64, askPrice int64, askSize uint64) Message {
	return Message{
		Type:        TypeQuote,
		Sequence:    seq,
		TimestampNS: tsNS,
		Symbol:      symbolTag(symbol),
		BidPrice:    bidPrice,
		BidSize:     bidSize,
		AskPrice:    askPrice,
		AskSize:     askSize,
	}
}

func MakeSnapshot(seq uint64, tsNS uint64, book *orderbook.OrderBook) Message {
	msg := Message{
		Type:        TypeSnapshot,
		Sequence:    seq,
		TimestampNS: tsNS,
		Symbol:      symbolTag(book.Symbol()),
		BidDepth:    book.BidDepth(0),
		AskDepth:    book.AskDepth(0),
	}
	if bb, ok := book.BestBid(); ok {
		msg.BestBid = bb
	}
	if ba, ok := book.BestAsk(); ok {
		msg.BestAsk = ba
	}
	return msg
}
