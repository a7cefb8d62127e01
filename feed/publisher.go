package feed

import (
	"os"

	"minex/domain/orderbook"
	"minex/infra/memory"
	"minex/infra/sequence"
	"minex/service"
)

// Sink receives drained feed messages.
type Sink interface {
	Deliver(Message) error
}

// Stats counts published messages by type. Dropped counts ring-full
// back-pressure events.
type Stats struct {
	Total     uint64
	Adds      uint64
	Executes  uint64
	Deletes   uint64
	Replaces  uint64
	Trades    uint64
	Quotes    uint64
	Snapshots uint64
	Dropped   uint64
	SinkErrs  uint64
}

// Publisher transforms engine events into the feed protocol. Messages
// go through a bounded SPSC ring; Flush drains the ring to the
// attached sinks and retains every message for the binary dump.
type Publisher struct {
	seq   *sequence.Sequencer
	ring  *memory.Ring[Message]
	sinks []Sink
	book  *orderbook.OrderBook

	messages []Message
	stats    Stats
}

const defaultRingSize = 1 << 16

func NewPublisher() *Publisher {
	return &Publisher{
		seq:  sequence.New(0),
		ring: memory.NewRing[Message](defaultRingSize),
	}
}

func (p *Publisher) AddSink(s Sink) { p.sinks = append(p.sinks, s) }

// Attach subscribes to the engine's fan-out for one book. Trades emit
// T then Q; order transitions emit A, U, X, or D depending on status.
func (p *Publisher) Attach(e *service.Engine, book *orderbook.OrderBook) {
	p.book = book

	e.OnTrade(func(t orderbook.Trade) {
		p.publish(MakeTrade(p.seq.Next(), t), &p.stats.Trades)
		p.publishQuote(uint64(t.ExecTime.UnixNano()))
	})

	e.OnOrder(func(o *orderbook.Order) {
		seq := p.seq.Next()
		switch o.Status {
		case orderbook.StatusNew:
			p.publish(MakeAdd(seq, o), &p.stats.Adds)
		case orderbook.StatusAmended:
			p.publish(MakeReplace(seq, o), &p.stats.Replaces)
		case orderbook.StatusPartiallyFilled, orderbook.StatusFilled:
			p.publish(MakeExecute(seq, o), &p.stats.Executes)
		case orderbook.StatusCancelled:
			p.publish(MakeDelete(seq, o), &p.stats.Deletes)
		}
	})
}

// PublishSnapshot emits a full book snapshot for consumer recovery.
func (p *Publisher) PublishSnapshot(tsNS uint64) {
	if p.book == nil {
		return
	}
	p.publish(MakeSnapshot(p.seq.Next(), tsNS, p.book), &p.stats.Snapshots)
}

func (p *Publisher) publishQuote(tsNS uint64) {
	if p.book == nil {
		return
	}
	bb, okB := p.book.BestBid()
	ba, okA := p.book.BestAsk()
	if !okB || !okA {
		return
	}
	var bidSize, askSize uint64
	p.book.WalkBids(func(lvl *orderbook.PriceLevel) bool {
		bidSize = lvl.TotalQty
		return false
	})
	p.book.WalkAsks(func(lvl *orderbook.PriceLevel) bool {
		askSize = lvl.TotalQty
		return false
	})
	p.publish(MakeQuote(p.seq.Next(), tsNS, p.book.Symbol(), bb, bidSize, ba, askSize), &p.stats.Quotes)
}

func (p *Publisher) publish(m Message, counter *uint64) {
	if !p.ring.Push(m) {
		// Ring full is the back-pressure signal; drop and count
		// rather than block the matching thread.
		p.stats.Dropped++
		return
	}
	p.stats.Total++
	*counter++
}

// Flush drains the ring to every sink and retains the messages.
// Returns the number drained.
func (p *Publisher) Flush() int {
	n := 0
	for {
		m, ok := p.ring.Pop()
		if !ok {
			return n
		}
		p.messages = append(p.messages, m)
		for _, s := range p.sinks {
			if err := s.Deliver(m); err != nil {
				p.stats.SinkErrs++
			}
		}
		n++
	}
}

func (p *Publisher) Messages() []Message { return p.messages }
func (p *Publisher) Stats() Stats        { return p.stats }
func (p *Publisher) Sequence() uint64    { return p.seq.Current() }

// DumpToFile writes every retained message in wire layout for replay.
func (p *Publisher) DumpToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := range p.messages {
		if _, err := f.Write(p.messages[i].Encode()); err != nil {
			return err
		}
	}
	return nil
}
