// Package broadcaster drains the trade outbox to Kafka. It is the
// replay half of the outbox pattern: trades land in the store in state
// NEW during matching, and this job periodically publishes them and
// marks them SENT, so publication survives a crash of either side.
package broadcaster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"minex/domain/orderbook"
	"minex/infra/outbox"
)

// Event is the published wire representation of a trade.
type Event struct {
	V         int    `json:"v"`
	Type      string `json:"type"`
	Seq       uint64 `json:"seq"`
	BuyID     uint64 `json:"buy_id"`
	SellID    uint64 `json:"sell_id"`
	Price     int64  `json:"price"`
	Qty       uint64 `json:"qty"`
	Aggressor string `json:"aggressor"`
	Symbol    string `json:"symbol"`
	TimeNS    int64  `json:"time_ns"`
}

type Broadcaster struct {
	store    *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *zap.Logger
}

func New(store *outbox.Outbox, brokers []string, topic string, interval time.Duration, log *zap.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}, nil
}

// NewWithProducer wires an existing producer; tests hand in a mock.
func NewWithProducer(store *outbox.Outbox, producer sarama.SyncProducer, topic string, interval time.Duration, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}
}

// Run drains on a ticker until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := b.DrainOnce(); err != nil {
				b.log.Warn("outbox drain failed", zap.Error(err))
			} else if n > 0 {
				b.log.Debug("outbox drained", zap.Int("published", n))
			}
		}
	}
}

// DrainOnce publishes every NEW trade and marks it SENT. Returns the
// number published.
func (b *Broadcaster) DrainOnce() (int, error) {
	published := 0
	err := b.store.ScanByState(outbox.StateNew, func(seq orderbook.SeqNum, rec outbox.Record) error {
		payload, err := json.Marshal(eventFrom(rec.Trade))
		if err != nil {
			return err
		}

		_, _, err = b.producer.SendMessage(&sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(rec.Trade.Symbol),
			Value: sarama.ByteEncoder(payload),
		})
		if err != nil {
			return b.store.UpdateState(seq, outbox.StateFailed, rec.Retries+1)
		}

		published++
		return b.store.UpdateState(seq, outbox.StateSent, rec.Retries)
	})
	return published, err
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}

func eventFrom(t orderbook.Trade) Event {
	return Event{
		V:         1,
		Type:      "trade",
		Seq:       t.Sequence,
		BuyID:     t.BuyOrderID,
		SellID:    t.SellOrderID,
		Price:     t.Price,
		Qty:       t.Quantity,
		Aggressor: t.Aggressor.String(),
		Symbol:    t.Symbol,
		TimeNS:    t.ExecTime.UnixNano(),
	}
}
