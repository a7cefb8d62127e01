package feed

import "context"

// Producer is the transport the KafkaSink publishes through; satisfied
// by infra/kafka.Producer.
type Producer interface {
	Send(ctx context.Context, key, value []byte) error
}

// KafkaSink forwards drained messages to a Kafka topic keyed by
// symbol, so per-symbol ordering survives partitioning.
type KafkaSink struct {
	producer Producer
	ctx      context.Context
}

func NewKafkaSink(ctx context.Context, producer Producer) *KafkaSink {
	return &KafkaSink{producer: producer, ctx: ctx}
}

func (k *KafkaSink) Deliver(m Message) error {
	return k.producer.Send(k.ctx, []byte(m.SymbolString()), m.Encode())
}
