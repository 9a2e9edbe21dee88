package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nilm987521/gofep/internal/logger"
)

// KafkaConfig configures the forwarder that mirrors bus events onto a
// Kafka topic.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration

	// Types limits which event types are forwarded; empty means all.
	Types []string
}

// KafkaForwarder subscribes to the bus and writes each event as a JSON
// record keyed by event type, so per-type ordering survives partitioning.
type KafkaForwarder struct {
	writer *kafka.Writer
	bus    *Bus
	ch     chan Event
	done   chan struct{}
}

// NewKafkaForwarder attaches a forwarder to the bus and starts its pump
// goroutine. Call Close to detach and flush.
func NewKafkaForwarder(cfg KafkaConfig, bus *Bus) *KafkaForwarder {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	f := &KafkaForwarder{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			Compression:            kafka.Snappy,
			BatchSize:              batchSize,
			BatchTimeout:           batchTimeout,
			Async:                  true,
			AllowAutoTopicCreation: true,
		},
		bus:  bus,
		ch:   bus.Subscribe(cfg.Types...),
		done: make(chan struct{}),
	}
	go f.pump()
	return f
}

// pump drains the subscription until the bus closes the channel.
func (f *KafkaForwarder) pump() {
	defer close(f.done)
	for e := range f.ch {
		payload, err := json.Marshal(e)
		if err != nil {
			logger.Error("kafka forwarder: marshal event", "type", e.Type, "error", err)
			continue
		}
		err = f.writer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte(e.Type),
			Value: payload,
		})
		if err != nil {
			logger.Error("kafka forwarder: write", "type", e.Type, "error", err)
		}
	}
}

// Close detaches from the bus, waits for the pump to drain and closes the
// writer, flushing async batches.
func (f *KafkaForwarder) Close() error {
	f.bus.Unsubscribe(f.ch)
	<-f.done
	return f.writer.Close()
}
