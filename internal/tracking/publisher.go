package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	publishQueueSize    = 256
	publishBatchTimeout = 10 * time.Millisecond
	publishTimeout      = 5 * time.Second
)

// Publisher announces committed custody events.
type Publisher interface {
	Publish(ctx context.Context, ev model.TrackingEvent) error
	Close() error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, model.TrackingEvent) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// KafkaPublisher writes events to a Kafka topic keyed by product id, so a
// product's events stay ordered within a partition. Publish only enqueues;
// a background worker delivers and logs failures.
type KafkaPublisher struct {
	writer *kafkaGo.Writer
	logger *zap.Logger
	queue  chan kafkaGo.Message
	done   chan struct{}
	once   sync.Once
}

// NewKafkaPublisher creates a publisher for topic on brokers and starts its
// delivery worker.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           publishBatchTimeout,
			WriteTimeout:           publishTimeout,
			MaxAttempts:            3,
		},
		logger: logger,
		queue:  make(chan kafkaGo.Message, publishQueueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			p.logger.Warn("Failed to publish tracking event",
				zap.String("topic", p.writer.Topic),
				zap.String("product_id", string(msg.Key)),
				zap.Error(err))
		}
	}
}

// Publish enqueues ev. It fails without blocking when the queue is full.
func (p *KafkaPublisher) Publish(ctx context.Context, ev model.TrackingEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafkaGo.Message{Key: []byte(ev.ProductID), Value: payload}
	select {
	case p.queue <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("publish queue full, dropped event %s", ev.ID)
	}
}

// Close drains the queue and closes the writer. Publish must not be called
// after Close.
func (p *KafkaPublisher) Close() error {
	p.once.Do(func() { close(p.queue) })
	<-p.done
	return p.writer.Close()
}
