package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/gomarketplace/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTopic = "cart-events"
	queueSize    = 256
	writeTimeout = 5 * time.Second
)

// CartEvent is the message published after every cart change.
type CartEvent struct {
	SessionID  string            `json:"session_id"`
	Sequence   uint64            `json:"sequence"`
	Items      []domain.CartItem `json:"items"`
	Count      int               `json:"count"`
	Total      float64           `json:"total"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CartEventPublisher forwards cart snapshots to Kafka off the caller's path.
// Snapshots are queued in order; when the queue is full new ones are dropped
// and counted.
type CartEventPublisher struct {
	writer    messageWriter
	log       logrus.FieldLogger
	sessionID string
	events    chan CartEvent
	seq       atomic.Uint64
	dropped   atomic.Uint64
}

func NewCartEventPublisher(topic string, log logrus.FieldLogger, brokers ...string) *CartEventPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, log)
}

func newPublisher(w messageWriter, log logrus.FieldLogger) *CartEventPublisher {
	return &CartEventPublisher{
		writer:    w,
		log:       log,
		sessionID: uuid.NewString(),
		events:    make(chan CartEvent, queueSize),
	}
}

// Enqueue has the service.Listener signature and never blocks.
func (p *CartEventPublisher) Enqueue(items []domain.CartItem) {
	ev := CartEvent{
		SessionID:  p.sessionID,
		Sequence:   p.seq.Add(1),
		Items:      items,
		OccurredAt: time.Now().UTC(),
	}
	ev.Count, ev.Total = domain.Totals(items)

	select {
	case p.events <- ev:
	default:
		p.dropped.Add(1)
		p.log.WithField("sequence", ev.Sequence).Warn("cart event queue full, dropping event")
	}
}

// Run publishes queued events until ctx is cancelled.
func (p *CartEventPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if err := p.publish(ctx, ev); err != nil {
				p.log.WithError(err).WithField("sequence", ev.Sequence).Error("failed to publish cart event")
			}
		}
	}
}

func (p *CartEventPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *CartEventPublisher) Close() error {
	return p.writer.Close()
}

func (p *CartEventPublisher) publish(ctx context.Context, ev CartEvent) error {
	if ev.Items == nil {
		ev.Items = []domain.CartItem{}
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal cart event failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(ev.SessionID), // one partition per session keeps events ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("cart.updated")},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
