// Package events forwards cart change broadcasts to Kafka so other services
// can follow a shopper's cart.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/aldeandersantos/AkkaUi/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultTopic      = "cart-updated"
	DefaultBufferSize = 256
	EventType         = "CartUpdated"
)

var ErrClosed = errors.New("publisher closed")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CartUpdated is the message body written for every cart change.
type CartUpdated struct {
	SessionID  string            `json:"session_id"`
	Cart       []domain.LineItem `json:"cart"`
	Totals     domain.Totals     `json:"totals"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// KafkaPublisher queues change events in memory and writes them from Run.
// Enqueueing never blocks the cart: a full queue drops the event.
type KafkaPublisher struct {
	writer       messageWriter
	logger       *zap.Logger
	queue        chan CartUpdated
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

type Option func(*KafkaPublisher)

func WithLogger(l *zap.Logger) Option {
	return func(p *KafkaPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithBufferSize(n int) Option {
	return func(p *KafkaPublisher) {
		if n > 0 {
			p.queue = make(chan CartUpdated, n)
		}
	}
}

func NewKafkaPublisher(topic string, brokers []string, opts ...Option) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, opts...)
}

func newPublisher(w messageWriter, opts ...Option) *KafkaPublisher {
	p := &KafkaPublisher{
		writer:       w,
		logger:       zap.NewNop(),
		queue:        make(chan CartUpdated, DefaultBufferSize),
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Listener returns a cart listener tagging events with sessionID.
func (p *KafkaPublisher) Listener(sessionID string) func(domain.ChangeEvent) {
	return func(evt domain.ChangeEvent) {
		if err := p.Enqueue(sessionID, evt); err != nil {
			p.logger.Warn("cart event dropped", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}

var errQueueFull = errors.New("publisher queue full")

func (p *KafkaPublisher) Enqueue(sessionID string, evt domain.ChangeEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	msg := CartUpdated{
		SessionID:  sessionID,
		Cart:       evt.Cart,
		Totals:     evt.Totals,
		OccurredAt: time.Now().UTC(),
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return errQueueFull
	}
}

// Run writes queued events until ctx is done or the publisher is closed.
func (p *KafkaPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-p.queue:
			if !ok || p.isClosed() {
				return
			}
			if err := p.publish(ctx, msg); err != nil {
				p.logger.Error("failed to publish cart event", zap.String("session_id", msg.SessionID), zap.Error(err))
			}
		}
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, msg CartUpdated) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.SessionID), // session id keeps one cart's events ordered
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventType)},
		},
	})
}

func (p *KafkaPublisher) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Close stops accepting events and closes the writer. Events still queued
// are discarded.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	return p.writer.Close()
}
