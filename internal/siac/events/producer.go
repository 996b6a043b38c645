// Package events publishes domain events for gateway writes. Production
// is asynchronous through a buffered queue so a slow broker never holds
// up the write path; when the queue is full events are dropped with a
// warning.
package events

import (
	"context"
	"encoding/json"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CompanyCreated   EventType = "company_created"
	CompanyUpdated   EventType = "company_updated"
	CompanyDeleted   EventType = "company_deleted"
	BranchAdded      EventType = "branch_added"
	BranchUpdated    EventType = "branch_updated"
	BranchDeleted    EventType = "branch_deleted"
	ProductAdded     EventType = "product_added"
	ProductUpdated   EventType = "product_updated"
	ProductDeleted   EventType = "product_deleted"
	StockUpdated     EventType = "stock_updated"
	ModuleInstalled  EventType = "module_installed"
	AccessUpdated    EventType = "access_updated"
	ProductsImported EventType = "products_imported"
)

// Event is the wire shape written to the topic. Payload carries the
// entity the event is about.
type Event struct {
	Type      EventType `json:"type"`
	CompanyID string    `json:"company_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
}

// NewProducer connects to the first broker to ensure the topic exists,
// retrying with exponential backoff, then starts the send loop.
func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	err := backoff.Retry(func() error {
		conn, err := kafka.Dial("tcp", brokers[0])
		if err != nil {
			return err
		}
		defer conn.Close()
		return conn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		})
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	p := &Producer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
			Topic:    topic,
		},
		events:    make(chan Event, 1000),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
	}

	go p.eventLoop()
	return p, nil
}

func (p *Producer) Produce(eventType EventType, companyID string, payload any) {
	select {
	case p.events <- Event{Type: eventType, CompanyID: companyID, Payload: payload}:
	default:
		p.logger.Warn("producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("company_id", companyID),
		)
	}
}

func (p *Producer) eventLoop() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("failed to serialize event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
		)
		return
	}
	key := event.CompanyID
	if key == "" {
		key = uuid.NewString()
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		p.logger.Error("failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("company_id", event.CompanyID),
		)
		return
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	if err := p.writer.Close(); err != nil {
		p.logger.Error("failed to close Kafka writer", zap.Error(err))
	}
}

// NopProducer discards events. Used when no brokers are configured.
type NopProducer struct{}

func (NopProducer) Produce(EventType, string, any) {}
