package kafka

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/vladislavdragonenkov/ams/internal/domain"
)

const eventSchemaVersion = 1

// auctionEventEnvelope — формат сообщения в topic'е аукционных событий.
// Потребители разбирают payload по event_type.
type auctionEventEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// OutboxTopicPublisher доставляет outbox-события аукционов в один Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
// Пустой topic заменяется topic'ом аукционных событий по умолчанию.
func NewOutboxPublisher(producer *Producer, topic string) domain.OutboxPublisher {
	if topic == "" {
		topic = TopicAuctionEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic}
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka outbox publisher is not initialized")
	}
	return p.producer.PublishEvent(p.topic, partitionKey(event), wrapEvent(event))
}

// partitionKey возвращает ключ партиционирования: ID аукциона, чтобы
// события одного аукциона читались в порядке записи.
func partitionKey(event domain.OutboxMessage) string {
	if event.AggregateID != "" {
		return event.AggregateID
	}
	return event.ID
}

func wrapEvent(event domain.OutboxMessage) auctionEventEnvelope {
	return auctionEventEnvelope{
		SchemaVersion: eventSchemaVersion,
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   time.Now().UTC(),
	}
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
