package domain

import (
	"strconv"
	"time"
)

// AuctionAggregateType — тип агрегата в outbox-сообщениях движка.
const AuctionAggregateType = "auction"

// OutboxPublisher доставляет события жизненного цикла аукциона наружу
// (Kafka). Publish обязан быть идемпотентным: worker может повторить
// доставку после сбоя между отправкой и MarkSent.
type OutboxPublisher interface {
	Publish(event OutboxMessage) error
}

// OutboxRepository — transactional outbox: события копятся рядом с данными
// аукционов и публикуются асинхронно в порядке постановки.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage — одно событие жизненного цикла аукциона, ожидающее публикации.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// NewAuctionEventMessage собирает outbox-сообщение для события аукциона.
// AggregateID — строковый ID аукциона; он же служит ключом партиционирования
// при публикации, сохраняя порядок событий одного аукциона.
func NewAuctionEventMessage(auctionID uint64, eventType string, payload []byte) OutboxMessage {
	return OutboxMessage{
		AggregateType: AuctionAggregateType,
		AggregateID:   strconv.FormatUint(auctionID, 10),
		EventType:     eventType,
		Payload:       payload,
	}
}

// OutboxStats — размер и возраст backlog неопубликованных событий.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
