package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Auction события
	EventTypeAuctionStarted   EventType = "auction.started"
	EventTypeBidPlaced        EventType = "bid.placed"
	EventTypeAuctionClosed    EventType = "auction.closed"
	EventTypeWinnerDetermined EventType = "winner.determined"
)

// Topics для Kafka
const (
	TopicAuctionEvents   = "ams.auction.events"
	TopicDeadLetterQueue = "ams.dlq"
)

// AuctionEvent представляет событие жизненного цикла аукциона
type AuctionEvent struct {
	EventType EventType              `json:"event_type"`
	AuctionID uint64                 `json:"auction_id"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewAuctionEvent создает новое событие аукциона
func NewAuctionEvent(eventType EventType, auctionID uint64, metadata map[string]interface{}) *AuctionEvent {
	return &AuctionEvent{
		EventType: eventType,
		AuctionID: auctionID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
