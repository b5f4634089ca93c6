package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndSucceed()

	event := NewAuctionEvent(
		EventTypeAuctionStarted,
		42,
		map[string]interface{}{
			"name": "rare-painting",
		},
	)

	err := producer.PublishEvent(TopicAuctionEvents, "42", event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewAuctionEvent(EventTypeAuctionStarted, 42, nil)

	err := producer.PublishEvent(TopicAuctionEvents, "42", event)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewAuctionEvent(t *testing.T) {
	metadata := map[string]interface{}{
		"bidder": "alice",
		"amount": 1000,
	}

	event := NewAuctionEvent(EventTypeBidPlaced, 7, metadata)

	if event.EventType != EventTypeBidPlaced {
		t.Errorf("expected event type %s, got %s", EventTypeBidPlaced, event.EventType)
	}

	if event.AuctionID != 7 {
		t.Errorf("expected auction id 7, got %d", event.AuctionID)
	}

	if event.Metadata["bidder"] != "alice" {
		t.Error("metadata not set correctly")
	}

	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}

	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}
