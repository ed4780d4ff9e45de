package messaging

import (
	"time"
)

// Message carries experiment progress to subscribers
type Message struct {
	From      string    // ID of the publisher
	To        []string  // Subscriber IDs (empty means broadcast)
	Content   any       // Usually a core.Event
	Timestamp time.Time // When the message was published
}

// Broker routes messages between publishers and subscribers
type Broker interface {
	Publish(msg Message) error
	Subscribe(id string, ch chan<- Message) error
	Unsubscribe(id string) error
}
