package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/boristopalov/droidbench/pkg/core"
)

// EventSource is the sender ID used for experiment events.
const EventSource = "experiment"

// SimpleBroker implements the Broker interface
// subscribers is a map where keys are subscriber IDs and values are channels for receiving messages
type SimpleBroker struct {
	subscribers map[string]chan<- Message
	mu          sync.RWMutex
}

// NewBroker creates a new message broker
func NewBroker() *SimpleBroker {
	return &SimpleBroker{
		subscribers: make(map[string]chan<- Message),
	}
}

// Publish sends a message to the given recipients, or to everyone but the
// sender when To is empty. Sends never block; a full channel is reported.
func (b *SimpleBroker) Publish(msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	recipients := msg.To
	if len(recipients) == 0 {
		for id := range b.subscribers {
			if id != msg.From {
				recipients = append(recipients, id)
			}
		}
	}

	var full []string
	for _, id := range recipients {
		ch, ok := b.subscribers[id]
		if !ok {
			continue
		}
		select {
		case ch <- msg:
		default:
			full = append(full, id)
		}
	}
	if len(full) > 0 {
		return fmt.Errorf("subscriber channel full: %v", full)
	}
	return nil
}

// PublishEvent broadcasts an experiment event.
func (b *SimpleBroker) PublishEvent(ev core.Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	return b.Publish(Message{From: EventSource, Content: ev, Timestamp: ev.Timestamp})
}

// Subscribe registers a channel under id
func (b *SimpleBroker) Subscribe(id string, ch chan<- Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; exists {
		return fmt.Errorf("subscriber %s is already subscribed", id)
	}

	b.subscribers[id] = ch
	return nil
}

func (b *SimpleBroker) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[id]; !exists {
		return fmt.Errorf("subscriber %s is not subscribed", id)
	}

	delete(b.subscribers, id)
	return nil
}

func (b *SimpleBroker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string]chan<- Message)
}
