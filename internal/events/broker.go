// Package events fans server-side notifications out to connected SSE
// clients.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/youruser/matchboard/internal/constants"
)

const (
	TypeConnected       = "connected"
	TypeMatchesUpdated  = "matches_updated"
	TypeUpcomingUpdated = "upcoming_updated"
	TypeCommandsUpdated = "commands_updated"
)

type Message struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func NewMessage(typ string, data any) Message {
	return Message{Type: typ, Data: data, Timestamp: time.Now().UnixMilli()}
}

type Subscriber struct {
	ID string
	C  <-chan Message
}

// Broker delivers published messages to every subscriber. A subscriber whose
// buffer is full misses the message; Publish never blocks.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]chan Message
	logger zerolog.Logger
}

func NewBroker(logger zerolog.Logger) *Broker {
	return &Broker{subs: make(map[string]chan Message), logger: logger}
}

func (b *Broker) Subscribe() Subscriber {
	ch := make(chan Message, constants.SubscriberBuffer)
	id := uuid.New().String()

	b.mu.Lock()
	b.subs[id] = ch
	n := len(b.subs)
	b.mu.Unlock()

	b.logger.Debug().Str("subscriber", id).Int("subscribers", n).Msg("client subscribed")
	return Subscriber{ID: id, C: ch}
}

// Unsubscribe removes the subscriber and closes its channel. Unknown ids are
// ignored.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	n := len(b.subs)
	b.mu.Unlock()

	if ok {
		b.logger.Debug().Str("subscriber", id).Int("subscribers", n).Msg("client unsubscribed")
	}
}

// Publish returns how many subscribers received msg.
func (b *Broker) Publish(msg Message) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for id, ch := range b.subs {
		select {
		case ch <- msg:
			delivered++
		default:
			b.logger.Warn().Str("subscriber", id).Str("type", msg.Type).Msg("subscriber buffer full, dropping message")
		}
	}
	return delivered
}

func (b *Broker) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unsubscribes everyone.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
