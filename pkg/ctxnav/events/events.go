// Package events distributes navigation events: synchronously to listeners
// attached in-process, and through a watermill pub/sub topic to any number of
// asynchronous subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/internal"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TopicNavigation is the topic navigation events are published on.
const TopicNavigation = "ctxnav.navigation"

// NavigationEvent is fired after a route was matched and its pages were bound.
type NavigationEvent struct {
	Hash       string            `json:"hash"`
	Route      string            `json:"route"`
	Arguments  map[string]string `json:"arguments,omitempty"`
	Level      int               `json:"level"`
	Generation uint64            `json:"generation"`
}

// Listener receives navigation events synchronously.
type Listener func(NavigationEvent)

// Bus fans navigation events out to listeners and subscribers.
type Bus struct {
	pubSub *gochannel.GoChannel

	mu        sync.Mutex
	listeners map[int]Listener
	next      int
}

// BusOption configures a Bus.
type BusOption func(*busOptions)

type busOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger of the watermill channel. The engine's internal
// logger is used by default.
func WithLogger(logger *slog.Logger) BusOption {
	return func(o *busOptions) {
		o.logger = logger
	}
}

// NewBus creates a Bus backed by an in-process watermill channel.
func NewBus(opts ...BusOption) *Bus {
	o := busOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = internal.GetInternalLogger()
	}
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(o.logger),
		),
		listeners: make(map[int]Listener),
	}
}

// Attach adds a listener. The returned function detaches it again.
func (b *Bus) Attach(l Listener) (detach func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
		})
	}
}

// Listeners returns the number of attached listeners.
func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Publish calls every listener in attach order and then publishes the event
// to subscribers.
func (b *Bus) Publish(ev NavigationEvent) error {
	b.mu.Lock()
	ids := make([]int, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, len(ids))
	for i, id := range ids {
		listeners[i] = b.listeners[id]
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encode navigation event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubSub.Publish(TopicNavigation, msg); err != nil {
		return fmt.Errorf("events: publish navigation event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of navigation events published after the call.
// The channel is closed when ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan NavigationEvent, error) {
	messages, err := b.pubSub.Subscribe(ctx, TopicNavigation)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe: %w", err)
	}

	out := make(chan NavigationEvent)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev NavigationEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				internal.GetInternalLogger().Error("Dropping malformed navigation event", "error", err)
				msg.Ack()
				continue
			}
			select {
			case out <- ev:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

// Close closes all subscriptions.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
