package events

import (
	"runtime/debug"
	"sync"

	"github.com/yolodolo42/ledgers/internal/logging"
)

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu          sync.Mutex
	subscribers []func(Event)
	logger      logging.Logger
}

func NewBus(logger logging.Logger) *Bus {
	return &Bus{logger: logging.OrNoop(logger)}
}

// Subscribe registers sub for every event.
func (b *Bus) Subscribe(sub func(Event)) {
	b.subscribe(func(e Event) {
		defer b.recover(e)
		sub(e)
	})
}

func (b *Bus) subscribe(sub func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, sub)
}

// Publish delivers event to every subscriber registered so far. A nil Bus drops it.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.Lock()
	n := len(b.subscribers)
	subs := b.subscribers
	b.mu.Unlock()

	for _, sub := range subs[:n] {
		sub(event)
	}
}

func (b *Bus) recover(e Event) {
	err := recover()
	if err == nil {
		return
	}

	b.logger.Error("subscriber panicked", map[string]any{
		"event": Name(e),
		"error": err,
		"stack": string(debug.Stack()),
	})
}

// SubscribeSync registers sub for events of type T only.
func SubscribeSync[T Event](b *Bus, sub func(T)) {
	b.subscribe(func(e Event) {
		et, ok := e.(T)
		if !ok {
			return
		}

		defer b.recover(e)
		sub(et)
	})
}
