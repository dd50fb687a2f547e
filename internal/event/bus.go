package event

import "sync"

// Topics published by the table as rounds move through their lifecycle.
const (
	PlayerJoined = "player.joined"
	RoundStarted = "round.started"
	RoundUpdated = "round.updated"
	RoundSettled = "round.settled"
	RoundExited  = "round.exited"
)

// Handler consumes one published payload. Handlers run on their own
// goroutines; a slow subscriber never blocks a table transition.
type Handler func(payload any)

// Bus is a process-local publish/subscribe fanout. Subscribe wires consumers
// such as the live feed to the table without the table knowing them.
type Bus struct {
	handlers map[string][]Handler
	mu       sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

func (b *Bus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
}

func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if hs, ok := b.handlers[topic]; ok {
		for _, h := range hs {
			go h(payload)
		}
	}
}
