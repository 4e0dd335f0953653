package event

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type Handler func(Event)

// Bus is a process-wide publish-subscribe channel for domain events.
// Delivery is synchronous, fire-and-forget, at most once per emit.
// A panicking handler is recovered and logged; it never breaks the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs []Handler
	log  logrus.FieldLogger
}

func NewBus(log logrus.FieldLogger) *Bus {
	return &Bus{log: log}
}

func (b *Bus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, h)
}

func (b *Bus) Publish(e Event) {
	if e == nil {
		return
	}
	b.mu.RLock()
	subs := make([]Handler, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, h := range subs {
		b.deliver(h, e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"event": e.EventType(),
				"panic": r,
			}).Error("event handler panicked")
		}
	}()
	h(e)
}
