package observers

import (
	"sync"

	"github.com/shopmindai/profitshare/internal/model"
)

type EventPublisher interface {
	Publish(event model.SignedRequestEvent)
	Register(observer EventObserver)
}

type Publisher struct {
	observers []EventObserver
	mu        sync.RWMutex
}

func NewEventPublisher(observers ...EventObserver) *Publisher {
	return &Publisher{observers: observers}
}

// Publish hands the event to every registered observer in registration order.
func (p *Publisher) Publish(event model.SignedRequestEvent) {
	if event.Ts == 0 && !event.Timestamp.IsZero() {
		event.Ts = event.Timestamp.UnixMilli()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, observer := range p.observers {
		observer.OnSignedRequest(event)
	}
}

func (p *Publisher) Register(observer EventObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Len reports the number of registered observers.
func (p *Publisher) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.observers)
}
