package session

import (
	"sync"

	"github.com/templui/ecoscan/internal/model"
)

// Listener receives the current session after every change. A nil session
// means the user is signed out.
type Listener func(current *model.Session)

// SubscribeFunc registers a listener and returns its unsubscribe function.
type SubscribeFunc func(Listener) (unsubscribe func())

// Broker fans session changes out to the views observing them.
type Broker struct {
	mu        sync.Mutex
	nextID    int
	listeners map[string]map[int]Listener
}

func NewBroker() *Broker {
	return &Broker{listeners: map[string]map[int]Listener{}}
}

// Subscribe registers l for changes to the given session.
func (b *Broker) Subscribe(sessionID string, l Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.listeners[sessionID] == nil {
		b.listeners[sessionID] = map[int]Listener{}
	}
	b.listeners[sessionID][id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.listeners[sessionID], id)
			if len(b.listeners[sessionID]) == 0 {
				delete(b.listeners, sessionID)
			}
		})
	}
}

// Publish notifies every listener of sessionID. Listeners run outside the
// broker lock and may unsubscribe from within the callback.
func (b *Broker) Publish(sessionID string, current *model.Session) {
	b.mu.Lock()
	targets := make([]Listener, 0, len(b.listeners[sessionID]))
	for _, l := range b.listeners[sessionID] {
		targets = append(targets, l)
	}
	b.mu.Unlock()

	for _, l := range targets {
		l(current)
	}
}

// SubscribeTo binds the broker to one session for use with Gate.Mount.
func (b *Broker) SubscribeTo(sessionID string) SubscribeFunc {
	return func(l Listener) func() {
		return b.Subscribe(sessionID, l)
	}
}

// Listeners returns the number of listeners registered for sessionID.
func (b *Broker) Listeners(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[sessionID])
}
