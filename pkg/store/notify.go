package store

import (
	"sync"

	"go.uber.org/zap"
)

// Event is a storage change notification: the changed key plus an opaque
// origin token identifying the writing session.
type Event struct {
	Key    string
	Origin string
}

// Handler receives change events. Handlers run on the writer's goroutine
// and must not block.
type Handler func(Event)

// Notifier fans storage change events out to subscribed sessions.
// Following the browser storage-event contract, an event is never
// delivered back to the session that produced it: subscribers register
// with their own origin token and writes carrying that token are skipped.
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
	log    *zap.Logger
}

type subscription struct {
	origin  string
	handler Handler
}

// NewNotifier returns an empty notifier.
func NewNotifier(log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{subs: map[int]subscription{}, log: log}
}

// Subscribe registers handler for events not originating from origin and
// returns an unsubscribe func. Unsubscribing twice is harmless.
func (n *Notifier) Subscribe(origin string, handler Handler) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = subscription{origin: origin, handler: handler}
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Publish delivers the event to every subscriber whose origin differs
// from the event's origin.
func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	handlers := make([]Handler, 0, len(n.subs))
	for _, s := range n.subs {
		if s.origin == ev.Origin {
			continue
		}
		handlers = append(handlers, s.handler)
	}
	n.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// Notifying wraps an Adapter so every Set and Delete publishes a change
// event tagged with the wrapping session's origin.
type Notifying struct {
	Adapter
	notifier *Notifier
	origin   string
}

// WithNotify binds adapter to notifier under the given origin token.
func WithNotify(a Adapter, n *Notifier, origin string) *Notifying {
	return &Notifying{Adapter: a, notifier: n, origin: origin}
}

func (w *Notifying) Set(key, value string) error {
	if err := w.Adapter.Set(key, value); err != nil {
		return err
	}
	w.notifier.Publish(Event{Key: key, Origin: w.origin})
	return nil
}

func (w *Notifying) Delete(key string) error {
	if err := w.Adapter.Delete(key); err != nil {
		return err
	}
	w.notifier.Publish(Event{Key: key, Origin: w.origin})
	return nil
}

// Origin returns the session token this wrapper writes under.
func (w *Notifying) Origin() string { return w.origin }

var _ Adapter = (*Notifying)(nil)
