// Package notify carries classified errors from producers to subscribers over
// a single typed stream. Subscribers filter by category; there are no mutable
// callback registration tables.
package notify

import (
	"log"
	"sync"

	"github.com/Salehnexta/Rahallah10.13/internal/fault"
)

const subscriberBuffer = 32

type subscriber struct {
	ch         chan *fault.TypedError
	categories map[fault.Category]bool // empty means all categories
}

// Notifier fans classified errors out to subscribers.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]*subscriber)}
}

// Subscribe returns a channel of errors matching the given categories (all
// categories when none are given) and a cancel function that closes it.
func (n *Notifier) Subscribe(categories ...fault.Category) (<-chan *fault.TypedError, func()) {
	sub := &subscriber{
		ch:         make(chan *fault.TypedError, subscriberBuffer),
		categories: make(map[fault.Category]bool, len(categories)),
	}
	for _, c := range categories {
		sub.categories[c] = true
	}

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = sub
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if s, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(s.ch)
		}
		n.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers the error to every matching subscriber. Delivery never
// blocks the producer: a subscriber with a full buffer misses the event.
func (n *Notifier) Publish(e *fault.TypedError) {
	if e == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		if len(sub.categories) > 0 && !sub.categories[e.Category] {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			log.Printf("WARN: notify subscriber buffer full, dropping %s/%s", e.Kind, e.Category)
		}
	}
}
