// Package notifier fans partition change events out to channel subscribers,
// so watchers running in other goroutines can follow edits.
package notifier

import (
	"sync"

	"github.com/leapstack-labs/phylopart/pkg/partition"
)

// buffer is the number of pending events a subscriber may hold before
// further events are dropped for it.
const buffer = 16

// Notifier broadcasts partition changes to all subscribed listeners.
// It implements partition.Listener.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan partition.Change]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan partition.Change]struct{}),
	}
}

// Subscribe returns a channel that receives change events.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan partition.Change {
	ch := make(chan partition.Change, buffer)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan partition.Change) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// PartitionsChanged sends c to every listener.
// Non-blocking: a listener whose buffer is full misses the event.
func (n *Notifier) PartitionsChanged(c partition.Change) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- c:
		default:
		}
	}
}

var _ partition.Listener = (*Notifier)(nil)
