package event

import "sync"

// Subscriber receives Events from a Bus, one at a time, in the order they
// were published.
type Subscriber interface {
	OnEvent(Event)
}

// SubscriberFunc adapts a plain function to the Subscriber interface.
type SubscriberFunc func(Event)

// OnEvent calls f.
func (f SubscriberFunc) OnEvent(e Event) { f(e) }

// subscription is a token returned by Subscribe; pass it to Unsubscribe to
// stop receiving events.
type subscription struct {
	id int
}

// Bus is a serialized in-process publish/subscribe mechanism.  A single
// internal goroutine drains a queue of published events and delivers each
// one to every current subscriber, in FIFO order, before moving on to the
// next.  Publish never calls a subscriber synchronously from the call
// site - the event is queued and delivered later on the bus's own
// goroutine - so subscribers never need to guard against re-entrant
// calls from a publisher.
//
// This mirrors the single dispatcher strand used elsewhere in the
// positioning engine: the receiver decodes messages on its own I/O
// goroutine but posts them to subscribers through a channel, giving every
// subscriber a single, serialized view of the world.
type Bus struct {
	mutex       sync.Mutex
	subscribers map[int]Subscriber
	nextID      int

	queue  chan Event
	done   chan struct{}
	closed bool
}

// NewBus creates a Bus and starts its dispatch goroutine.  queueDepth is
// the number of published events that may be buffered before Publish
// blocks; 0 means unbuffered (Publish blocks until the event reaches the
// queue, not until it has been delivered).
func NewBus(queueDepth int) *Bus {
	b := &Bus{
		subscribers: make(map[int]Subscriber),
		queue:       make(chan Event, queueDepth),
		done:        make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	for e := range b.queue {
		for _, s := range b.currentSubscribers() {
			s.OnEvent(e)
		}
	}
	close(b.done)
}

func (b *Bus) currentSubscribers() []Subscriber {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	result := make([]Subscriber, 0, len(b.subscribers))
	for _, id := range b.sortedIDs() {
		result = append(result, b.subscribers[id])
	}
	return result
}

// sortedIDs returns subscriber ids in ascending (subscription) order so
// that delivery order is deterministic.  Must be called with mutex held.
func (b *Bus) sortedIDs() []int {
	ids := make([]int, 0, len(b.subscribers))
	for id := range b.subscribers {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

// Subscribe registers s to receive future events and returns a handle that
// can be passed to Unsubscribe.
func (b *Bus) Subscribe(s Subscriber) *subscription {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = s
	return &subscription{id: id}
}

// Unsubscribe removes a subscription.  It is idempotent - unsubscribing
// twice, or a subscription already removed, has no effect.
func (b *Bus) Unsubscribe(sub *subscription) {
	if sub == nil {
		return
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.subscribers, sub.id)
}

// Publish queues an event for delivery to all current subscribers.  It
// returns before delivery happens.
func (b *Bus) Publish(e Event) {
	b.queue <- e
}

// Close stops the dispatch goroutine once the queue has drained.  Publish
// must not be called after Close.
func (b *Bus) Close() {
	b.mutex.Lock()
	if b.closed {
		b.mutex.Unlock()
		return
	}
	b.closed = true
	b.mutex.Unlock()
	close(b.queue)
	<-b.done
}
