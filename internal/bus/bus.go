/**
 * Topic-Addressed Event Bus.
 *
 * In-process publish/subscribe used to decouple the DPI worker from
 * the detector pipeline. Delivery is at-most-once and per-subscriber:
 * a slow or panicking handler never blocks or crashes the publisher.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package bus

import (
	"sync"
	"sync/atomic"

	"github.com/kleaSCM/shadowhunter/internal/obslog"
)

// DefaultSubscriberBuffer is the per-subscriber channel depth.
const DefaultSubscriberBuffer = 256

// Handler processes one published event. Panics inside a Handler are
// recovered and logged; they never affect the publisher or other
// subscribers.
type Handler func(topic string, event interface{})

type subscriber struct {
	ch      chan interface{}
	handler Handler
	topic   string
	dropped atomic.Uint64
}

// Bus is a topic-addressed, in-process event bus.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]*subscriber
	log  *obslog.Logger

	published atomic.Uint64
	delivered atomic.Uint64
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		subs: make(map[string][]*subscriber),
		log:  obslog.New("bus"),
	}
}

// Subscribe registers handler to receive every event published on
// topic. Each subscriber gets its own goroutine and buffered channel
// so one slow handler cannot stall others.
func (b *Bus) Subscribe(topic string, handler Handler) {
	sub := &subscriber{
		ch:      make(chan interface{}, DefaultSubscriberBuffer),
		handler: handler,
		topic:   topic,
	}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()

	go b.drain(sub)
}

// Publish delivers event to every subscriber of topic. Delivery is
// non-blocking per subscriber: a full subscriber buffer drops the
// event for that subscriber only and increments its drop counter.
func (b *Bus) Publish(topic string, event interface{}) {
	b.published.Add(1)

	b.mu.RLock()
	subs := b.subs[topic]
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
		}
	}
}

// PublishedCount returns the total number of Publish calls.
func (b *Bus) PublishedCount() uint64 {
	return b.published.Load()
}

// DeliveredCount returns the total number of events delivered to
// handlers across all subscribers.
func (b *Bus) DeliveredCount() uint64 {
	return b.delivered.Load()
}

func (b *Bus) drain(sub *subscriber) {
	for event := range sub.ch {
		b.invoke(sub, event)
		b.delivered.Add(1)
	}
}

// invoke calls the subscriber's handler, recovering from panics so a
// single faulty handler never takes down the bus or other
// subscribers.
func (b *Bus) invoke(sub *subscriber, event interface{}) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Errorf("handler panic on topic %s: %v", sub.topic, r)
		}
	}()
	sub.handler(sub.topic, event)
}
