/**
 * Raw Packet Queue.
 *
 * The bounded shock absorber between the capture thread and the DPI
 * worker. The capture thread must never block; Enqueue drops the
 * packet and counts it instead of waiting for room.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package capture

import (
	"sync/atomic"

	"github.com/google/gopacket"
)

// DefaultQueueCapacity is the spec-mandated default RawPacketQueue
// size.
const DefaultQueueCapacity = 1000

// RawPacketQueue is a bounded, non-blocking-on-enqueue buffer of
// captured packets.
type RawPacketQueue struct {
	ch      chan gopacket.Packet
	dropped atomic.Uint64
}

// NewRawPacketQueue creates a queue with the given capacity. A
// capacity <= 0 falls back to DefaultQueueCapacity.
func NewRawPacketQueue(capacity int) *RawPacketQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &RawPacketQueue{ch: make(chan gopacket.Packet, capacity)}
}

// Enqueue attempts to add a packet without blocking. It returns false
// and increments the drop counter if the queue is full.
func (q *RawPacketQueue) Enqueue(p gopacket.Packet) bool {
	select {
	case q.ch <- p:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Dequeue returns the channel DPI workers should range over.
func (q *RawPacketQueue) Dequeue() <-chan gopacket.Packet {
	return q.ch
}

// Dropped returns the number of packets dropped due to a full queue.
func (q *RawPacketQueue) Dropped() uint64 {
	return q.dropped.Load()
}

// Len returns the number of packets currently buffered.
func (q *RawPacketQueue) Len() int {
	return len(q.ch)
}

// Cap returns the queue's configured capacity.
func (q *RawPacketQueue) Cap() int {
	return cap(q.ch)
}

// Close closes the underlying channel, signalling DPI workers to
// drain and stop once it is empty.
func (q *RawPacketQueue) Close() {
	close(q.ch)
}
