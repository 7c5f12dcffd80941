/**
 * Packet Capture Engine.
 *
 * Owns the pcap handle and the capture goroutine. The capture
 * goroutine does nothing but read packets and push them onto a
 * RawPacketQueue — all parsing happens on the separate DPIWorker
 * goroutines so a slow DPI pass never causes kernel-buffer packet
 * loss upstream.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package capture

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/kleaSCM/shadowhunter/internal/bus"
	"github.com/kleaSCM/shadowhunter/internal/correlator"
	"github.com/kleaSCM/shadowhunter/internal/obslog"
)

// Engine owns the pcap handle and feeds a RawPacketQueue.
type Engine struct {
	interfaceName string
	handle        *pcap.Handle
	packetSource  *gopacket.PacketSource
	queue         *RawPacketQueue
	dnsCache      *correlator.DNSCache
	log           *obslog.Logger

	packetsProcessed uint64
	running          atomic.Bool
}

// Config holds capture engine configuration.
type Config struct {
	Interface   string
	SnapLen     int32
	Promiscuous bool
	Timeout     time.Duration
	BufferSize  int // kernel capture buffer, MB
	BPFFilter   string
	QueueDepth  int // RawPacketQueue capacity
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig(interfaceName string) *Config {
	return &Config{
		Interface:   interfaceName,
		SnapLen:     65536,
		Promiscuous: true,
		Timeout:     pcap.BlockForever,
		BufferSize:  32,
		BPFFilter:   "",
		QueueDepth:  DefaultQueueCapacity,
	}
}

// NewEngine opens the pcap handle on config.Interface and prepares a
// RawPacketQueue of the configured depth.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if _, err := FindInterface(config.Interface); err != nil {
		return nil, fmt.Errorf("interface error: %w", err)
	}

	engine := &Engine{
		interfaceName: config.Interface,
		queue:         NewRawPacketQueue(config.QueueDepth),
		dnsCache:      correlator.NewDNSCache(),
		log:           obslog.New("capture"),
	}

	inactive, err := pcap.NewInactiveHandle(config.Interface)
	if err != nil {
		return nil, fmt.Errorf("failed to create inactive handle: %w", err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(int(config.SnapLen)); err != nil {
		return nil, fmt.Errorf("failed to set snaplen: %w", err)
	}
	if err := inactive.SetPromisc(config.Promiscuous); err != nil {
		return nil, fmt.Errorf("failed to set promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(config.Timeout); err != nil {
		return nil, fmt.Errorf("failed to set timeout: %w", err)
	}
	if config.BufferSize > 0 {
		if err := inactive.SetBufferSize(config.BufferSize * 1024 * 1024); err != nil {
			engine.log.Warnf("failed to set kernel buffer size: %v", err)
		}
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("failed to activate handle: %w", err)
	}
	engine.handle = handle

	if config.BPFFilter != "" {
		if err := handle.SetBPFFilter(config.BPFFilter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to set BPF filter: %w", err)
		}
		engine.log.Infof("applied BPF filter: %s", config.BPFFilter)
	}

	engine.packetSource = gopacket.NewPacketSource(handle, handle.LinkType())
	return engine, nil
}

// Queue exposes the RawPacketQueue for DPI workers to drain.
func (e *Engine) Queue() *RawPacketQueue {
	return e.queue
}

// DNSCache exposes the engine's shared IP-to-hostname cache, populated
// by DNS responses observed in DPI and consumed as a reverse-lookup
// fallback for flows addressed by IP alone.
func (e *Engine) DNSCache() *correlator.DNSCache {
	return e.dnsCache
}

// Start reads packets in a blocking loop, enqueuing each onto the
// RawPacketQueue, until ctx is canceled or the packet source closes.
// It never blocks on a full queue.
func (e *Engine) Start(ctx context.Context) error {
	if e.running.Load() {
		return fmt.Errorf("engine already running")
	}
	e.running.Store(true)
	defer e.running.Store(false)

	e.log.Infof("starting packet capture on %s", e.interfaceName)
	packets := e.packetSource.Packets()

	for {
		select {
		case <-ctx.Done():
			e.log.Infof("capture stopped by context")
			return ctx.Err()

		case packet, ok := <-packets:
			if !ok {
				e.log.Infof("packet channel closed")
				return nil
			}
			if packet == nil {
				continue
			}

			e.queue.Enqueue(packet)
			atomic.AddUint64(&e.packetsProcessed, 1)
		}
	}
}

// Stop closes the pcap handle. Callers should cancel the Start
// context first so the capture goroutine exits cleanly.
func (e *Engine) Stop() {
	if e.handle != nil {
		e.handle.Close()
	}
	e.running.Store(false)
	e.log.Infof("capture engine stopped")
}

// Stats returns capture-side counters: packets read from the wire,
// packets dropped by the kernel, and packets dropped because the
// RawPacketQueue was full.
func (e *Engine) Stats() (packetsProcessed, packetsDroppedKernel, packetsDroppedQueue uint64) {
	packetsProcessed = atomic.LoadUint64(&e.packetsProcessed)
	packetsDroppedQueue = e.queue.Dropped()

	if e.handle != nil {
		if stats, err := e.handle.Stats(); err == nil {
			packetsDroppedKernel = uint64(stats.PacketsDropped)
		}
	}
	return
}

// IsRunning reports whether the capture loop is active.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// RunDPIWorkers launches n DPIWorker goroutines draining the engine's
// queue and publishing FlowEvents onto b. It returns immediately; the
// workers run until ctx is canceled or the queue is closed; packets
// still queued at cancellation are not processed.
func (e *Engine) RunDPIWorkers(ctx context.Context, b *bus.Bus, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		worker := NewDPIWorker(e.queue, b, e.dnsCache)
		go worker.Run(ctx)
	}
	go e.cleanDNSCache(ctx)
}

// cleanDNSCache periodically sweeps expired DNS cache entries so a
// long-running capture doesn't accumulate stale IP-to-hostname
// mappings forever.
func (e *Engine) cleanDNSCache(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := e.dnsCache.Cleanup(); n > 0 {
				e.log.Infof("dns cache: evicted %d expired entries", n)
			}
		}
	}
}
