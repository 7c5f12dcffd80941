/**
 * Deep Packet Inspection Worker.
 *
 * Drains the RawPacketQueue, extracts L3/L4 addressing and L7
 * metadata (HTTP Host, TLS SNI/JA3, DNS query name) from each packet,
 * and publishes a models.FlowEvent onto the event bus. Runs on its
 * own goroutine so a burst of captured packets never blocks the
 * capture thread.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package capture

import (
	"context"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/kleaSCM/shadowhunter/internal/bus"
	"github.com/kleaSCM/shadowhunter/internal/correlator"
	"github.com/kleaSCM/shadowhunter/internal/models"
	"github.com/kleaSCM/shadowhunter/internal/obslog"
	"github.com/kleaSCM/shadowhunter/internal/parser"
)

// Topic is the bus topic DPI workers publish FlowEvents to.
const Topic = "sh.telemetry.traffic.v1"

// DPIWorker consumes raw packets and emits enriched FlowEvents.
type DPIWorker struct {
	queue    *RawPacketQueue
	bus      *bus.Bus
	dnsCache *correlator.DNSCache
	log      *obslog.Logger
}

// NewDPIWorker creates a worker reading from queue and publishing to
// b on Topic. cache may be nil, in which case no DNS answers are
// recorded and no reverse-lookup fallback is attempted.
func NewDPIWorker(queue *RawPacketQueue, b *bus.Bus, cache *correlator.DNSCache) *DPIWorker {
	return &DPIWorker{queue: queue, bus: b, dnsCache: cache, log: obslog.New("dpi")}
}

// Run drains the queue until it is closed and drained, or ctx is
// canceled.
func (w *DPIWorker) Run(ctx context.Context) {
	packets := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case packet, ok := <-packets:
			if !ok {
				return
			}
			if event := w.buildEvent(packet); event != nil {
				w.bus.Publish(Topic, event)
			}
		}
	}
}

// buildEvent extracts an L3/L4 base from packet and upgrades it with
// L7 metadata where recognizable. Returns nil for packets without a
// usable IP layer (ARP, 802.11 management frames, etc).
func (w *DPIWorker) buildEvent(packet gopacket.Packet) *models.FlowEvent {
	var srcIP, dstIP string

	if ipLayer := packet.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		ip, _ := ipLayer.(*layers.IPv4)
		srcIP, dstIP = ip.SrcIP.String(), ip.DstIP.String()
	} else if ipLayer := packet.Layer(layers.LayerTypeIPv6); ipLayer != nil {
		ip, _ := ipLayer.(*layers.IPv6)
		srcIP, dstIP = ip.SrcIP.String(), ip.DstIP.String()
	} else {
		return nil
	}

	event := &models.FlowEvent{
		SourceIP:      srcIP,
		DestinationIP: dstIP,
		Timestamp:     packet.Metadata().Timestamp,
		Metadata:      make(map[string]string),
	}
	event.BytesSent = uint64(packet.Metadata().Length)

	switch {
	case packet.Layer(layers.LayerTypeTCP) != nil:
		tcp, _ := packet.Layer(layers.LayerTypeTCP).(*layers.TCP)
		event.SourcePort = uint16(tcp.SrcPort)
		event.DestinationPort = uint16(tcp.DstPort)
		event.Protocol = models.ProtocolTCP
	case packet.Layer(layers.LayerTypeUDP) != nil:
		udp, _ := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		event.SourcePort = uint16(udp.SrcPort)
		event.DestinationPort = uint16(udp.DstPort)
		event.Protocol = models.ProtocolUDP
	}

	w.upgradeDNS(packet, event)
	w.upgradeTLS(packet, event)
	w.upgradeHTTP(packet, event)
	w.upgradeReverseDNS(event)

	return event
}

func (w *DPIWorker) upgradeDNS(packet gopacket.Packet, event *models.FlowEvent) {
	if !parser.IsDNSPacket(packet) {
		return
	}
	query, response, err := parser.ParseDNS(packet)
	if err != nil {
		return
	}
	event.Protocol = models.ProtocolDNS
	if query != nil {
		event.Metadata[models.MetaDNSQuery] = strings.TrimSuffix(query.QueryName, ".")
		return
	}
	name := strings.TrimSuffix(response.QueryName, ".")
	event.Metadata[models.MetaDNSQuery] = name
	w.recordAnswers(name, response.Answers)
}

// recordAnswers feeds resolved A/AAAA records into the shared DNS
// cache so later flows addressed by IP alone can recover the
// hostname that resolved to it.
func (w *DPIWorker) recordAnswers(name string, answers []parser.DNSAnswer) {
	if w.dnsCache == nil || name == "" {
		return
	}
	var ips []string
	var ttl uint32
	for _, a := range answers {
		if a.Type != "A" && a.Type != "AAAA" {
			continue
		}
		ips = append(ips, a.IP)
		if a.TTL > ttl {
			ttl = a.TTL
		}
	}
	if len(ips) > 0 {
		w.dnsCache.Add(name, ips, ttl)
	}
}

// upgradeReverseDNS fills the DNS-query metadata slot from a prior
// resolution when a flow carries no Host/SNI/DNS-query of its own —
// e.g. a plain TCP connection to an IP whose name was only ever seen
// in an earlier, separate DNS exchange.
func (w *DPIWorker) upgradeReverseDNS(event *models.FlowEvent) {
	if w.dnsCache == nil || event.Host() != "" {
		return
	}
	if host := w.dnsCache.Resolve(event.DestinationIP); host != "" {
		event.Metadata[models.MetaDNSQuery] = host
	}
}

func (w *DPIWorker) upgradeTLS(packet gopacket.Packet, event *models.FlowEvent) {
	tlsInfo, err := parser.ParseTLS(packet)
	if err != nil || tlsInfo == nil || !tlsInfo.Handshake {
		return
	}
	event.Protocol = models.ProtocolHTTPS
	if tlsInfo.SNI != "" {
		event.Metadata[models.MetaSNI] = tlsInfo.SNI
	}
	if tlsInfo.JA3 != "" {
		event.Metadata[models.MetaJA3Hash] = tlsInfo.JA3
	}
}

func (w *DPIWorker) upgradeHTTP(packet gopacket.Packet, event *models.FlowEvent) {
	httpInfo, err := parser.ParseHTTP(packet)
	if err != nil || httpInfo == nil {
		return
	}
	if event.Protocol == models.ProtocolTCP {
		event.Protocol = models.ProtocolHTTP
	}
	if httpInfo.Host != "" {
		event.Metadata[models.MetaHost] = httpInfo.Host
	}
	if httpInfo.UserAgent != "" {
		event.Metadata[models.MetaUserAgent] = httpInfo.UserAgent
	}
}
