package capture

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/kleaSCM/shadowhunter/internal/bus"
	"github.com/kleaSCM/shadowhunter/internal/correlator"
	"github.com/kleaSCM/shadowhunter/internal/models"
)

func plainTCPPacket(t *testing.T, dstIP net.IP) gopacket.Packet {
	t.Helper()
	buffer := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	err := gopacket.SerializeLayers(buffer, opts,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
			EthernetType: layers.EthernetTypeIPv4,
		},
		&layers.IPv4{SrcIP: net.IP{10, 0, 0, 5}, DstIP: dstIP, Version: 4, IHL: 5, Protocol: layers.IPProtocolTCP},
		&layers.TCP{SrcPort: layers.TCPPort(51000), DstPort: layers.TCPPort(443)},
	)
	if err != nil {
		t.Fatal(err)
	}
	return gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func httpPacket(t *testing.T) gopacket.Packet {
	t.Helper()
	buffer := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	payload := gopacket.Payload("GET / HTTP/1.1\r\nHost: chat.openai.com\r\nUser-Agent: python-requests/2.31\r\n\r\n")
	err := gopacket.SerializeLayers(buffer, opts,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
			EthernetType: layers.EthernetTypeIPv4,
		},
		&layers.IPv4{SrcIP: net.IP{10, 0, 0, 5}, DstIP: net.IP{13, 107, 42, 1}, Version: 4, IHL: 5, Protocol: layers.IPProtocolTCP},
		&layers.TCP{SrcPort: layers.TCPPort(51000), DstPort: layers.TCPPort(80)},
		payload,
	)
	if err != nil {
		t.Fatal(err)
	}
	return gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestDPIWorkerBuildEventExtractsHTTPHost(t *testing.T) {
	w := NewDPIWorker(NewRawPacketQueue(1), bus.New(), nil)
	event := w.buildEvent(httpPacket(t))
	if event == nil {
		t.Fatal("expected a non-nil FlowEvent")
	}
	if event.SourceIP != "10.0.0.5" || event.DestinationIP != "13.107.42.1" {
		t.Errorf("unexpected addressing: %+v", event)
	}
	if event.Protocol != models.ProtocolHTTP {
		t.Errorf("expected protocol HTTP, got %s", event.Protocol)
	}
	if event.Host() != "chat.openai.com" {
		t.Errorf("expected host chat.openai.com, got %q", event.Host())
	}
	if event.UserAgent() != "python-requests/2.31" {
		t.Errorf("expected UA python-requests/2.31, got %q", event.UserAgent())
	}
}

func TestDPIWorkerBuildEventNoIPLayerReturnsNil(t *testing.T) {
	buffer := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	err := gopacket.SerializeLayers(buffer, opts,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
			EthernetType: layers.EthernetTypeARP,
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	packet := gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)

	w := NewDPIWorker(NewRawPacketQueue(1), bus.New(), nil)
	if event := w.buildEvent(packet); event != nil {
		t.Errorf("expected nil event for non-IP packet, got %+v", event)
	}
}

func TestDPIWorkerReverseDNSFallbackFillsHostFromPriorResolution(t *testing.T) {
	cache := correlator.NewDNSCache()
	cache.Add("shadow-ai.example.com", []string{"13.107.42.1"}, 300)

	w := NewDPIWorker(NewRawPacketQueue(1), bus.New(), cache)
	event := w.buildEvent(plainTCPPacket(t, net.IP{13, 107, 42, 1}))
	if event == nil {
		t.Fatal("expected a non-nil FlowEvent")
	}
	if got := event.Host(); got != "shadow-ai.example.com" {
		t.Errorf("expected reverse-DNS fallback host, got %q", got)
	}
}

func TestDPIWorkerReverseDNSFallbackSkipsWhenCacheMisses(t *testing.T) {
	cache := correlator.NewDNSCache()
	w := NewDPIWorker(NewRawPacketQueue(1), bus.New(), cache)
	event := w.buildEvent(plainTCPPacket(t, net.IP{198, 51, 100, 7}))
	if event == nil {
		t.Fatal("expected a non-nil FlowEvent")
	}
	if got := event.Host(); got != "" {
		t.Errorf("expected no host on a cache miss, got %q", got)
	}
}
