package capture

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func dummyPacket(t *testing.T) gopacket.Packet {
	t.Helper()
	buffer := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	err := gopacket.SerializeLayers(buffer, opts,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55},
			DstMAC:       net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
			EthernetType: layers.EthernetTypeIPv4,
		},
		&layers.IPv4{SrcIP: net.IP{10, 0, 0, 1}, DstIP: net.IP{10, 0, 0, 2}, Version: 4, IHL: 5, Protocol: layers.IPProtocolTCP},
	)
	if err != nil {
		t.Fatal(err)
	}
	return gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

func TestRawPacketQueueEnqueueDequeue(t *testing.T) {
	q := NewRawPacketQueue(4)
	if !q.Enqueue(dummyPacket(t)) {
		t.Fatal("expected enqueue into empty queue to succeed")
	}
	if q.Len() != 1 {
		t.Errorf("expected len 1, got %d", q.Len())
	}

	p := <-q.Dequeue()
	if p == nil {
		t.Fatal("expected a packet from Dequeue channel")
	}
}

func TestRawPacketQueueDropsWhenFull(t *testing.T) {
	q := NewRawPacketQueue(2)
	p := dummyPacket(t)

	if !q.Enqueue(p) || !q.Enqueue(p) {
		t.Fatal("expected first two enqueues to succeed")
	}
	if q.Enqueue(p) {
		t.Fatal("expected third enqueue on a full queue to fail")
	}
	if q.Dropped() != 1 {
		t.Errorf("expected 1 dropped packet, got %d", q.Dropped())
	}
}

func TestRawPacketQueueDefaultCapacity(t *testing.T) {
	q := NewRawPacketQueue(0)
	if q.Cap() != DefaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", DefaultQueueCapacity, q.Cap())
	}
}
