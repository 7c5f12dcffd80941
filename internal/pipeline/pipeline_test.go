package pipeline

import (
	"testing"
	"time"

	"github.com/kleaSCM/shadowhunter/internal/broadcast"
	"github.com/kleaSCM/shadowhunter/internal/graph"
	"github.com/kleaSCM/shadowhunter/internal/metrics"
	"github.com/kleaSCM/shadowhunter/internal/models"
	"github.com/kleaSCM/shadowhunter/internal/probe"
	"github.com/kleaSCM/shadowhunter/internal/response"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	probeCfg := probe.DefaultConfig()
	probeCfg.Enabled = false // no real network calls in tests

	return New(Config{
		GraphStore: graph.NewMemoryStore(),
		Probe:      probe.New(probeCfg),
		Response:   response.New(response.DefaultConfig()),
		Hub:        broadcast.NewHub(),
		Metrics:    metrics.NewWithRegisterer(prometheus.NewRegistry()),
	})
}

func TestProcessNormalInternalFlowProducesNoAlert(t *testing.T) {
	p := newTestPipeline(t)

	event := &models.FlowEvent{
		SourceIP:        "10.0.0.5",
		DestinationIP:   "10.0.0.6",
		SourcePort:      51234,
		DestinationPort: 443,
		Protocol:        models.ProtocolHTTPS,
		BytesSent:       1024,
		BytesReceived:   2048,
		Timestamp:       time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	p.process(event)

	broadcasted, _ := p.hub.Stats()
	if broadcasted != 0 {
		t.Errorf("expected no broadcast for benign internal traffic, got %d", broadcasted)
	}

	nodes, edges, err := p.GraphSnapshot()
	if err != nil {
		t.Fatalf("graph snapshot: %v", err)
	}
	if nodes != 2 || edges != 1 {
		t.Errorf("expected the graph to still record the flow's nodes/edge, got nodes=%d edges=%d", nodes, edges)
	}
}

func TestProcessAIDomainFlowRaisesHighSeverityAlert(t *testing.T) {
	p := newTestPipeline(t)

	event := &models.FlowEvent{
		SourceIP:        "10.0.0.5",
		DestinationIP:   "203.0.113.9",
		SourcePort:      51234,
		DestinationPort: 443,
		Protocol:        models.ProtocolHTTPS,
		BytesSent:       5000,
		BytesReceived:   9000,
		Timestamp:       time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Metadata:        map[string]string{models.MetaSNI: "chat.openai.com"},
	}

	p.process(event)

	broadcasted, _ := p.hub.Stats()
	if broadcasted == 0 {
		t.Fatal("expected a broadcast alert for a known AI domain flow")
	}
	if p.response.IsBlocked(event.SourceIP) {
		t.Error("a HIGH severity alert must not trigger auto-response, only CRITICAL does")
	}
}

func TestProcessAttackToolJA3TriggersAutoBlock(t *testing.T) {
	p := newTestPipeline(t)

	event := &models.FlowEvent{
		SourceIP:        "10.0.0.7",
		DestinationIP:   "203.0.113.44",
		SourcePort:      51234,
		DestinationPort: 443,
		Protocol:        models.ProtocolHTTPS,
		BytesSent:       1000,
		BytesReceived:   1000,
		Timestamp:       time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Metadata:        map[string]string{models.MetaJA3Hash: "51c64c77e60f3980eea90869b68c58a8"},
	}

	p.process(event)

	if !p.response.IsBlocked(event.SourceIP) {
		t.Fatal("expected a CRITICAL (attack tool) alert to trigger auto-quarantine of the source IP")
	}

	broadcasted, _ := p.hub.Stats()
	if broadcasted < 2 {
		t.Errorf("expected both an alert broadcast and an auto-response broadcast, got %d messages", broadcasted)
	}
}

func TestProcessWhitelistedMulticastFlowIsIgnored(t *testing.T) {
	p := newTestPipeline(t)

	event := &models.FlowEvent{
		SourceIP:        "10.0.0.5",
		DestinationIP:   "239.255.255.250",
		SourcePort:      1900,
		DestinationPort: 1900,
		Protocol:        models.ProtocolUDP,
		BytesSent:       200,
		BytesReceived:   0,
		Timestamp:       time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	p.process(event)

	broadcasted, _ := p.hub.Stats()
	if broadcasted != 0 {
		t.Errorf("expected SSDP discovery traffic to be whitelisted and never alert, got %d broadcasts", broadcasted)
	}
}

func TestHandleDiscardsUnexpectedPayloadType(t *testing.T) {
	p := newTestPipeline(t)
	p.Handle(detectorTopic, "not-a-flow-event")
	if p.EventCount() != 0 {
		t.Error("expected a non-FlowEvent payload to be discarded without incrementing the event counter")
	}
}

const detectorTopic = "sh.telemetry.traffic.v1"
