package detector

import (
	"testing"
	"time"

	"github.com/kleaSCM/shadowhunter/internal/models"
)

func event(srcIP, dstIP string, dstPort uint16, protocol models.Protocol, bytesSent uint64, meta map[string]string) *models.FlowEvent {
	return &models.FlowEvent{
		SourceIP:        srcIP,
		DestinationIP:   dstIP,
		DestinationPort: dstPort,
		Protocol:        protocol,
		BytesSent:       bytesSent,
		Timestamp:       time.Now(),
		Metadata:        meta,
	}
}

func TestAIDomainDetectorFlagsKnownService(t *testing.T) {
	d := &AIDomainDetector{}
	e := event("10.0.0.5", "13.107.42.1", 443, models.ProtocolHTTPS, 0, map[string]string{
		models.MetaSNI: "chat.openai.com",
	})

	ok, severity, reason := d.Detect(e)
	if !ok {
		t.Fatal("expected AI domain detector to fire")
	}
	if severity != models.SeverityHigh {
		t.Errorf("expected HIGH, got %s", severity)
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
}

func TestUnusualPortDetector(t *testing.T) {
	d := &UnusualPortDetector{}

	anomalous := event("192.168.1.10", "8.8.8.8", 31337, models.ProtocolTCP, 0, nil)
	if ok, sev, _ := d.Detect(anomalous); !ok || sev != models.SeverityMedium {
		t.Errorf("expected MEDIUM unusual-port hit, got ok=%v sev=%s", ok, sev)
	}

	standard := event("192.168.1.10", "8.8.8.8", 443, models.ProtocolTCP, 0, nil)
	if ok, _, _ := d.Detect(standard); ok {
		t.Error("expected no hit for a well-known port")
	}

	internalOnly := event("192.168.1.10", "192.168.1.20", 31337, models.ProtocolTCP, 0, nil)
	if ok, _, _ := d.Detect(internalOnly); ok {
		t.Error("expected no hit for internal-to-internal traffic")
	}
}

func TestDNSTunnelingDetector(t *testing.T) {
	d := &DNSTunnelingDetector{}

	large := event("192.168.1.10", "8.8.8.8", 53, models.ProtocolDNS, 600, nil)
	if ok, sev, _ := d.Detect(large); !ok || sev != models.SeverityHigh {
		t.Errorf("expected HIGH tunneling hit, got ok=%v sev=%s", ok, sev)
	}

	small := event("192.168.1.10", "8.8.8.8", 53, models.ProtocolDNS, 100, nil)
	if ok, _, _ := d.Detect(small); ok {
		t.Error("expected no hit for a small DNS payload")
	}
}

func TestDataExfiltrationDetector(t *testing.T) {
	d := &DataExfiltrationDetector{}

	large := event("10.0.0.1", "8.8.8.8", 443, models.ProtocolHTTPS, 600_000, nil)
	if ok, sev, _ := d.Detect(large); !ok || sev != models.SeverityHigh {
		t.Errorf("expected HIGH exfiltration hit, got ok=%v sev=%s", ok, sev)
	}

	small := event("10.0.0.1", "8.8.8.8", 443, models.ProtocolHTTPS, 1000, nil)
	if ok, _, _ := d.Detect(small); ok {
		t.Error("expected no hit for a small upload")
	}
}

func TestCIDRIntelPlugin(t *testing.T) {
	p := NewCIDRIntelPlugin()
	e := event("10.0.0.1", "34.102.136.50", 443, models.ProtocolHTTPS, 0, nil)

	ok, severity, reason := p.Detect(e)
	if !ok {
		t.Fatal("expected a CIDR intel hit for an Anthropic IP")
	}
	if severity != models.SeverityCritical {
		t.Errorf("expected CRITICAL, got %s", severity)
	}
	if reason == "" {
		t.Error("expected a non-empty reason")
	}
}

func TestJA3FingerprintPluginAttackTool(t *testing.T) {
	p := NewJA3FingerprintPlugin()
	e := event("10.0.0.1", "203.0.113.9", 443, models.ProtocolHTTPS, 0, map[string]string{
		models.MetaJA3Hash: "51c64c77e60f3980eea90869b68c58a8",
	})

	ok, severity, _ := p.Detect(e)
	if !ok || severity != models.SeverityCritical {
		t.Errorf("expected CRITICAL attack-tool hit, got ok=%v sev=%s", ok, severity)
	}
}

func TestJA3FingerprintPluginSpoofing(t *testing.T) {
	p := NewJA3FingerprintPlugin()
	e := event("10.0.0.1", "203.0.113.9", 443, models.ProtocolHTTPS, 0, map[string]string{
		models.MetaJA3Hash:   "e7d705a3286e19ea42f587b344ee6865",
		models.MetaUserAgent: "Mozilla/5.0 Chrome/120.0",
	})

	ok, severity, _ := p.Detect(e)
	if !ok || severity != models.SeverityHigh {
		t.Errorf("expected HIGH spoofing hit, got ok=%v sev=%s", ok, severity)
	}
}

func TestWhitelistSuppressesMulticast(t *testing.T) {
	e := event("192.168.1.10", "224.0.0.251", 5353, models.ProtocolUDP, 0, nil)
	if !IsWhitelisted(e) {
		t.Error("expected mDNS multicast traffic to be whitelisted")
	}
}

func TestWhitelistSuppressesInternalToInternal(t *testing.T) {
	e := event("192.168.1.10", "192.168.1.20", 22, models.ProtocolTCP, 0, nil)
	if !IsWhitelisted(e) {
		t.Error("expected internal-to-internal traffic to be whitelisted")
	}
}

func TestPipelinePicksHighestSeverity(t *testing.T) {
	low := fakePlugin{name: "low", ok: true, severity: models.SeverityLow, reason: "low"}
	high := fakePlugin{name: "high", ok: true, severity: models.SeverityHigh, reason: "high"}
	pipeline := NewPipeline(&low, &high)

	e := event("10.0.0.1", "8.8.8.8", 9999, models.ProtocolTCP, 0, nil)
	v := pipeline.Evaluate(e)

	if !v.Anomalous || v.Severity != models.SeverityHigh || v.Plugin != "high" {
		t.Errorf("expected the high-severity plugin to win, got %+v", v)
	}
}

func TestPipelineTiebreakIsRegistrationOrder(t *testing.T) {
	first := fakePlugin{name: "first", ok: true, severity: models.SeverityHigh, reason: "first"}
	second := fakePlugin{name: "second", ok: true, severity: models.SeverityHigh, reason: "second"}
	pipeline := NewPipeline(&first, &second)

	e := event("10.0.0.1", "8.8.8.8", 9999, models.ProtocolTCP, 0, nil)
	v := pipeline.Evaluate(e)

	if v.Plugin != "first" {
		t.Errorf("expected first-registered plugin to win the tie, got %s", v.Plugin)
	}
}

func TestPipelineWhitelistShortCircuits(t *testing.T) {
	alwaysFires := fakePlugin{name: "always", ok: true, severity: models.SeverityCritical, reason: "x"}
	pipeline := NewPipeline(&alwaysFires)

	e := event("192.168.1.10", "192.168.1.20", 22, models.ProtocolTCP, 0, nil)
	v := pipeline.Evaluate(e)

	if v.Anomalous {
		t.Error("expected whitelisted event to short-circuit before any plugin runs")
	}
}

type fakePlugin struct {
	name     string
	ok       bool
	severity models.Severity
	reason   string
}

func (f *fakePlugin) Name() string { return f.name }

func (f *fakePlugin) Detect(event *models.FlowEvent) (bool, models.Severity, string) {
	return f.ok, f.severity, f.reason
}
