package mlscore

import (
	"testing"
	"time"

	"github.com/kleaSCM/shadowhunter/internal/models"
)

func TestExtractorPortCategory(t *testing.T) {
	x := NewExtractor()
	e := &models.FlowEvent{
		SourceIP: "10.0.0.5", DestinationIP: "8.8.8.8",
		DestinationPort: 22, Protocol: models.ProtocolTCP,
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	v := x.Extract(e)
	if v[7] != 1.0 {
		t.Errorf("expected well-known-port=1 for SSH, got %v", v[7])
	}
	if v[8] <= 0 {
		t.Errorf("expected a positive port category for SSH, got %v", v[8])
	}
}

func TestExtractorHostnameFeatures(t *testing.T) {
	x := NewExtractor()
	e := &models.FlowEvent{
		SourceIP: "10.0.0.5", DestinationIP: "13.107.42.1",
		DestinationPort: 443, Protocol: models.ProtocolHTTPS,
		Timestamp: time.Now(),
		Metadata:  map[string]string{models.MetaSNI: "chat.openai.com"},
	}
	v := x.Extract(e)
	if v[9] != 1.0 {
		t.Errorf("expected has_hostname=1, got %v", v[9])
	}
	if v[11] != 2 {
		t.Errorf("expected 2 dots in chat.openai.com, got %v", v[11])
	}
	if v[15] != 1.0 {
		t.Errorf("expected is_known_ai_cidr=1 for an OpenAI IP, got %v", v[15])
	}
}

func TestPayloadBucketBoundaries(t *testing.T) {
	cases := []struct {
		bytes uint64
		want  float64
	}{
		{500, 0.0}, {2000, 0.25}, {50000, 0.5}, {500000, 0.75}, {5000000, 1.0},
	}
	for _, c := range cases {
		if got := payloadBucket(c.bytes); got != c.want {
			t.Errorf("payloadBucket(%d) = %v, want %v", c.bytes, got, c.want)
		}
	}
}

func TestHeuristicAnomalyScorerFlagsLargeExternalUnusualPort(t *testing.T) {
	v := Vector{}
	v[2], v[3] = 15.0, 0.0 // large bytes_sent_log
	v[6] = 0.0             // external destination
	v[7] = 0.0              // unusual port

	scorer := NewHeuristicAnomalyScorer()
	score := scorer.Score(v)
	if !IsAnomalous(score) {
		t.Errorf("expected anomalous score below %v, got %v", AnomalyThreshold, score)
	}
}

func TestHeuristicAnomalyScorerBenignTraffic(t *testing.T) {
	v := Vector{}
	v[2], v[3] = 1.0, 1.0
	v[6] = 1.0 // internal destination
	v[7] = 1.0 // well-known port

	scorer := NewHeuristicAnomalyScorer()
	score := scorer.Score(v)
	if IsAnomalous(score) {
		t.Errorf("expected benign traffic to score above %v, got %v", AnomalyThreshold, score)
	}
}

func TestHeuristicClassifierShadowAI(t *testing.T) {
	v := Vector{}
	v[6] = 0.0  // external destination
	v[9] = 1.0  // has hostname
	v[2] = 10.0 // large payload (log bytes sent > 8)
	v[7] = 0.0

	c := NewHeuristicClassifier()
	pred := c.Predict(v)
	if pred.Label != LabelShadowAI {
		t.Errorf("expected shadow_ai, got %s", pred.Label)
	}
}

func TestHeuristicClassifierSuspicious(t *testing.T) {
	v := Vector{}
	v[6] = 0.0 // external
	v[9] = 0.0 // no hostname
	v[2] = 1.0 // small payload
	v[7] = 0.0 // non-standard port

	c := NewHeuristicClassifier()
	pred := c.Predict(v)
	if pred.Label != LabelSuspicious {
		t.Errorf("expected suspicious, got %s", pred.Label)
	}
}

func TestHeuristicClassifierNormal(t *testing.T) {
	v := Vector{}
	v[6] = 1.0 // internal destination
	v[7] = 1.0 // well-known port

	c := NewHeuristicClassifier()
	pred := c.Predict(v)
	if pred.Label != LabelNormal {
		t.Errorf("expected normal, got %s", pred.Label)
	}
}

func TestEscalateShadowAIWhenRuleDidNotFire(t *testing.T) {
	result := Result{Classification: LabelShadowAI, Confidence: 0.85}
	ok, severity, reason := Escalate(result, false)
	if !ok || severity != models.SeverityHigh || reason == "" {
		t.Errorf("expected a HIGH shadow_ai escalation, got ok=%v sev=%s reason=%q", ok, severity, reason)
	}
}

func TestEscalateNeverFiresWhenRuleAlreadyAnomalous(t *testing.T) {
	result := Result{Classification: LabelShadowAI, Confidence: 0.99}
	ok, _, _ := Escalate(result, true)
	if ok {
		t.Error("expected no ML escalation when rule detection already fired")
	}
}

func TestEscalateAnomalyOnlyIsLow(t *testing.T) {
	result := Result{Classification: LabelNormal, Confidence: 0.5, IsAnomalous: true, AnomalyScore: -0.5}
	ok, severity, _ := Escalate(result, false)
	if !ok || severity != models.SeverityLow {
		t.Errorf("expected LOW anomaly-only escalation, got ok=%v sev=%s", ok, severity)
	}
}
