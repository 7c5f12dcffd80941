/**
 * Flow Event Model.
 *
 * Defines the telemetry unit produced by DPI and consumed by every
 * downstream analysis stage: detectors, the feature extractor, the
 * session tracker, and the graph writer.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package models

import "time"

// Protocol identifies the effective application-layer protocol of a
// flow, after any DPI upgrade has been applied.
type Protocol string

const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolUDP   Protocol = "UDP"
	ProtocolHTTP  Protocol = "HTTP"
	ProtocolHTTPS Protocol = "HTTPS"
	ProtocolDNS   Protocol = "DNS"
)

// Recognized FlowEvent.Metadata keys. Unrecognized keys are preserved
// but ignored by downstream consumers.
const (
	MetaHost      = "host"
	MetaSNI       = "sni"
	MetaDNSQuery  = "dns_query"
	MetaJA3Hash   = "ja3_hash"
	MetaUserAgent = "user_agent"
)

// FlowEvent is the unit of telemetry flowing from DPI through the bus
// into the analyzer pipeline.
type FlowEvent struct {
	SourceIP        string
	DestinationIP   string
	SourcePort      uint16
	DestinationPort uint16
	Protocol        Protocol
	BytesSent       uint64
	BytesReceived   uint64
	Timestamp       time.Time
	Metadata        map[string]string
}

// Host returns the best-effort application-layer hostname for the
// flow: an HTTP Host header, else a TLS SNI, else a DNS query name.
func (e *FlowEvent) Host() string {
	if e.Metadata == nil {
		return ""
	}
	if h := e.Metadata[MetaHost]; h != "" {
		return h
	}
	if s := e.Metadata[MetaSNI]; s != "" {
		return s
	}
	return e.Metadata[MetaDNSQuery]
}

// JA3 returns the flow's JA3 hash, if DPI computed one.
func (e *FlowEvent) JA3() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[MetaJA3Hash]
}

// UserAgent returns the flow's HTTP User-Agent, if DPI captured one.
func (e *FlowEvent) UserAgent() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[MetaUserAgent]
}

// TotalBytes is the sum of sent and received bytes for this sample.
func (e *FlowEvent) TotalBytes() uint64 {
	return e.BytesSent + e.BytesReceived
}

// Severity ranks alert severities; higher is worse.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "LOW"
	}
}

// EscalateOnce bumps the severity by one step, never past CRITICAL.
func (s Severity) EscalateOnce() Severity {
	if s >= SeverityCritical {
		return SeverityCritical
	}
	return s + 1
}

// ParseSeverity maps a severity string back to its Severity value,
// defaulting to LOW for unrecognized input.
func ParseSeverity(s string) Severity {
	switch s {
	case "MEDIUM":
		return SeverityMedium
	case "HIGH":
		return SeverityHigh
	case "CRITICAL":
		return SeverityCritical
	default:
		return SeverityLow
	}
}

// CIDRMatch is the enrichment block attached to an Alert when the
// destination IP falls within a known AI-provider CIDR block.
type CIDRMatch struct {
	Provider       string
	Service        string
	RiskLevel      string
	Category       string
	DataRisk       string
	ComplianceTags []string
}

// JA3Spoofing records the identity-mismatch sub-block of JA3Intel.
type JA3Spoofing struct {
	Detected bool
	Reason   string
}

// JA3Intel is the enrichment block attached when the flow's JA3 hash
// matches a known fingerprint.
type JA3Intel struct {
	Hash       string
	ClientName string
	Category   string
	RiskLevel  string
	Tags       []string
	Spoofing   *JA3Spoofing
}

// MLClassification is the ML enrichment block.
type MLClassification struct {
	Classification string
	Confidence     float64
	RiskScore      float64
	AnomalyScore   float64
	IsAnomalous    bool
	Reasons        []string
}

// SessionEnrichment is the per-flow session-tracker enrichment block.
type SessionEnrichment struct {
	Flags            []string
	RiskScore        float64
	ExfilVelocityKBS float64
	AIRatio          float64
	UniqueDsts       int
	TotalFlows       int
}

// ActiveProbeResult is the enrichment block produced by the active
// interrogator.
type ActiveProbeResult struct {
	Target       string
	ConfirmedAI  bool
	Indicators   []string
	Method       string
	Skipped      bool
	SkippedReason string
}

// GraphCentralityResult is the enrichment block attached to synthetic
// alerts produced by periodic centrality analytics.
type GraphCentralityResult struct {
	NodeID           string
	NodeType         string
	Centrality       float64
	Degree           int
	BridgesSubnets   bool
	RiskAssessment   string
	PreviousScore    float64
	BridgeEscalation bool
}

// AutoResponse is the enrichment block describing a quarantine action
// taken in reaction to an alert.
type AutoResponse struct {
	Blocked   bool
	IP        string
	ExpiresAt *time.Time
	Reason    string
}

// Alert is the immutable output artifact of the analysis pipeline.
type Alert struct {
	ID          string
	Seq         uint64
	Severity    Severity
	Description string
	Source      string
	Target      string
	Timestamp   time.Time
	MatchedRule string

	CIDRMatch   *CIDRMatch
	JA3Intel    *JA3Intel
	ML          *MLClassification
	Session     *SessionEnrichment
	ActiveProbe *ActiveProbeResult
	Graph       *GraphCentralityResult
	Response    *AutoResponse
}

// BlockEntry is a quarantine record held by the response manager.
type BlockEntry struct {
	IP            string
	Reason        string
	Severity      Severity
	BlockedAt     time.Time
	SourceAlertID string
	AutoBlocked   bool
	ExpiresAt     *time.Time
}

// Expired reports whether the entry's TTL has elapsed as of now.
func (b *BlockEntry) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}

// SessionEntry is one observation inside a SessionWindow.
type SessionEntry struct {
	Timestamp       time.Time
	Destination     string
	DestinationType string // "shadow" for AI-flagged destinations, else "internal" or "external"
	Bytes           uint64
}
