/**
 * Session Tracking.
 *
 * Tracks per-source-IP behavior over a sliding window and flags
 * patterns that only emerge across multiple flows — bursts of AI
 * usage, multi-service fan-out, after-hours activity — that no
 * single-flow detector plugin can see. Grounded on
 * original_source/services/intelligence/models/sequence.py's
 * SessionAnalyzer, extended with inter-arrival and exfiltration
 * velocity flags original_source tracks nowhere else in the pipeline.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package correlator

import (
	"sort"
	"sync"
	"time"

	"github.com/kleaSCM/shadowhunter/internal/models"
)

// Destination type labels recorded alongside each session entry.
const (
	DestinationInternal = "internal"
	DestinationExternal = "external"
	DestinationShadow   = "shadow"
)

// Session risk flags.
const (
	FlagHighAIRatio       = "HIGH_AI_RATIO"
	FlagBurstAIUsage      = "BURST_AI_USAGE"
	FlagMultiAIServices   = "MULTI_AI_SERVICES"
	FlagLargeAIPayload    = "LARGE_AI_PAYLOAD"
	FlagHighActivity      = "HIGH_ACTIVITY"
	FlagRapidAIRequests   = "RAPID_AI_REQUESTS"
	FlagHighExfilVelocity = "HIGH_EXFIL_VELOCITY"
	FlagAfterHoursAI      = "AFTER_HOURS_AI"
)

const (
	defaultSessionWindow = 30 * time.Minute

	highAIRatioThreshold    = 0.30
	burstAIFlowCount        = 3
	multiAIServiceCount     = 2
	largeAIPayloadBytes     = 100_000
	highActivityFlowCount   = 50
	rapidInterArrivalMillis = 5000.0
	highExfilVelocityKBps   = 50.0
	riskEscalationThreshold = 0.7
)

// Analysis is the result of evaluating a source IP's recent session.
type Analysis struct {
	RiskScore         float64
	Flags             []string
	AIRatio           float64
	UniqueDsts        int
	TotalFlows        int
	AIBytes           uint64
	ExfilVelocityKBps float64
}

// SessionTracker maintains a sliding window of SessionEntry records
// per source IP.
type SessionTracker struct {
	mu       sync.RWMutex
	window   time.Duration
	sessions map[string][]models.SessionEntry
}

// NewSessionTracker builds a tracker with the given sliding window. A
// non-positive window falls back to 30 minutes.
func NewSessionTracker(window time.Duration) *SessionTracker {
	if window <= 0 {
		window = defaultSessionWindow
	}
	return &SessionTracker{window: window, sessions: make(map[string][]models.SessionEntry)}
}

// Record appends a flow observation for srcIP and trims entries that
// have fallen outside the sliding window.
func (t *SessionTracker) Record(srcIP, dst, dstType string, bytes uint64, ts time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries := append(t.sessions[srcIP], models.SessionEntry{
		Timestamp:       ts,
		Destination:     dst,
		DestinationType: dstType,
		Bytes:           bytes,
	})

	cutoff := ts.Add(-t.window)
	trimmed := entries[:0]
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			trimmed = append(trimmed, e)
		}
	}
	t.sessions[srcIP] = trimmed
}

// Analyze computes the current risk analysis for srcIP.
func (t *SessionTracker) Analyze(srcIP string) Analysis {
	t.mu.RLock()
	session := append([]models.SessionEntry(nil), t.sessions[srcIP]...)
	t.mu.RUnlock()

	if len(session) == 0 {
		return Analysis{}
	}

	total := len(session)
	var aiFlows []models.SessionEntry
	destSet := make(map[string]bool, total)
	for _, e := range session {
		destSet[e.Destination] = true
		if e.DestinationType == DestinationShadow {
			aiFlows = append(aiFlows, e)
		}
	}

	aiRatio := float64(len(aiFlows)) / float64(total)

	var flags []string
	var riskScore float64

	if aiRatio > highAIRatioThreshold {
		flags = append(flags, FlagHighAIRatio)
		riskScore += 0.30
	}
	if len(aiFlows) >= burstAIFlowCount {
		flags = append(flags, FlagBurstAIUsage)
		riskScore += 0.25
	}

	uniqueAI := make(map[string]bool, len(aiFlows))
	var aiBytes uint64
	for _, e := range aiFlows {
		uniqueAI[e.Destination] = true
		aiBytes += e.Bytes
	}
	if len(uniqueAI) >= multiAIServiceCount {
		flags = append(flags, FlagMultiAIServices)
		riskScore += 0.20
	}
	if aiBytes > largeAIPayloadBytes {
		flags = append(flags, FlagLargeAIPayload)
		riskScore += 0.25
	}
	if total > highActivityFlowCount {
		flags = append(flags, FlagHighActivity)
		riskScore += 0.10
	}

	if mean, ok := meanInterArrivalMillis(aiFlows); ok && mean < rapidInterArrivalMillis {
		flags = append(flags, FlagRapidAIRequests)
		riskScore += 0.15
	}

	exfilVelocity := exfilVelocityKBps(aiFlows)
	if exfilVelocity > highExfilVelocityKBps {
		flags = append(flags, FlagHighExfilVelocity)
		riskScore += 0.20
	}

	if afterHours(aiFlows) {
		flags = append(flags, FlagAfterHoursAI)
		riskScore += 0.15
	}

	if riskScore > 1.0 {
		riskScore = 1.0
	}

	return Analysis{
		RiskScore:         riskScore,
		Flags:             flags,
		AIRatio:           aiRatio,
		UniqueDsts:        len(destSet),
		TotalFlows:        total,
		AIBytes:           aiBytes,
		ExfilVelocityKBps: exfilVelocity,
	}
}

// ShouldEscalate reports whether a is severe enough to bump the
// enclosing alert's severity by one step.
func (a Analysis) ShouldEscalate() bool {
	return a.RiskScore > riskEscalationThreshold
}

func meanInterArrivalMillis(entries []models.SessionEntry) (float64, bool) {
	if len(entries) < 2 {
		return 0, false
	}
	sorted := append([]models.SessionEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var total time.Duration
	for i := 1; i < len(sorted); i++ {
		total += sorted[i].Timestamp.Sub(sorted[i-1].Timestamp)
	}
	avg := total / time.Duration(len(sorted)-1)
	return float64(avg.Milliseconds()), true
}

func exfilVelocityKBps(entries []models.SessionEntry) float64 {
	if len(entries) < 2 {
		return 0
	}
	sorted := append([]models.SessionEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	duration := sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp).Seconds()
	if duration <= 0 {
		return 0
	}

	var totalBytes uint64
	for _, e := range sorted {
		totalBytes += e.Bytes
	}
	return float64(totalBytes) / duration / 1024
}

func afterHours(entries []models.SessionEntry) bool {
	for _, e := range entries {
		hour := e.Timestamp.Hour()
		if hour < 8 || hour >= 19 {
			return true
		}
	}
	return false
}
