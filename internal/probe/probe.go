/**
 * Active Interrogation.
 *
 * Issues controlled outbound HTTP probes against a suspicious
 * destination to confirm whether it is an AI service, gated behind
 * rate limiting, per-target cooldown, and an internal-IP safety
 * guard. Grounded on
 * original_source/services/active_defense/interrogator.py's
 * ActiveProbe.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package probe

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kleaSCM/shadowhunter/internal/obslog"
)

// Probe method names attached to Result.
const (
	MethodOptions  = "http_options"
	MethodEndpoint = "ai_endpoint"
)

// aiProbePaths are common AI API paths probed when OPTIONS alone
// doesn't confirm the destination.
var aiProbePaths = []string{
	"/v1/models",
	"/v1/chat/completions",
	"/api/generate",
	"/api/tags",
	"/v1/complete",
}

// aiResponseIndicators are header/body substrings that, in aggregate,
// suggest the destination is an AI API.
var aiResponseIndicators = []string{"openai", "anthropic", "x-request-id", "x-ratelimit-limit", "cf-ray"}

var aiBodyKeywords = []string{"model", "gpt", "claude", "llama", "completion", "embedding", "token"}

// confirmIndicatorThreshold is the minimum number of indicators
// required before a destination is declared a confirmed AI service.
const confirmIndicatorThreshold = 2

// Result is the outcome of a full interrogation sequence.
type Result struct {
	Target      string
	ConfirmedAI bool
	Indicators  []string
	Method      string
	Skipped     bool
	SkippedReason string
	StatusCode  int
}

// Interrogator issues rate-limited, cooled-down HTTP probes.
type Interrogator struct {
	enabled            bool
	maxProbesPerMinute int
	cooldown           time.Duration
	timeout            time.Duration
	client             *http.Client
	log                *obslog.Logger

	mu              sync.Mutex
	probeTimestamps []time.Time
	lastProbe       map[string]time.Time
}

// Config controls interrogation behavior.
type Config struct {
	Enabled            bool
	MaxProbesPerMinute int
	Cooldown           time.Duration
	Timeout            time.Duration
}

// DefaultConfig matches the reference implementation's defaults: 10
// probes/minute, a 5 minute per-target cooldown, 5s timeout.
func DefaultConfig() Config {
	return Config{Enabled: true, MaxProbesPerMinute: 10, Cooldown: 5 * time.Minute, Timeout: 5 * time.Second}
}

// New builds an Interrogator. TLS verification is disabled to tolerate
// self-signed certificates on probe targets — this client never sends
// credentials or sensitive data, so identity assurance isn't required.
func New(cfg Config) *Interrogator {
	return &Interrogator{
		enabled:            cfg.Enabled,
		maxProbesPerMinute: cfg.MaxProbesPerMinute,
		cooldown:           cfg.Cooldown,
		timeout:            cfg.Timeout,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		log:       obslog.New("probe"),
		lastProbe: make(map[string]time.Time),
	}
}

// isInternalIP reports whether target is a literal RFC1918, loopback,
// or otherwise reserved IP address. Hostnames are never considered
// internal — only literal IPs are checked, matching the reference
// implementation's _is_internal_ip.
func isInternalIP(target string) bool {
	ip := net.ParseIP(target)
	if ip == nil {
		return false
	}
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}

func (p *Interrogator) canProbe(target string) (bool, string) {
	if !p.enabled {
		return false, "active interrogation is disabled"
	}
	if isInternalIP(target) {
		return false, fmt.Sprintf("safety guard: %s is an internal IP", target)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)
	kept := p.probeTimestamps[:0]
	for _, ts := range p.probeTimestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	p.probeTimestamps = kept
	if len(p.probeTimestamps) >= p.maxProbesPerMinute {
		return false, "rate limit exceeded"
	}

	if last, ok := p.lastProbe[target]; ok && now.Sub(last) < p.cooldown {
		return false, fmt.Sprintf("target %s is on cooldown", target)
	}

	return true, "ok"
}

func (p *Interrogator) markProbed(target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.probeTimestamps = append(p.probeTimestamps, now)
	p.lastProbe[target] = now
}

// Interrogate runs the full sequenced interrogation: HTTP OPTIONS
// first, then AI-path GETs only if OPTIONS didn't already confirm.
func (p *Interrogator) Interrogate(target string) Result {
	can, reason := p.canProbe(target)
	if !can {
		return Result{Target: target, Skipped: true, SkippedReason: reason}
	}

	options := p.probeOptions(target)
	if options.ConfirmedAI {
		return options
	}
	return p.probeAIEndpoints(target)
}

func (p *Interrogator) probeOptions(target string) Result {
	p.markProbed(target)

	url := "https://" + target
	req, err := http.NewRequest(http.MethodOptions, url, nil)
	if err != nil {
		return Result{Target: target, Method: MethodOptions}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Infof("probe [%s] OPTIONS failed: %v", target, err)
		return Result{Target: target, Method: MethodOptions}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	var indicators []string
	headerBlob := strings.ToLower(flattenHeaders(resp.Header))
	for _, ind := range aiResponseIndicators {
		if strings.Contains(headerBlob, ind) {
			indicators = append(indicators, ind)
		}
	}

	confirmed := len(indicators) >= confirmIndicatorThreshold
	p.log.Infof("probe [%s] OPTIONS -> %d (AI indicators: %d)", target, resp.StatusCode, len(indicators))

	return Result{
		Target:      target,
		ConfirmedAI: confirmed,
		Indicators:  indicators,
		Method:      MethodOptions,
		StatusCode:  resp.StatusCode,
	}
}

func (p *Interrogator) probeAIEndpoints(target string) Result {
	p.markProbed(target)

	var indicators []string
	var lastStatus int

	for _, path := range aiProbePaths {
		url := "https://" + target + path
		resp, err := p.client.Get(url)
		if err != nil {
			continue
		}
		lastStatus = resp.StatusCode

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			indicators = append(indicators, "auth_required:"+path)
		case resp.StatusCode == http.StatusOK:
			contentType := resp.Header.Get("Content-Type")
			if strings.Contains(contentType, "json") {
				indicators = append(indicators, "json_api:"+path)
				body := make([]byte, 512)
				n, _ := resp.Body.Read(body)
				lower := strings.ToLower(string(body[:n]))
				for _, kw := range aiBodyKeywords {
					if strings.Contains(lower, kw) {
						indicators = append(indicators, "keyword:"+kw)
					}
				}
			}
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	confirmed := len(indicators) >= confirmIndicatorThreshold
	p.log.Infof("probe [%s] AI endpoints -> confirmed=%v (indicators: %v)", target, confirmed, indicators)

	return Result{
		Target:      target,
		ConfirmedAI: confirmed,
		Indicators:  indicators,
		Method:      MethodEndpoint,
		StatusCode:  lastStatus,
	}
}

func flattenHeaders(h http.Header) string {
	var b strings.Builder
	for k, vs := range h {
		b.WriteString(k)
		b.WriteString(":")
		for _, v := range vs {
			b.WriteString(v)
		}
		b.WriteString(" ")
	}
	return b.String()
}
