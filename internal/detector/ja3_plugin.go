/**
 * JA3 Fingerprint Detection Plugin.
 *
 * Client identity verification via TLS Client Hello fingerprinting:
 * known attack tools alert CRITICAL, a User-Agent claiming to be a
 * browser while the JA3 fingerprint identifies a scripting tool, bot,
 * or proxy alerts HIGH, and any other known non-browser client alerts
 * MEDIUM. Ported from
 * original_source/services/analyzer/plugins/ja3_plugin.py.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package detector

import (
	"fmt"

	"github.com/kleaSCM/shadowhunter/internal/intel"
	"github.com/kleaSCM/shadowhunter/internal/models"
)

func init() {
	Register(NewJA3FingerprintPlugin())
}

// JA3FingerprintPlugin detects identity spoofing and known attack
// tools via JA3 fingerprinting.
type JA3FingerprintPlugin struct {
	matcher *intel.JA3Matcher
}

// NewJA3FingerprintPlugin builds a plugin backed by a fresh
// JA3Matcher.
func NewJA3FingerprintPlugin() *JA3FingerprintPlugin {
	return &JA3FingerprintPlugin{matcher: intel.NewJA3Matcher()}
}

func (p *JA3FingerprintPlugin) Name() string { return "JA3 Fingerprint Analyzer" }

func (p *JA3FingerprintPlugin) Detect(event *models.FlowEvent) (bool, models.Severity, string) {
	hash := event.JA3()
	if hash == "" {
		return false, 0, ""
	}
	userAgent := event.UserAgent()

	if p.matcher.IsKnownBad(hash) {
		match := p.matcher.Lookup(hash)
		reason := fmt.Sprintf("ATTACK TOOL DETECTED: %s (JA3: %s...) — %s",
			match.ClientName, truncate(hash, 12), match.Description)
		return true, models.SeverityCritical, reason
	}

	if userAgent != "" {
		if spoof := p.matcher.DetectSpoofing(hash, userAgent); spoof != nil {
			reason := fmt.Sprintf("IDENTITY SPOOFING: UA claims browser but TLS fingerprint is %s (%s)",
				spoof.JA3Client, spoof.JA3Category)
			return true, models.SeverityHigh, reason
		}
	}

	if match := p.matcher.Lookup(hash); match != nil {
		switch match.Category {
		case "scripting", "bot", "proxy":
			reason := fmt.Sprintf("Non-browser client: %s [%s] (JA3: %s...)",
				match.ClientName, match.Category, truncate(hash, 12))
			return true, models.SeverityMedium, reason
		}
	}

	return false, 0, ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
