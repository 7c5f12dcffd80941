/**
 * JA3 Fingerprint Intelligence.
 *
 * Client identity verification via TLS handshake fingerprinting.
 * Different TLS clients (Chrome, Firefox, Python requests, curl, Tor)
 * produce distinct JA3 hashes even when they claim the same
 * User-Agent header; this module matches a flow's JA3 hash against a
 * database of known fingerprints and detects identity spoofing and
 * known attack tools. Ported verbatim from the Python reference
 * implementation so known hashes resolve to identical client names.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package intel

import "strings"

// JA3Entry is one known TLS client fingerprint.
type JA3Entry struct {
	Hash                string
	ClientName          string
	Category            string // browser, scripting, attack_tool, bot, proxy
	RiskLevel           string
	Description         string
	ExpectedUAPatterns  []string
	Tags                []string
}

// JA3Database is the known-fingerprint table.
var JA3Database = []JA3Entry{
	{
		Hash: "e7d705a3286e19ea42f587b344ee6865", ClientName: "Python requests 2.x (urllib3)",
		Category: "scripting", RiskLevel: "HIGH",
		Description:        "Standard Python HTTP client — commonly used for API automation and data exfiltration scripts",
		ExpectedUAPatterns: []string{"python-requests", "python-urllib3"},
		Tags:               []string{"spoofing_risk", "automation"},
	},
	{
		Hash: "b32309a26951912be7dba376398abc3b", ClientName: "Python aiohttp",
		Category: "scripting", RiskLevel: "HIGH",
		Description:        "Async Python HTTP client — used in high-throughput scraping and C2 frameworks",
		ExpectedUAPatterns: []string{"aiohttp", "python"},
		Tags:               []string{"spoofing_risk", "automation", "async"},
	},
	{
		Hash: "282149a96f83e5e4e0b2c26c3c4efc43", ClientName: "Python httpx",
		Category: "scripting", RiskLevel: "HIGH",
		Description:        "Modern Python HTTP client — used as requests replacement in newer tooling",
		ExpectedUAPatterns: []string{"python-httpx", "python"},
		Tags:               []string{"spoofing_risk", "automation"},
	},
	{
		Hash: "3b5074b1b5d032e5620f69f9f700ff0e", ClientName: "Node.js (https module)",
		Category: "scripting", RiskLevel: "MEDIUM",
		Description:        "Node.js native HTTPS — used in both legitimate services and attack tooling",
		ExpectedUAPatterns: []string{"node", "axios", "got"},
		Tags:               []string{"spoofing_risk"},
	},
	{
		Hash: "d7a7a67e6a706ba3a3b8ce2e36c2a8e3", ClientName: "Go net/http",
		Category: "scripting", RiskLevel: "MEDIUM",
		Description:        "Go standard HTTP client — common in microservices and cloud-native tooling",
		ExpectedUAPatterns: []string{"Go-http-client", "go"},
		Tags:               []string{"spoofing_risk"},
	},
	{
		Hash: "51c64c77e60f3980eea90869b68c58a8", ClientName: "Cobalt Strike Beacon",
		Category: "attack_tool", RiskLevel: "CRITICAL",
		Description:        "Post-exploitation C2 framework — immediate incident response required",
		ExpectedUAPatterns: nil,
		Tags:               []string{"known_malware", "c2", "apt"},
	},
	{
		Hash: "72a589da586844d7f0818ce684948eea", ClientName: "Metasploit Framework",
		Category: "attack_tool", RiskLevel: "CRITICAL",
		Description:        "Penetration testing framework — may indicate active exploitation",
		ExpectedUAPatterns: nil,
		Tags:               []string{"known_malware", "exploit"},
	},
	{
		Hash: "a0e9f5d64349fb13191bc781f81f42e1", ClientName: "Mimikatz / Impacket",
		Category: "attack_tool", RiskLevel: "CRITICAL",
		Description:        "Credential theft tooling — lateral movement in progress",
		ExpectedUAPatterns: nil,
		Tags:               []string{"known_malware", "credential_theft", "lateral_movement"},
	},
	{
		Hash: "456523fc94726331a4d5a2e1d40b2cd7", ClientName: "curl",
		Category: "scripting", RiskLevel: "MEDIUM",
		Description:        "Command-line HTTP client — commonly used for API interaction and testing",
		ExpectedUAPatterns: []string{"curl"},
		Tags:               []string{"spoofing_risk", "cli"},
	},
	{
		Hash: "9e10692f1b7f78228b2d4e424db3a98c", ClientName: "wget",
		Category: "scripting", RiskLevel: "MEDIUM",
		Description:        "Command-line download tool — may indicate staged payload delivery",
		ExpectedUAPatterns: []string{"Wget"},
		Tags:               []string{"spoofing_risk", "cli"},
	},
	{
		Hash: "e7d70f5df5e3ddf3d1af4b1a0a38a3a1", ClientName: "Tor Browser",
		Category: "proxy", RiskLevel: "HIGH",
		Description:        "Tor network browser — traffic anonymization, may hide exfiltration",
		ExpectedUAPatterns: []string{"Mozilla"},
		Tags:               []string{"anonymization", "evasion"},
	},
	{
		Hash: "b386946a5a44d1ddcc843bc75336dfce", ClientName: "Scrapy Spider",
		Category: "bot", RiskLevel: "MEDIUM",
		Description:        "Python web scraping framework — automated data collection",
		ExpectedUAPatterns: []string{"Scrapy"},
		Tags:               []string{"automation", "scraping"},
	},
	{
		Hash: "19e29534fd49dd27d09234e639c4057e", ClientName: "Headless Chrome (Puppeteer)",
		Category: "bot", RiskLevel: "HIGH",
		Description:        "Headless browser automation — may bypass bot detection while scraping",
		ExpectedUAPatterns: []string{"HeadlessChrome", "Chrome"},
		Tags:               []string{"automation", "headless", "spoofing_risk"},
	},
	{
		Hash: "cd08e31494816f6d2f3d8a2d0c4ab314", ClientName: "Selenium WebDriver",
		Category: "bot", RiskLevel: "HIGH",
		Description:        "Browser automation framework — UI testing or credential stuffing",
		ExpectedUAPatterns: []string{"Chrome", "Firefox"},
		Tags:               []string{"automation", "spoofing_risk"},
	},
	{
		Hash: "773906b0efdefa24a7f2b8eb6985bf37", ClientName: "Chrome 120+",
		Category: "browser", RiskLevel: "INFO",
		Description:        "Standard Google Chrome browser — expected enterprise traffic",
		ExpectedUAPatterns: []string{"Chrome", "Mozilla"},
		Tags:               []string{"legitimate"},
	},
	{
		Hash: "579ccef312d18482fc42e2b822ca2430", ClientName: "Firefox 120+",
		Category: "browser", RiskLevel: "INFO",
		Description:        "Standard Mozilla Firefox browser — expected enterprise traffic",
		ExpectedUAPatterns: []string{"Firefox", "Mozilla"},
		Tags:               []string{"legitimate"},
	},
	{
		Hash: "b20b44b18b853f29d25660b022eb7350", ClientName: "Edge 120+",
		Category: "browser", RiskLevel: "INFO",
		Description:        "Microsoft Edge browser — expected enterprise traffic (Chromium-based)",
		ExpectedUAPatterns: []string{"Edg", "Chrome", "Mozilla"},
		Tags:               []string{"legitimate"},
	},
	{
		Hash: "a441a33aaee795f498d6b764cc78989a", ClientName: "Safari 17+",
		Category: "browser", RiskLevel: "INFO",
		Description:        "Apple Safari browser — macOS/iOS traffic",
		ExpectedUAPatterns: []string{"Safari", "AppleWebKit"},
		Tags:               []string{"legitimate"},
	},
}

var browserIndicators = []string{"chrome", "firefox", "safari", "edge", "mozilla"}

// SpoofingResult describes a detected User-Agent / JA3 mismatch.
type SpoofingResult struct {
	JA3Client   string
	JA3Category string
	ClaimedUA   string
	RiskLevel   string
	Description string
}

// JA3Matcher matches JA3 hashes against JA3Database and detects
// identity spoofing between the TLS fingerprint and the claimed
// User-Agent.
type JA3Matcher struct {
	index map[string]JA3Entry
}

// NewJA3Matcher builds a matcher indexed by hash for O(1) lookup.
func NewJA3Matcher() *JA3Matcher {
	m := &JA3Matcher{index: make(map[string]JA3Entry, len(JA3Database))}
	for _, e := range JA3Database {
		m.index[e.Hash] = e
	}
	return m
}

// Lookup returns the database entry for a JA3 hash, or nil if unknown
// or malformed (JA3 hashes are always 32 hex characters).
func (m *JA3Matcher) Lookup(hash string) *JA3Entry {
	if len(hash) != 32 {
		return nil
	}
	if e, ok := m.index[hash]; ok {
		entry := e
		return &entry
	}
	return nil
}

// DetectSpoofing reports identity spoofing when the JA3 fingerprint
// identifies a non-browser client but the User-Agent header claims to
// be a browser.
func (m *JA3Matcher) DetectSpoofing(hash, userAgent string) *SpoofingResult {
	match := m.Lookup(hash)
	if match == nil || userAgent == "" {
		return nil
	}
	if match.Category == "browser" {
		return nil
	}

	uaLower := strings.ToLower(userAgent)
	claimsBrowser := false
	for _, ind := range browserIndicators {
		if strings.Contains(uaLower, ind) {
			claimsBrowser = true
			break
		}
	}

	isNotBrowser := match.Category == "scripting" || match.Category == "attack_tool" ||
		match.Category == "bot" || match.Category == "proxy"

	if !claimsBrowser || !isNotBrowser {
		return nil
	}

	expectedHasBrowser := false
	for _, pat := range match.ExpectedUAPatterns {
		patLower := strings.ToLower(pat)
		for _, b := range browserIndicators {
			if strings.Contains(patLower, b) {
				expectedHasBrowser = true
				break
			}
		}
		if expectedHasBrowser {
			break
		}
	}

	if expectedHasBrowser {
		return nil
	}

	claimed := userAgent
	if len(claimed) > 100 {
		claimed = claimed[:100]
	}

	return &SpoofingResult{
		JA3Client:   match.ClientName,
		JA3Category: match.Category,
		ClaimedUA:   claimed,
		RiskLevel:   "CRITICAL",
		Description: "Identity spoofing: TLS fingerprint identifies " + match.ClientName +
			" but User-Agent claims to be a browser",
	}
}

// IsKnownBad reports whether a JA3 hash belongs to a known attack
// tool.
func (m *JA3Matcher) IsKnownBad(hash string) bool {
	match := m.Lookup(hash)
	return match != nil && match.Category == "attack_tool"
}

// TotalFingerprints returns the number of fingerprints tracked.
func (m *JA3Matcher) TotalFingerprints() int {
	return len(m.index)
}
