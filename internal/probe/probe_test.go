package probe

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestIsInternalIPRejectsPrivateAddresses(t *testing.T) {
	cases := map[string]bool{
		"10.0.0.5":       true,
		"192.168.1.1":    true,
		"127.0.0.1":      true,
		"8.8.8.8":        false,
		"chat.openai.com": false,
	}
	for target, want := range cases {
		if got := isInternalIP(target); got != want {
			t.Errorf("isInternalIP(%q) = %v, want %v", target, got, want)
		}
	}
}

func TestCanProbeRejectsInternalTarget(t *testing.T) {
	p := New(DefaultConfig())
	ok, reason := p.canProbe("10.0.0.5")
	if ok {
		t.Error("expected an internal IP to be rejected")
	}
	if !strings.Contains(reason, "internal") {
		t.Errorf("expected the rejection reason to mention the safety guard, got %q", reason)
	}
}

func TestCanProbeEnforcesRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxProbesPerMinute = 2
	p := New(cfg)

	p.markProbed("a.example.com")
	p.markProbed("b.example.com")

	ok, reason := p.canProbe("c.example.com")
	if ok {
		t.Error("expected the third probe within a minute to be rate limited")
	}
	if !strings.Contains(reason, "rate limit") {
		t.Errorf("expected a rate limit reason, got %q", reason)
	}
}

func TestCanProbeEnforcesCooldown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cooldown = time.Hour
	p := New(cfg)

	p.markProbed("chat.openai.com")
	ok, reason := p.canProbe("chat.openai.com")
	if ok {
		t.Error("expected a target still within its cooldown window to be rejected")
	}
	if !strings.Contains(reason, "cooldown") {
		t.Errorf("expected a cooldown reason, got %q", reason)
	}
}

func TestCanProbeRejectsWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	p := New(cfg)

	ok, _ := p.canProbe("chat.openai.com")
	if ok {
		t.Error("expected probing to be rejected when disabled")
	}
}

func TestProbeOptionsDetectsAIIndicators(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-request-id", "abc123")
		w.Header().Set("x-ratelimit-limit", "60")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := New(DefaultConfig())
	target := strings.TrimPrefix(srv.URL, "https://")

	result := p.probeOptions(target)
	if !result.ConfirmedAI {
		t.Errorf("expected two AI indicator headers to confirm the probe, got %+v", result)
	}
	if len(result.Indicators) < confirmIndicatorThreshold {
		t.Errorf("expected at least %d indicators, got %v", confirmIndicatorThreshold, result.Indicators)
	}
}

func TestProbeOptionsInconclusiveWithoutIndicators(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(DefaultConfig())
	target := strings.TrimPrefix(srv.URL, "https://")

	result := p.probeOptions(target)
	if result.ConfirmedAI {
		t.Errorf("expected a bare 200 with no headers to be inconclusive, got %+v", result)
	}
}
