/**
 * Auto-Response Manager.
 *
 * Maintains an in-memory IP quarantine list for CRITICAL-severity
 * alerts, with a whitelist guard, capacity cap, TTL-based auto-expiry,
 * and a capped audit trail. Grounded on
 * original_source/services/response/manager.py's ResponseManager.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package response

import (
	"strings"
	"sync"
	"time"

	"github.com/kleaSCM/shadowhunter/internal/models"
	"github.com/kleaSCM/shadowhunter/internal/obslog"
)

const (
	DefaultMaxBlocked        = 500
	DefaultAutoExpire        = time.Hour
	maxAuditLogEntries       = 1000
	recentAuditLogEntries    = 50
)

// blockWhitelist lists IPs that must never be quarantined regardless
// of alert severity.
var blockWhitelist = map[string]bool{
	"8.8.8.8": true, "8.8.4.4": true, "1.1.1.1": true, "1.0.0.1": true,
	"192.168.1.1": true, "192.168.0.1": true, "10.0.0.1": true,
	"255.255.255.255": true, "224.0.0.1": true, "224.0.0.251": true,
}

// AuditEntry records one block/unblock/rejection action.
type AuditEntry struct {
	Action    string
	IP        string
	Reason    string
	Auto      bool
	Timestamp time.Time
}

// BlockResult is the outcome of a Block call.
type BlockResult struct {
	Blocked       bool
	Reason        string
	IP            string
	Severity      models.Severity
	ExpiresAt     *time.Time
	TotalBlocked  int
}

// UnblockResult is the outcome of an Unblock call.
type UnblockResult struct {
	Unblocked bool
	Reason    string
	IP        string
}

// Manager is the SOAR-style auto-response quarantine list.
type Manager struct {
	enabled     bool
	maxBlocked  int
	autoExpire  time.Duration
	log         *obslog.Logger

	mu             sync.Mutex
	blocked        map[string]*models.BlockEntry
	auditLog       []AuditEntry
	totalBlocks    int
	totalUnblocks  int
}

// Config controls the manager's capacity and TTL behavior.
type Config struct {
	Enabled     bool
	MaxBlocked  int
	AutoExpire  time.Duration
}

// DefaultConfig matches the reference implementation: 500 max entries,
// 1 hour auto-expiry TTL.
func DefaultConfig() Config {
	return Config{Enabled: true, MaxBlocked: DefaultMaxBlocked, AutoExpire: DefaultAutoExpire}
}

// New builds a Manager from cfg, filling in defaults for zero values.
func New(cfg Config) *Manager {
	if cfg.MaxBlocked <= 0 {
		cfg.MaxBlocked = DefaultMaxBlocked
	}
	if cfg.AutoExpire <= 0 {
		cfg.AutoExpire = DefaultAutoExpire
	}
	return &Manager{
		enabled:    cfg.Enabled,
		maxBlocked: cfg.MaxBlocked,
		autoExpire: cfg.AutoExpire,
		log:        obslog.New("response"),
		blocked:    make(map[string]*models.BlockEntry),
	}
}

func isWhitelisted(ip string) bool {
	if blockWhitelist[ip] {
		return true
	}
	return strings.HasPrefix(ip, "127.") || strings.HasPrefix(ip, "224.") || strings.HasPrefix(ip, "239.")
}

func (m *Manager) logAction(action, ip, reason string, auto bool) {
	m.auditLog = append(m.auditLog, AuditEntry{Action: action, IP: ip, Reason: reason, Auto: auto, Timestamp: time.Now()})
	if len(m.auditLog) > maxAuditLogEntries {
		m.auditLog = m.auditLog[len(m.auditLog)-maxAuditLogEntries:]
	}
}

// cleanupExpired removes entries whose TTL has elapsed. Callers must
// hold m.mu.
func (m *Manager) cleanupExpired() {
	now := time.Now()
	for ip, entry := range m.blocked {
		if entry.Expired(now) {
			delete(m.blocked, ip)
			m.totalUnblocks++
			m.logAction("UNBLOCKED", ip, "auto-expired (TTL reached)", true)
			m.log.Infof("IP unblocked: %s (auto-expired)", ip)
		}
	}
}

// Block quarantines ip, returning whether the block took effect and
// why not otherwise. auto marks the block as automatic (subject to
// TTL expiry) versus manual (permanent until explicitly unblocked).
func (m *Manager) Block(ip, reason string, severity models.Severity, alertID string, auto bool) BlockResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return BlockResult{Blocked: false, Reason: "auto-response is disabled"}
	}
	if isWhitelisted(ip) {
		m.logAction("BLOCK_REJECTED", ip, "whitelisted — "+reason, auto)
		m.log.Infof("block rejected: %s is whitelisted", ip)
		return BlockResult{Blocked: false, Reason: ip + " is whitelisted"}
	}
	if _, exists := m.blocked[ip]; exists {
		return BlockResult{Blocked: false, Reason: ip + " is already blocked"}
	}

	m.cleanupExpired()
	if len(m.blocked) >= m.maxBlocked {
		m.log.Warnf("block list full (%d) — cannot block %s", m.maxBlocked, ip)
		return BlockResult{Blocked: false, Reason: "block list capacity reached"}
	}

	var expiresAt *time.Time
	if auto {
		t := time.Now().Add(m.autoExpire)
		expiresAt = &t
	}

	entry := &models.BlockEntry{
		IP:            ip,
		Reason:        reason,
		Severity:      severity,
		BlockedAt:     time.Now(),
		SourceAlertID: alertID,
		AutoBlocked:   auto,
		ExpiresAt:     expiresAt,
	}
	m.blocked[ip] = entry
	m.totalBlocks++
	m.logAction("BLOCKED", ip, reason, auto)
	m.log.Warnf("IP blocked: %s — %s (severity=%s, auto=%v)", ip, reason, severity, auto)

	return BlockResult{
		Blocked:      true,
		IP:           ip,
		Severity:     severity,
		ExpiresAt:    expiresAt,
		TotalBlocked: len(m.blocked),
	}
}

// Unblock manually removes ip from quarantine.
func (m *Manager) Unblock(ip, reason string) UnblockResult {
	if reason == "" {
		reason = "manual unblock"
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blocked[ip]; !exists {
		return UnblockResult{Unblocked: false, Reason: ip + " is not currently blocked"}
	}
	delete(m.blocked, ip)
	m.totalUnblocks++
	m.logAction("UNBLOCKED", ip, reason, false)
	m.log.Infof("IP unblocked: %s — %s", ip, reason)

	return UnblockResult{Unblocked: true, IP: ip, Reason: reason}
}

// IsBlocked reports whether ip is currently quarantined, sweeping
// expired entries first.
func (m *Manager) IsBlocked(ip string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupExpired()
	_, blocked := m.blocked[ip]
	return blocked
}

// BlockedIPs returns every currently quarantined entry.
func (m *Manager) BlockedIPs() []models.BlockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupExpired()

	out := make([]models.BlockEntry, 0, len(m.blocked))
	for _, e := range m.blocked {
		out = append(out, *e)
	}
	return out
}

// Stats summarizes the manager's current state for dashboard display.
type Stats struct {
	Enabled       bool
	Currently     int
	MaxCapacity   int
	TotalBlocks   int
	TotalUnblocks int
	AuditLogSize  int
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupExpired()

	return Stats{
		Enabled:       m.enabled,
		Currently:     len(m.blocked),
		MaxCapacity:   m.maxBlocked,
		TotalBlocks:   m.totalBlocks,
		TotalUnblocks: m.totalUnblocks,
		AuditLogSize:  len(m.auditLog),
	}
}

// RecentAuditLog returns the most recent audit entries, capped at 50.
func (m *Manager) RecentAuditLog() []AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.auditLog)
	if n > recentAuditLogEntries {
		n = recentAuditLogEntries
	}
	out := make([]AuditEntry, n)
	copy(out, m.auditLog[len(m.auditLog)-n:])
	return out
}
