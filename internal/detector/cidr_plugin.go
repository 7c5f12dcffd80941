/**
 * CIDR Threat Intelligence Plugin.
 *
 * Catches Shadow AI traffic that bypasses DNS entirely by matching
 * the destination IP against known AI-provider CIDR blocks. Ported
 * from original_source/services/analyzer/plugins/cidr_intel.py.
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
	Register(NewCIDRIntelPlugin())
}

// CIDRIntelPlugin matches destination IPs against known AI-provider
// CIDR blocks.
type CIDRIntelPlugin struct {
	matcher *intel.CIDRMatcher
}

// NewCIDRIntelPlugin builds a plugin backed by a fresh CIDRMatcher.
func NewCIDRIntelPlugin() *CIDRIntelPlugin {
	return &CIDRIntelPlugin{matcher: intel.NewCIDRMatcher()}
}

func (p *CIDRIntelPlugin) Name() string { return "CIDR Threat Intelligence" }

func (p *CIDRIntelPlugin) Detect(event *models.FlowEvent) (bool, models.Severity, string) {
	match := p.matcher.Lookup(event.DestinationIP)
	if match == nil {
		return false, 0, ""
	}
	reason := fmt.Sprintf("CIDR Intel: IP %s belongs to %s (%s) [%s] — %s",
		event.DestinationIP, match.Provider, match.Service, match.Category, match.DataRisk)
	return true, models.ParseSeverity(match.RiskLevel), reason
}
