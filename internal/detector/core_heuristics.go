/**
 * Core Heuristics Plugins.
 *
 * The foundational rule-based detectors: known AI domain access,
 * unusual outbound ports, DNS tunneling, and bulk data exfiltration.
 * Ported from original_source/services/analyzer/plugins/core_heuristics.py.
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
	Register(&AIDomainDetector{})
	Register(&UnusualPortDetector{})
	Register(&DNSTunnelingDetector{})
	Register(&DataExfiltrationDetector{})
}

// AIDomainDetector flags traffic to known AI/ML service domains.
type AIDomainDetector struct{}

func (d *AIDomainDetector) Name() string { return "AI Domain Detector" }

func (d *AIDomainDetector) Detect(event *models.FlowEvent) (bool, models.Severity, string) {
	host := event.Host()
	if host == "" {
		return false, 0, ""
	}
	category, ok := intel.GetAICategory(host)
	if !ok {
		return false, 0, ""
	}
	return true, models.SeverityHigh, fmt.Sprintf("Known AI Service [%s] Accessed: %s", category, host)
}

// knownPorts are the ports excluded from the Unusual-Port rule.
var knownPorts = map[uint16]bool{
	80: true, 443: true, 8080: true, 53: true, 8443: true,
	993: true, 995: true, 587: true, 465: true, 22: true, 3389: true,
}

// UnusualPortDetector flags internal-to-external traffic on a
// non-standard port.
type UnusualPortDetector struct{}

func (d *UnusualPortDetector) Name() string { return "Unusual Port Detector" }

func (d *UnusualPortDetector) Detect(event *models.FlowEvent) (bool, models.Severity, string) {
	if !IsInternal(event.SourceIP) || IsInternal(event.DestinationIP) {
		return false, 0, ""
	}
	if knownPorts[event.DestinationPort] {
		return false, 0, ""
	}
	return true, models.SeverityMedium, fmt.Sprintf(
		"Outbound traffic to %s on unusual port %d", event.DestinationIP, event.DestinationPort)
}

// dnsTunnelingByteThreshold is the payload size above which a DNS
// query is considered suspiciously large.
const dnsTunnelingByteThreshold = 500

// DNSTunnelingDetector flags DNS queries with suspiciously large
// payloads.
type DNSTunnelingDetector struct{}

func (d *DNSTunnelingDetector) Name() string { return "DNS Tunneling Detector" }

func (d *DNSTunnelingDetector) Detect(event *models.FlowEvent) (bool, models.Severity, string) {
	if event.Protocol != models.ProtocolDNS || event.BytesSent <= dnsTunnelingByteThreshold {
		return false, 0, ""
	}
	return true, models.SeverityHigh, "Potential DNS Tunneling (Large DNS Payload)"
}

// exfilThresholdBytes is the single-flow upload size considered a
// bulk exfiltration event (500 KB).
const exfilThresholdBytes = 500_000

// DataExfiltrationDetector flags unusually large outbound transfers
// to external hosts.
type DataExfiltrationDetector struct{}

func (d *DataExfiltrationDetector) Name() string { return "Data Exfiltration Detector" }

func (d *DataExfiltrationDetector) Detect(event *models.FlowEvent) (bool, models.Severity, string) {
	if !IsInternal(event.SourceIP) || IsInternal(event.DestinationIP) {
		return false, 0, ""
	}
	if event.BytesSent <= exfilThresholdBytes {
		return false, 0, ""
	}
	sizeKB := float64(event.BytesSent) / 1024
	return true, models.SeverityHigh, fmt.Sprintf(
		"Large upload (%.0f KB) to external host %s", sizeKB, event.DestinationIP)
}
