/**
 * Whitelist Short-Circuit.
 *
 * Suppresses detection entirely for known-benign multicast/broadcast
 * discovery protocols and internal-to-internal traffic, matching the
 * original rule-based detector's false-positive reduction pass.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package detector

import (
	"strings"

	"github.com/kleaSCM/shadowhunter/internal/models"
)

var internalPrefixes = []string{"192.168.", "10.0.", "172.16.", "127.0."}

var whitelistIPs = map[string]bool{
	"224.0.0.251":     true, // mDNS
	"224.0.0.252":     true, // LLMNR
	"239.255.255.250": true, // UPnP/SSDP
	"255.255.255.255": true, // Broadcast
	"224.0.0.1":       true, // All hosts multicast
	"224.0.0.2":       true, // All routers multicast
}

var whitelistPrefixes = []string{"224.", "239.", "fe80:", "ff02:"}

var whitelistPorts = map[uint16]bool{
	5353: true, // mDNS
	1900: true, // UPnP/SSDP
	5228: true, // Google Play services push
	5229: true,
	5230: true,
}

// IsInternal reports whether ip begins with a known RFC1918 prefix
// used throughout the detector pipeline.
func IsInternal(ip string) bool {
	for _, p := range internalPrefixes {
		if strings.HasPrefix(ip, p) {
			return true
		}
	}
	return false
}

// IsWhitelisted reports whether event matches a known-benign pattern
// and should be suppressed before any plugin runs.
func IsWhitelisted(event *models.FlowEvent) bool {
	dst := event.DestinationIP

	if whitelistIPs[dst] {
		return true
	}
	for _, p := range whitelistPrefixes {
		if strings.HasPrefix(dst, p) {
			return true
		}
	}
	if whitelistPorts[event.DestinationPort] {
		return true
	}
	if IsInternal(event.SourceIP) && IsInternal(dst) {
		return true
	}
	return false
}
