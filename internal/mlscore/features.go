/**
 * Feature Extraction.
 *
 * Converts a FlowEvent into the fixed 16-dimension numeric vector
 * both ML scorers consume. Port tables and bucket boundaries are
 * ported verbatim from
 * original_source/services/intelligence/features/extractor.py so a
 * deployment without trained models reproduces identical heuristic
 * verdicts.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package mlscore

import (
	"math"
	"strings"

	"github.com/kleaSCM/shadowhunter/internal/intel"
	"github.com/kleaSCM/shadowhunter/internal/models"
)

// VectorSize is the fixed feature vector length.
const VectorSize = 16

// Vector is the ML feature representation of one FlowEvent.
type Vector [VectorSize]float64

// portCategoryOrder fixes the iteration order used to compute the
// port_category dimension, matching the Python dict's insertion
// order (web, mail, dns, ssh, database, file_transfer).
var portCategoryOrder = []string{"web", "mail", "dns", "ssh", "database", "file_transfer"}

var portCategories = map[string][]uint16{
	"web":           {80, 443, 8080, 8443},
	"mail":          {25, 465, 587, 993, 995},
	"dns":           {53},
	"ssh":           {22},
	"database":      {3306, 5432, 27017, 6379},
	"file_transfer": {20, 21, 445},
}

// aiAPIPorts are ports commonly fronting AI APIs and services.
var aiAPIPorts = map[uint16]bool{443: true, 8080: true, 8443: true, 3000: true, 5000: true, 8000: true}

var extractorInternalPrefixes = []string{
	"192.168.", "10.", "172.16.", "172.17.", "172.18.", "172.19.", "172.20.",
	"172.21.", "172.22.", "172.23.", "172.24.", "172.25.", "172.26.", "172.27.",
	"172.28.", "172.29.", "172.30.", "172.31.", "127.",
}

func isInternal(ip string) bool {
	for _, p := range extractorInternalPrefixes {
		if strings.HasPrefix(ip, p) {
			return true
		}
	}
	return false
}

func isWellKnownPort(port uint16) bool {
	for _, ports := range portCategories {
		for _, p := range ports {
			if p == port {
				return true
			}
		}
	}
	return false
}

func portCategory(port uint16) float64 {
	for i, name := range portCategoryOrder {
		for _, p := range portCategories[name] {
			if p == port {
				return float64(i+1) / float64(len(portCategoryOrder))
			}
		}
	}
	return 0.0
}

// payloadBucket categorizes total_bytes into the size buckets the
// Python extractor uses: tiny(0) < 1KB | small(0.25) < 10KB |
// medium(0.5) < 100KB | large(0.75) < 1MB | huge(1.0).
func payloadBucket(totalBytes uint64) float64 {
	switch {
	case totalBytes < 1024:
		return 0.0
	case totalBytes < 10240:
		return 0.25
	case totalBytes < 102400:
		return 0.5
	case totalBytes < 1048576:
		return 0.75
	default:
		return 1.0
	}
}

func protocolID(p models.Protocol) float64 {
	switch p {
	case models.ProtocolTCP:
		return 0
	case models.ProtocolUDP:
		return 1
	case models.ProtocolHTTP:
		return 2
	case models.ProtocolHTTPS:
		return 3
	case models.ProtocolDNS:
		return 4
	default:
		return -1
	}
}

// Extractor builds feature vectors, consulting cidr for the
// is_known_ai_cidr dimension.
type Extractor struct {
	cidr *intel.CIDRMatcher
}

// NewExtractor builds an Extractor backed by a fresh CIDRMatcher.
func NewExtractor() *Extractor {
	return &Extractor{cidr: intel.NewCIDRMatcher()}
}

// Extract converts event into its 16-dimension feature vector.
func (x *Extractor) Extract(event *models.FlowEvent) Vector {
	host := event.Host()
	if event.Metadata != nil {
		if h := event.Metadata[models.MetaHost]; h != "" {
			host = h
		} else if s := event.Metadata[models.MetaSNI]; s != "" {
			host = s
		}
	}
	totalBytes := event.TotalBytes()

	var v Vector
	v[0] = protocolID(event.Protocol)
	v[1] = float64(event.DestinationPort) / 65535.0
	v[2] = math.Log1p(float64(event.BytesSent))
	v[3] = math.Log1p(float64(event.BytesReceived))
	v[4] = float64(event.BytesSent) / math.Max(float64(totalBytes), 1)
	v[5] = boolToFloat(isInternal(event.SourceIP))
	v[6] = boolToFloat(isInternal(event.DestinationIP))
	v[7] = boolToFloat(isWellKnownPort(event.DestinationPort))
	v[8] = portCategory(event.DestinationPort)
	v[9] = boolToFloat(host != "")
	v[10] = float64(len(host)) / 100.0
	v[11] = float64(strings.Count(host, "."))
	v[12] = float64(event.Timestamp.Hour()) / 23.0
	v[13] = boolToFloat(aiAPIPorts[event.DestinationPort])
	v[14] = payloadBucket(totalBytes)
	v[15] = boolToFloat(x.cidr.Lookup(event.DestinationIP) != nil)
	return v
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
