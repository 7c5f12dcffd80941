/**
 * HTTP Protocol Parser.
 *
 * Scans unencrypted HTTP request payloads for a Host header, enough
 * to identify the destination application without a full HTTP parse.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package parser

import (
	"bytes"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// HTTPInfo holds metadata extracted from a plaintext HTTP request.
type HTTPInfo struct {
	Host      string
	UserAgent string
}

const maxHostScanBytes = 1024

// ParseHTTP scans the first 1024 bytes of a TCP payload for a
// case-insensitive "Host:" header. It returns nil (not an error) when
// no payload or no Host header is present — HTTP detection is
// best-effort and must never abort the surrounding flow.
func ParseHTTP(packet gopacket.Packet) (*HTTPInfo, error) {
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return nil, nil
	}

	tcp, _ := tcpLayer.(*layers.TCP)
	payload := tcp.Payload
	if len(payload) == 0 {
		return nil, nil
	}

	scan := payload
	if len(scan) > maxHostScanBytes {
		scan = scan[:maxHostScanBytes]
	}

	host := scanHeader(scan, "host")
	if host == "" {
		return nil, nil
	}

	info := &HTTPInfo{Host: host}
	if ua := scanHeader(scan, "user-agent"); ua != "" {
		info.UserAgent = ua
	}
	return info, nil
}

// scanHeader performs a case-insensitive scan for "<name>: <value>"
// within buf, returning the trimmed value of the first match.
func scanHeader(buf []byte, name string) string {
	lower := bytes.ToLower(buf)
	needle := []byte(name + ":")

	idx := bytes.Index(lower, needle)
	if idx == -1 {
		return ""
	}

	lineStart := idx + len(needle)
	lineEnd := bytes.IndexAny(buf[lineStart:], "\r\n")
	if lineEnd == -1 {
		lineEnd = len(buf) - lineStart
	}

	value := string(buf[lineStart : lineStart+lineEnd])
	return strings.TrimSpace(value)
}
