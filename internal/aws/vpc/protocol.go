package vpc

import "strings"

// NormalizeProtocol converts AWS protocol numbers and lower-case names to
// display names. Unknown protocols pass through.
func NormalizeProtocol(protocol string) string {
	switch strings.ToLower(protocol) {
	case "-1", "all":
		return "All"
	case "6", "tcp":
		return "TCP"
	case "17", "udp":
		return "UDP"
	case "1", "icmp":
		return "ICMP"
	default:
		return protocol
	}
}
