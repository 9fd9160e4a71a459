package session

import "strings"

// ClassifyDevice produces a coarse "<form factor> <browser>" label
// from a user-agent string. Best effort and purely cosmetic: the
// label feeds the cross-device session listing and never influences
// any lifecycle decision.
func ClassifyDevice(userAgent string) string {
	return formFactor(userAgent) + " " + browser(userAgent)
}

func formFactor(ua string) string {
	switch {
	case strings.Contains(ua, "iPad") || strings.Contains(ua, "Tablet"):
		return "Tablet"
	case strings.Contains(ua, "Mobile") || strings.Contains(ua, "iPhone") || strings.Contains(ua, "Android"):
		return "Mobile"
	default:
		return "Desktop"
	}
}

func browser(ua string) string {
	switch {
	// Edge ships "Chrome" in its UA as well, so it must match first.
	case strings.Contains(ua, "Edg"):
		return "Edge"
	case strings.Contains(ua, "Chrome") || strings.Contains(ua, "CriOS"):
		return "Chrome"
	case strings.Contains(ua, "Firefox"):
		return "Firefox"
	case strings.Contains(ua, "Safari"):
		return "Safari"
	default:
		return "Unknown"
	}
}
