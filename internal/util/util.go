// Package util holds small request-metadata heuristics and input sanitisers.
package util

import (
	"net"
	"regexp"
	"strings"
)

// Unknown is returned when a heuristic cannot classify its input.
const (
	Unknown       = "Unknown"
	UnknownDevice = "Unknown Device"
)

var (
	parenthesised = regexp.MustCompile(`\(([^)]+)\)`)
	windowsNT     = regexp.MustCompile(`Windows NT ([\d.]+)`)
	macOSX        = regexp.MustCompile(`Mac OS X ([\d_]+)`)
	phoneChars    = regexp.MustCompile(`[^\d+]`)
)

// DeviceInfo classifies a User-Agent into a short human-readable label.
// It never fails; unrecognised input yields UnknownDevice.
func DeviceInfo(userAgent string) string {
	ua := strings.TrimSpace(userAgent)
	if ua == "" || ua == Unknown {
		return UnknownDevice
	}

	if strings.Contains(ua, "Mobile") || strings.Contains(ua, "Android") || strings.Contains(ua, "iPhone") {
		if m := parenthesised.FindStringSubmatch(ua); len(m) == 2 {
			return m[1]
		}

		return "Mobile Device"
	}

	if strings.Contains(ua, "Windows NT") {
		if m := windowsNT.FindStringSubmatch(ua); len(m) == 2 {
			return "Windows " + m[1]
		}

		return "Windows PC"
	}

	if strings.Contains(ua, "Mac OS X") {
		if m := macOSX.FindStringSubmatch(ua); len(m) == 2 {
			return "macOS " + strings.ReplaceAll(m[1], "_", ".")
		}

		return "Mac"
	}

	if strings.Contains(ua, "Linux") {
		if strings.Contains(ua, "Ubuntu") {
			return "Ubuntu Linux"
		}

		return "Linux"
	}

	switch {
	case strings.Contains(ua, "Edge"):
		return "Edge Browser"
	case strings.Contains(ua, "Chrome"):
		return "Chrome Browser"
	case strings.Contains(ua, "Firefox"):
		return "Firefox Browser"
	case strings.Contains(ua, "Safari"):
		return "Safari Browser"
	}

	return UnknownDevice
}

// ClientIP picks the first forwarded-for hop, then X-Real-IP, then the peer address.
func ClientIP(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(realIP); ip != "" {
		return ip
	}

	if remoteAddr = strings.TrimSpace(remoteAddr); remoteAddr != "" {
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			return host
		}

		return remoteAddr
	}

	return Unknown
}

// SanitizePhone keeps digits and the plus sign.
func SanitizePhone(phone string) string {
	return phoneChars.ReplaceAllString(phone, "")
}

// SanitizeText trims surrounding whitespace and collapses internal runs of whitespace.
func SanitizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MaskEmail hides most of the local part, for log lines.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}

	return local[:1] + "***@" + domain
}
