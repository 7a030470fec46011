// Package pathname maps raw hardware and sensor names onto the canonical
// slash-delimited query grammar. Normalization is total: any input falls
// through to the generic slug rule.
package pathname

import (
	"regexp"
	"strings"

	"sensorstream/internal/snapshot"
)

var (
	coreRe  = regexp.MustCompile(`(?i)core #?(\d+)`)
	digitRe = regexp.MustCompile(`\d+`)
)

// Slug lower-cases a raw name and strips characters that are unsafe in a
// path segment: spaces, '#', '(', ')' and '.'. Hyphens and commas pass
// through unchanged.
func Slug(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "", "#", "", "(", "", ")", "", ".", "").Replace(s)
}

// Normalize returns the canonical path segment for a sensor, relative to its
// node. Two raw names that normalize identically are intentionally merged;
// the first in sensor order wins for enumeration.
func Normalize(kind snapshot.Kind, sensorType snapshot.SensorType, rawName string) string {
	switch kind {
	case snapshot.KindGPU:
		return normalizeGPU(rawName)
	case snapshot.KindCPU:
		return normalizeCPU(sensorType, rawName)
	default:
		return sensorType.String() + "/" + Slug(rawName)
	}
}

func normalizeGPU(rawName string) string {
	lower := strings.ToLower(rawName)

	if strings.Contains(lower, "fan") {
		if m := digitRe.FindString(rawName); m != "" {
			return "fan/" + m
		}
		return "fan/1"
	}
	if strings.HasPrefix(lower, "d3d") {
		return "d3d/" + Slug(strings.TrimPrefix(lower, "d3d"))
	}
	if strings.Contains(lower, "power") {
		return "power"
	}
	if strings.Contains(lower, "memory") {
		return Slug(strings.ReplaceAll(lower, "gpu", ""))
	}
	return Slug(rawName)
}

func normalizeCPU(sensorType snapshot.SensorType, rawName string) string {
	if m := coreRe.FindStringSubmatch(rawName); m != nil {
		return coreGroup(sensorType) + "/core" + m[1]
	}
	if strings.Contains(strings.ToLower(rawName), "package") {
		return "package/" + Slug(rawName)
	}
	return sensorType.String() + "/" + Slug(rawName)
}

// coreGroup picks the grouping segment for a core-scoped CPU sensor. Load is
// the default for types without a dedicated group.
func coreGroup(sensorType snapshot.SensorType) string {
	switch sensorType {
	case snapshot.SensorVoltage, snapshot.SensorClock, snapshot.SensorFactor,
		snapshot.SensorPower, snapshot.SensorTemperature, snapshot.SensorLoad:
		return sensorType.String()
	default:
		return "load"
	}
}

// NormalizeQuery canonicalizes a client-supplied sensor path for comparison
// against Normalize output: each segment slugged, separators preserved.
func NormalizeQuery(segments []string) string {
	out := make([]string, len(segments))
	for i, seg := range segments {
		out[i] = Slug(seg)
	}
	return strings.Join(out, "/")
}

// FirstNumber returns the first embedded digit sequence in s as an integer,
// or -1 if there is none. Used for natural ordering (core2 before core10).
func FirstNumber(s string) int {
	m := digitRe.FindString(s)
	if m == "" {
		return -1
	}
	n := 0
	for _, r := range m {
		n = n*10 + int(r-'0')
	}
	return n
}

// StripDigits removes every digit from s.
func StripDigits(s string) string {
	return digitRe.ReplaceAllString(s, "")
}
