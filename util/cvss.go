// Package util provides utility functions for the backend.
package util

import (
	"strings"

	"github.com/google/osv-scanner/pkg/models"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"
)

// CalculateCVSSScore calculates the CVSS base score from a vector string
func CalculateCVSSScore(vectorStr string) float64 {
	if vectorStr == "" || !strings.HasPrefix(vectorStr, "CVSS:") {
		return 0
	}
	if strings.HasPrefix(vectorStr, "CVSS:3.1") || strings.HasPrefix(vectorStr, "CVSS:3.0") {
		if cvss31, err := gocvss31.ParseVector(vectorStr); err == nil {
			return cvss31.BaseScore()
		}
	}
	if strings.HasPrefix(vectorStr, "CVSS:4.0") {
		if cvss40, err := gocvss40.ParseVector(vectorStr); err == nil {
			return cvss40.Score()
		}
	}
	return 0
}

// HighestCVSSScore returns the largest base score among the CVSS entries of
// an OSV severity list, along with the vector that produced it. Entries that
// are not CVSS vectors are ignored.
func HighestCVSSScore(severities []models.Severity) (float64, string) {
	var highest float64
	var vector string
	for _, sev := range severities {
		sevType := string(sev.Type)
		if sevType != "CVSS_V3" && sevType != "CVSS_V4" {
			continue
		}
		score := CalculateCVSSScore(sev.Score)
		if score > highest {
			highest = score
			vector = sev.Score
		}
	}
	return highest, vector
}

// GetSeverityRating returns the severity level for a given CVSS score.
// Unscored records rate as UNKNOWN rather than NONE, since a missing score
// says nothing about the actual severity.
func GetSeverityRating(score float64) string {
	switch {
	case score >= 9.0:
		return "CRITICAL"
	case score >= 7.0:
		return "HIGH"
	case score >= 4.0:
		return "MEDIUM"
	case score >= 0.1:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}
