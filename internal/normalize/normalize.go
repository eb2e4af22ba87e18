// Package normalize converts the raw payloads of the upstream databases
// into the canonical record shape. Missing optional fields get the
// documented defaults; a payload without an identifier or description is
// rejected as malformed.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cvelens/cvelens/internal/source"
	"github.com/cvelens/cvelens/model"
	"github.com/cvelens/cvelens/util"
)

// Some CNAs only state the score inside the description text.
var scorePattern = regexp.MustCompile(`CVSS\s3\.1\sBase\sScore\s(\d+(\.\d+)?)`)

// Apache style advisories close with a remediation sentence.
var remediationPattern = regexp.MustCompile(`(?i)Users are recommended.*?issue\.`)

// MalformedPayloadError reports a payload that decoded but lacks the
// content a record requires.
type MalformedPayloadError struct {
	Source source.Kind
	ID     string
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("%s payload for %s is malformed: %s", e.Source, e.ID, e.Reason)
}

// Record converts payload into a canonical record.
func Record(id string, payload *source.Payload) (*model.Record, error) {
	switch {
	case payload == nil:
		return nil, &MalformedPayloadError{ID: id, Reason: "empty payload"}
	case payload.CVE != nil:
		return fromCVE(id, payload.CVE)
	case payload.NVD != nil:
		return fromNVD(id, payload.NVD)
	case payload.OSV != nil:
		return fromOSV(id, payload.OSV)
	}
	return nil, &MalformedPayloadError{Source: payload.Source, ID: id, Reason: "no content"}
}

// splitSolution separates the remediation advice some sources append to
// the description. A blank line splits description from solution; failing
// that, the closing remediation sentence is lifted out. Returns the
// description and an empty solution when neither applies.
func splitSolution(text string) (string, string) {
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+2:])
	}

	flat := strings.ReplaceAll(text, "\n", " ")
	if loc := remediationPattern.FindStringIndex(flat); loc != nil {
		return strings.TrimSpace(flat[:loc[0]]), flat[loc[0]:loc[1]]
	}
	return strings.TrimSpace(text), ""
}

// scoreFromDescription extracts a score that is only stated in prose.
func scoreFromDescription(description string) (float64, bool) {
	match := scorePattern.FindStringSubmatch(description)
	if match == nil {
		return 0, false
	}
	score, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return score, true
}

// cweReference builds the MITRE definition URL for a CWE identifier.
func cweReference(cweID string) string {
	parts := strings.SplitN(cweID, "-", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	return fmt.Sprintf("https://cwe.mitre.org/data/definitions/%s.html", parts[1])
}

// setScore fills in the severity from a resolved score, keeping an
// upstream stated level when one exists.
func setScore(rec *model.Record, score float64, vector, level string) {
	rec.Vulnerability.Severity.BaseScore = &score
	if vector != "" {
		rec.Vulnerability.Severity.Vector = &vector
	}
	if level == "" {
		level = util.GetSeverityRating(score)
	}
	rec.Vulnerability.Severity.Level = strings.ToUpper(level)
}

// setLevel records an upstream stated level on its own, leaving the score
// and vector untouched.
func setLevel(rec *model.Record, level string) {
	if level != "" {
		rec.Vulnerability.Severity.Level = strings.ToUpper(level)
	}
}
