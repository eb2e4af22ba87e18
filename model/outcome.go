// Package model - per-identifier outcomes and the aggregated result set
package model

import "sort"

// Skip reasons recorded for identifiers that produced no record.
const (
	SkipNotFound = "not_found"
	SkipError    = "error"
)

// OutcomeStatus tags the per-identifier result of the fetch-and-normalize step.
type OutcomeStatus string

// Outcome statuses. Every input identifier maps to exactly one of these.
const (
	OutcomeFound    OutcomeStatus = "found"
	OutcomeNotFound OutcomeStatus = "not_found"
	OutcomeError    OutcomeStatus = "error"
)

// Outcome is the result of fetching and normalizing a single identifier.
type Outcome struct {
	ID     string
	Status OutcomeStatus
	Record *Record
	Err    error
}

// SkippedIdentifier records why an identifier produced no record.
type SkippedIdentifier struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// ResultSet is the aggregated output of one batch run. Records keeps the
// input's first-seen order and Skipped keeps that same order for the
// identifiers that produced no record. The set is never mutated once the
// batch completes.
type ResultSet struct {
	Records []Record            `json:"records"`
	Skipped []SkippedIdentifier `json:"skipped"`
}

// BySeverity returns a copy of the records ordered most severe first,
// leaving the receiver's input ordering untouched. Records with the same
// level keep their relative input order.
func (rs *ResultSet) BySeverity() []Record {
	out := make([]Record, len(rs.Records))
	copy(out, rs.Records)
	sort.SliceStable(out, func(i, j int) bool {
		return SeverityRank(out[i].Vulnerability.Severity.Level) < SeverityRank(out[j].Vulnerability.Severity.Level)
	})
	return out
}
