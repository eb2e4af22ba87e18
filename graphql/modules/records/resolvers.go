// Package records implements the resolvers for record data.
package records

import (
	"github.com/cvelens/cvelens/internal/store"
	"github.com/cvelens/cvelens/model"
)

// ResolveRecords returns the published records in the requested order,
// optionally filtered to a single severity level.
func ResolveRecords(st *store.Store, sort string, level string) ([]model.Record, error) {
	records := st.Records()
	if sort == "severity" {
		records = st.BySeverity()
	}
	if level == "" {
		return records, nil
	}

	filtered := []model.Record{}
	for _, rec := range records {
		if rec.Vulnerability.Severity.Level == level {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// ResolveSeveritySummary counts the published records per severity level,
// ordered most severe first. Levels with no records are omitted.
func ResolveSeveritySummary(st *store.Store) ([]map[string]interface{}, error) {
	counts := make(map[string]int)
	for _, rec := range st.Records() {
		counts[rec.Vulnerability.Severity.Level]++
	}

	levels := []string{
		model.SeverityCritical,
		model.SeverityHigh,
		model.SeverityMedium,
		model.SeverityLow,
		model.SeverityUnknown,
	}

	summary := []map[string]interface{}{}
	for _, level := range levels {
		if counts[level] == 0 {
			continue
		}
		summary = append(summary, map[string]interface{}{
			"level": level,
			"count": counts[level],
		})
	}
	return summary, nil
}
