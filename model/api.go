// Package model - API types for the REST responses
package model

// ErrorResponse is the envelope returned by handlers on failure.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SuggestionResponse returns the AI remediation text for one record.
type SuggestionResponse struct {
	ID         string `json:"id"`
	Suggestion string `json:"suggestion"`
}

// SkippedResponse wraps the skip log of the current batch.
type SkippedResponse struct {
	Total   int                 `json:"total"`
	Skipped []SkippedIdentifier `json:"skipped"`
}
