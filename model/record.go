// Package model defines the canonical vulnerability record produced by the
// fetch pipeline and shared by every downstream consumer.
package model

// Severity levels carried by a Record. UNKNOWN is the fallback when no
// upstream source states or implies a level.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
	SeverityUnknown  = "UNKNOWN"
)

// Defaults substituted for optional fields the upstream payload omits.
const (
	NotSpecified = "Not Specified"
	NotAvailable = "N/A"
)

// Metadata identifies the record and its upstream lifecycle state.
type Metadata struct {
	ID            string `json:"id"`    // e.g., "CVE-2024-45337"
	State         string `json:"state"` // e.g., "PUBLISHED"
	DatePublished string `json:"datePublished,omitempty"`
	DateUpdated   string `json:"dateUpdated,omitempty"`
	Source        string `json:"source,omitempty"` // database that resolved the record
}

// VersionRange bounds the affected versions of the product.
type VersionRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Affected names the vulnerable product.
type Affected struct {
	Vendor   string        `json:"vendor"`
	Product  string        `json:"product"`
	Versions *VersionRange `json:"versions,omitempty"`
}

// Severity is the severity level plus the optional CVSS score and vector.
// Level is always set; the score and vector are independently nullable.
type Severity struct {
	Level     string   `json:"level"`
	BaseScore *float64 `json:"baseScore"`
	Vector    *string  `json:"vector"`
}

// Vulnerability holds the descriptive body of the record.
type Vulnerability struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	Solution    string   `json:"solution"`
	Severity    Severity `json:"severity"`
}

// ProblemTypes classifies the weakness behind the vulnerability.
type ProblemTypes struct {
	CweID       string `json:"cweId,omitempty"` // e.g., "CWE-79"
	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"` // weakness definition URL
}

// Reference is one advisory or article URL attached to the record.
type Reference struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags,omitempty"`
}

// Record is one normalized vulnerability entry.
type Record struct {
	Metadata      Metadata      `json:"metadata"`
	Affected      Affected      `json:"affected"`
	Vulnerability Vulnerability `json:"vulnerability"`
	ProblemTypes  ProblemTypes  `json:"problemTypes"`
	References    []Reference   `json:"references"`
}

// NewRecord creates a record for id with the documented defaults filled in.
func NewRecord(id string) Record {
	return Record{
		Metadata: Metadata{ID: id, State: NotAvailable},
		Affected: Affected{Vendor: NotAvailable, Product: NotAvailable},
		Vulnerability: Vulnerability{
			Solution: NotSpecified,
			Severity: Severity{Level: SeverityUnknown},
		},
		ProblemTypes: ProblemTypes{Description: NotSpecified},
		References:   []Reference{},
	}
}

// SeverityRank orders severity levels most severe first, CRITICAL being 0.
// Unrecognized levels sort last.
func SeverityRank(level string) int {
	switch level {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}
