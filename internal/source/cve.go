package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const cveBaseURL = "https://cveawg.mitre.org/api/cve"

// The MITRE CVE API rejects requests that do not carry a browser
// User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36"

// CVERecord is a CVE JSON 5.x record as served by the CVE Program API.
type CVERecord struct {
	DataType    string        `json:"dataType"`    // e.g., "CVE_RECORD"
	DataVersion string        `json:"dataVersion"` // e.g., "5.1"
	Metadata    CVEMetadata   `json:"cveMetadata"`
	Containers  CVEContainers `json:"containers"`
}

// CVEMetadata identifies the record and its lifecycle state.
type CVEMetadata struct {
	ID            string `json:"cveId"`
	State         string `json:"state"` // e.g., "PUBLISHED"
	DatePublished string `json:"datePublished"`
	DateUpdated   string `json:"dateUpdated"`
}

// CVEContainers holds the CNA authored content and any ADP enrichments.
type CVEContainers struct {
	CNA CVEContainer   `json:"cna"`
	ADP []CVEContainer `json:"adp"`
}

// CVEContainer is one authority's view of the vulnerability.
type CVEContainer struct {
	Title        string           `json:"title"`
	Descriptions []CVEText        `json:"descriptions"`
	Affected     []CVEAffected    `json:"affected"`
	References   []CVEReference   `json:"references"`
	Metrics      []CVEMetric      `json:"metrics"`
	ProblemTypes []CVEProblemType `json:"problemTypes"`
	Solutions    []CVEText        `json:"solutions"`
}

// CVEText is a language tagged free text value.
type CVEText struct {
	Lang  string `json:"lang"` // e.g., "en"
	Value string `json:"value"`
}

// CVEAffected names one affected vendor and product with its version
// ranges.
type CVEAffected struct {
	Vendor   string       `json:"vendor"`
	Product  string       `json:"product"`
	Versions []CVEVersion `json:"versions"`
}

// CVEVersion is one entry of an affected version range.
type CVEVersion struct {
	Version         string `json:"version"`
	Status          string `json:"status"` // e.g., "affected"
	LessThan        string `json:"lessThan"`
	LessThanOrEqual string `json:"lessThanOrEqual"`
	VersionType     string `json:"versionType"` // e.g., "semver"
}

// CVEReference is an external link attached to the record.
type CVEReference struct {
	URL  string   `json:"url"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// CVEMetric carries the CVSS assessments of one authority. Only the
// versions present in the record are populated.
type CVEMetric struct {
	Format  string    `json:"format"` // e.g., "CVSS"
	CVSSV40 *CVSSData `json:"cvssV4_0"`
	CVSSV31 *CVSSData `json:"cvssV3_1"`
	CVSSV30 *CVSSData `json:"cvssV3_0"`
	CVSSV2  *CVSSData `json:"cvssV2_0"`
}

// CVSSData is the shared shape of a CVSS assessment.
type CVSSData struct {
	Version      string  `json:"version"` // e.g., "3.1"
	BaseScore    float64 `json:"baseScore"`
	BaseSeverity string  `json:"baseSeverity"` // e.g., "CRITICAL"
	VectorString string  `json:"vectorString"`
}

// CVEProblemType classifies the weakness behind the vulnerability.
type CVEProblemType struct {
	Descriptions []CVEProblemTypeDescription `json:"descriptions"`
}

// CVEProblemTypeDescription is one weakness classification, usually a CWE.
type CVEProblemTypeDescription struct {
	CweID       string `json:"cweId"` // e.g., "CWE-79"
	Description string `json:"description"`
	Lang        string `json:"lang"`
	Type        string `json:"type"` // e.g., "CWE"
}

// CVEClient fetches records from the CVE Program database.
type CVEClient struct {
	// BaseURL can be pointed at a test server.
	BaseURL string

	policy Policy
	client *http.Client
}

// NewCVEClient builds a client for the CVE Program API.
func NewCVEClient(policy Policy) *CVEClient {
	return &CVEClient{
		BaseURL: cveBaseURL,
		policy:  policy,
		client:  &http.Client{},
	}
}

func (c *CVEClient) Name() Kind {
	return KindCVE
}

// Fetch looks up id, retrying transient failures under the client policy.
func (c *CVEClient) Fetch(ctx context.Context, id string) (*Payload, error) {
	return fetchWithRetry(ctx, c.policy, KindCVE, id, func(ctx context.Context) (*Payload, error) {
		return c.fetchOnce(ctx, id)
	})
}

func (c *CVEClient) fetchOnce(ctx context.Context, id string) (*Payload, error) {
	url := fmt.Sprintf("%s/%s", c.BaseURL, strings.ToUpper(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &SourceError{Source: KindCVE, ID: id, Kind: FailureFatal, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransport(KindCVE, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(KindCVE, id, resp.StatusCode)
	}

	var record CVERecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, &SourceError{Source: KindCVE, ID: id, Kind: FailureTransient, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &Payload{Source: KindCVE, CVE: &record}, nil
}
