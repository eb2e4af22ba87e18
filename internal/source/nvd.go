package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const nvdBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

// NVDResponse is the envelope of the NVD CVE API 2.0. A query by
// identifier returns at most one entry.
type NVDResponse struct {
	TotalResults    int        `json:"totalResults"`
	Vulnerabilities []NVDEntry `json:"vulnerabilities"`
}

// NVDEntry wraps one vulnerability of the response.
type NVDEntry struct {
	CVE NVDVulnerability `json:"cve"`
}

// NVDVulnerability is one analyzed record of the National Vulnerability
// Database.
type NVDVulnerability struct {
	ID             string             `json:"id"`
	Published      string             `json:"published"`
	LastModified   string             `json:"lastModified"`
	VulnStatus     string             `json:"vulnStatus"` // e.g., "Analyzed"
	Descriptions   []NVDText          `json:"descriptions"`
	Metrics        NVDMetrics         `json:"metrics"`
	Weaknesses     []NVDWeakness      `json:"weaknesses"`
	Configurations []NVDConfiguration `json:"configurations"`
	References     []NVDReference     `json:"references"`
}

// NVDText is a language tagged free text value.
type NVDText struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// NVDMetrics groups the CVSS assessments by version.
type NVDMetrics struct {
	CVSSMetricV40 []NVDCVSSMetric `json:"cvssMetricV40"`
	CVSSMetricV31 []NVDCVSSMetric `json:"cvssMetricV31"`
	CVSSMetricV30 []NVDCVSSMetric `json:"cvssMetricV30"`
	CVSSMetricV2  []NVDCVSSMetric `json:"cvssMetricV2"`
}

// NVDCVSSMetric is one CVSS assessment with its provenance.
type NVDCVSSMetric struct {
	Source   string   `json:"source"`
	Type     string   `json:"type"` // e.g., "Primary"
	CVSSData CVSSData `json:"cvssData"`
}

// NVDWeakness classifies the weakness, usually as a CWE.
type NVDWeakness struct {
	Source      string    `json:"source"`
	Type        string    `json:"type"`
	Description []NVDText `json:"description"`
}

// NVDConfiguration describes which products the record applies to.
type NVDConfiguration struct {
	Nodes []NVDNode `json:"nodes"`
}

// NVDNode is one boolean node of a configuration.
type NVDNode struct {
	Operator string        `json:"operator"` // e.g., "OR"
	CPEMatch []NVDCPEMatch `json:"cpeMatch"`
}

// NVDCPEMatch is one CPE criterion with its version bounds.
type NVDCPEMatch struct {
	Vulnerable            bool   `json:"vulnerable"`
	Criteria              string `json:"criteria"` // e.g., "cpe:2.3:a:apache:log4j:..."
	VersionStartIncluding string `json:"versionStartIncluding"`
	VersionEndExcluding   string `json:"versionEndExcluding"`
	VersionEndIncluding   string `json:"versionEndIncluding"`
}

// NVDReference is an external link attached to the record.
type NVDReference struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags"`
}

// NVDClient fetches records from the National Vulnerability Database.
type NVDClient struct {
	// BaseURL can be pointed at a test server.
	BaseURL string

	policy Policy
	apiKey string
	client *http.Client
}

// NewNVDClient builds a client for the NVD CVE API 2.0. The API key is
// optional and only raises the rate limit.
func NewNVDClient(policy Policy, apiKey string) *NVDClient {
	return &NVDClient{
		BaseURL: nvdBaseURL,
		policy:  policy,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (c *NVDClient) Name() Kind {
	return KindNVD
}

// Fetch looks up id, retrying transient failures under the client policy.
func (c *NVDClient) Fetch(ctx context.Context, id string) (*Payload, error) {
	return fetchWithRetry(ctx, c.policy, KindNVD, id, func(ctx context.Context) (*Payload, error) {
		return c.fetchOnce(ctx, id)
	})
}

func (c *NVDClient) fetchOnce(ctx context.Context, id string) (*Payload, error) {
	lookupURL := fmt.Sprintf("%s?cveId=%s", c.BaseURL, url.QueryEscape(strings.ToUpper(id)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, &SourceError{Source: KindNVD, ID: id, Kind: FailureFatal, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransport(KindNVD, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(KindNVD, id, resp.StatusCode)
	}

	var envelope NVDResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &SourceError{Source: KindNVD, ID: id, Kind: FailureTransient, Err: fmt.Errorf("decode response: %w", err)}
	}

	// NVD answers an unknown identifier with an empty result set rather
	// than a 404.
	if len(envelope.Vulnerabilities) == 0 {
		return nil, &SourceError{Source: KindNVD, ID: id, Kind: FailureNotFound, Status: resp.StatusCode}
	}
	return &Payload{Source: KindNVD, NVD: &envelope.Vulnerabilities[0].CVE}, nil
}
