package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/osv-scanner/pkg/models"
)

const osvBaseURL = "https://api.osv.dev/v1/vulns"

// OSVClient fetches advisories from the OSV.dev database. It covers the
// open source ecosystems and also resolves aliases such as GHSA ids.
type OSVClient struct {
	// BaseURL can be pointed at a test server.
	BaseURL string

	policy Policy
	client *http.Client
}

// NewOSVClient builds a client for the OSV API.
func NewOSVClient(policy Policy) *OSVClient {
	return &OSVClient{
		BaseURL: osvBaseURL,
		policy:  policy,
		client:  &http.Client{},
	}
}

func (c *OSVClient) Name() Kind {
	return KindOSV
}

// Fetch looks up id, retrying transient failures under the client policy.
func (c *OSVClient) Fetch(ctx context.Context, id string) (*Payload, error) {
	return fetchWithRetry(ctx, c.policy, KindOSV, id, func(ctx context.Context) (*Payload, error) {
		return c.fetchOnce(ctx, id)
	})
}

func (c *OSVClient) fetchOnce(ctx context.Context, id string) (*Payload, error) {
	// OSV identifiers are case sensitive, GHSA suffixes are lowercase.
	url := fmt.Sprintf("%s/%s", c.BaseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &SourceError{Source: KindOSV, ID: id, Kind: FailureFatal, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransport(KindOSV, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(KindOSV, id, resp.StatusCode)
	}

	var vuln models.Vulnerability
	if err := json.NewDecoder(resp.Body).Decode(&vuln); err != nil {
		return nil, &SourceError{Source: KindOSV, ID: id, Kind: FailureTransient, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &Payload{Source: KindOSV, OSV: &vuln}, nil
}
