package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/google/osv-scanner/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvelens/cvelens/internal/source"
	"github.com/cvelens/cvelens/model"
)

const criticalVector = "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H"

func cvePayload(raw *source.CVERecord) *source.Payload {
	return &source.Payload{Source: source.KindCVE, CVE: raw}
}

func TestCVERecordFull(t *testing.T) {
	raw := &source.CVERecord{
		Metadata: source.CVEMetadata{
			ID:            "CVE-2023-1234",
			State:         "PUBLISHED",
			DatePublished: "2023-03-06T00:00:00Z",
			DateUpdated:   "2023-03-07T00:00:00Z",
		},
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{
				Title:        "Acme Widget buffer overflow",
				Descriptions: []source.CVEText{{Lang: "en", Value: "A buffer overflow in Acme Widget.\n\nUpgrade to version 1.4."}},
				Affected: []source.CVEAffected{{
					Vendor:  "Acme",
					Product: "Widget",
					Versions: []source.CVEVersion{{
						Version:         "1.0",
						Status:          "affected",
						LessThanOrEqual: "1.3.9",
					}},
				}},
				ProblemTypes: []source.CVEProblemType{{
					Descriptions: []source.CVEProblemTypeDescription{{
						CweID:       "CWE-120",
						Description: "Buffer Copy without Checking Size of Input",
					}},
				}},
				References: []source.CVEReference{{URL: "https://example.com/advisory", Tags: []string{"vendor-advisory"}}},
			},
			ADP: []source.CVEContainer{{
				Metrics: []source.CVEMetric{{
					CVSSV31: &source.CVSSData{BaseScore: 9.8, BaseSeverity: "CRITICAL", VectorString: criticalVector},
				}},
			}},
		},
	}

	rec, err := Record("CVE-2023-1234", cvePayload(raw))
	require.NoError(t, err)

	assert.Equal(t, "CVE-2023-1234", rec.Metadata.ID)
	assert.Equal(t, "PUBLISHED", rec.Metadata.State)
	assert.Equal(t, "cve", rec.Metadata.Source)
	assert.Equal(t, "Acme Widget buffer overflow", rec.Vulnerability.Title)
	assert.Equal(t, "A buffer overflow in Acme Widget.", rec.Vulnerability.Description)
	assert.Equal(t, "Upgrade to version 1.4.", rec.Vulnerability.Solution)

	assert.Equal(t, "CRITICAL", rec.Vulnerability.Severity.Level)
	require.NotNil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, 9.8, *rec.Vulnerability.Severity.BaseScore)
	require.NotNil(t, rec.Vulnerability.Severity.Vector)
	assert.Equal(t, criticalVector, *rec.Vulnerability.Severity.Vector)

	assert.Equal(t, "Acme", rec.Affected.Vendor)
	assert.Equal(t, "Widget", rec.Affected.Product)
	require.NotNil(t, rec.Affected.Versions)
	assert.Equal(t, "1.0.0", rec.Affected.Versions.From)
	assert.Equal(t, "1.3.9", rec.Affected.Versions.To)

	assert.Equal(t, "CWE-120", rec.ProblemTypes.CweID)
	assert.Equal(t, "https://cwe.mitre.org/data/definitions/120.html", rec.ProblemTypes.Reference)

	require.Len(t, rec.References, 1)
	assert.Equal(t, "https://example.com/advisory", rec.References[0].URL)
	assert.Equal(t, []string{"vendor-advisory"}, rec.References[0].Tags)
}

func TestCVEDefaultsWhenSparse(t *testing.T) {
	raw := &source.CVERecord{
		Metadata: source.CVEMetadata{ID: "CVE-2020-0001"},
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{
				Descriptions: []source.CVEText{{Lang: "en", Value: "Something is wrong."}},
			},
		},
	}

	rec, err := Record("CVE-2020-0001", cvePayload(raw))
	require.NoError(t, err)

	assert.Equal(t, model.NotAvailable, rec.Metadata.State)
	assert.Equal(t, model.NotAvailable, rec.Affected.Vendor)
	assert.Equal(t, model.NotAvailable, rec.Affected.Product)
	assert.Nil(t, rec.Affected.Versions)
	assert.Equal(t, model.NotSpecified, rec.Vulnerability.Solution)
	assert.Equal(t, model.SeverityUnknown, rec.Vulnerability.Severity.Level)
	assert.Nil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Nil(t, rec.Vulnerability.Severity.Vector)
	assert.NotNil(t, rec.References)
	assert.Empty(t, rec.References)
}

func TestCVEMalformed(t *testing.T) {
	noID := &source.CVERecord{
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{Descriptions: []source.CVEText{{Lang: "en", Value: "text"}}},
		},
	}
	_, err := Record("CVE-2020-0001", cvePayload(noID))
	var malformed *MalformedPayloadError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "missing identifier", malformed.Reason)

	noDescription := &source.CVERecord{Metadata: source.CVEMetadata{ID: "CVE-2020-0001"}}
	_, err = Record("CVE-2020-0001", cvePayload(noDescription))
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, "missing description", malformed.Reason)
}

func TestCVESolutionFromRemediationSentence(t *testing.T) {
	raw := &source.CVERecord{
		Metadata: source.CVEMetadata{ID: "CVE-2023-9999"},
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{
				Descriptions: []source.CVEText{{
					Lang:  "en",
					Value: "Improper input validation in Acme Server. Users are recommended to upgrade to version 2.3.1, which fixes the issue.",
				}},
			},
		},
	}

	rec, err := Record("CVE-2023-9999", cvePayload(raw))
	require.NoError(t, err)

	assert.Equal(t, "Improper input validation in Acme Server.", rec.Vulnerability.Description)
	assert.Equal(t, "Users are recommended to upgrade to version 2.3.1, which fixes the issue.", rec.Vulnerability.Solution)
}

func TestCVEExplicitSolutionWins(t *testing.T) {
	raw := &source.CVERecord{
		Metadata: source.CVEMetadata{ID: "CVE-2023-9999"},
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{
				Descriptions: []source.CVEText{{Lang: "en", Value: "A deserialization flaw.\n\nMore detail here."}},
				Solutions:    []source.CVEText{{Lang: "en", Value: "Apply patch 42."}},
			},
		},
	}

	rec, err := Record("CVE-2023-9999", cvePayload(raw))
	require.NoError(t, err)

	assert.Equal(t, "Apply patch 42.", rec.Vulnerability.Solution)
	assert.Equal(t, "A deserialization flaw.\n\nMore detail here.", rec.Vulnerability.Description)
}

func TestCVEScoreFromDescription(t *testing.T) {
	raw := &source.CVERecord{
		Metadata: source.CVEMetadata{ID: "CVE-2023-5555"},
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{
				Descriptions: []source.CVEText{{
					Lang:  "en",
					Value: "A flaw was found. This issue is rated CVSS 3.1 Base Score 7.5 by the vendor.",
				}},
			},
		},
	}

	rec, err := Record("CVE-2023-5555", cvePayload(raw))
	require.NoError(t, err)

	require.NotNil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, 7.5, *rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, "HIGH", rec.Vulnerability.Severity.Level)
	assert.Nil(t, rec.Vulnerability.Severity.Vector)
}

func TestCVEScoreComputedFromVector(t *testing.T) {
	raw := &source.CVERecord{
		Metadata: source.CVEMetadata{ID: "CVE-2023-7777"},
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{
				Descriptions: []source.CVEText{{Lang: "en", Value: "A flaw."}},
				Metrics: []source.CVEMetric{{
					CVSSV31: &source.CVSSData{VectorString: criticalVector},
				}},
			},
		},
	}

	rec, err := Record("CVE-2023-7777", cvePayload(raw))
	require.NoError(t, err)

	require.NotNil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, 9.8, *rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, "CRITICAL", rec.Vulnerability.Severity.Level)
}

func TestCVEPrefersADPScore(t *testing.T) {
	raw := &source.CVERecord{
		Metadata: source.CVEMetadata{ID: "CVE-2023-8888"},
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{
				Descriptions: []source.CVEText{{Lang: "en", Value: "A flaw."}},
				Metrics: []source.CVEMetric{{
					CVSSV31: &source.CVSSData{BaseScore: 5.0, BaseSeverity: "MEDIUM"},
				}},
			},
			ADP: []source.CVEContainer{{
				Metrics: []source.CVEMetric{{
					CVSSV31: &source.CVSSData{BaseScore: 9.8, BaseSeverity: "CRITICAL", VectorString: criticalVector},
				}},
			}},
		},
	}

	rec, err := Record("CVE-2023-8888", cvePayload(raw))
	require.NoError(t, err)

	require.NotNil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, 9.8, *rec.Vulnerability.Severity.BaseScore)
}

func TestCVEStatedLevelSurvivesWithoutScore(t *testing.T) {
	raw := &source.CVERecord{
		Metadata: source.CVEMetadata{ID: "CVE-2023-6666"},
		Containers: source.CVEContainers{
			CNA: source.CVEContainer{
				Descriptions: []source.CVEText{{Lang: "en", Value: "A flaw."}},
				Metrics: []source.CVEMetric{{
					CVSSV31: &source.CVSSData{BaseSeverity: "HIGH"},
				}},
			},
		},
	}

	rec, err := Record("CVE-2023-6666", cvePayload(raw))
	require.NoError(t, err)

	// The level and the score default independently.
	assert.Equal(t, "HIGH", rec.Vulnerability.Severity.Level)
	assert.Nil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Nil(t, rec.Vulnerability.Severity.Vector)
}

func TestNVDRecord(t *testing.T) {
	raw := &source.NVDVulnerability{
		ID:           "CVE-2021-44228",
		Published:    "2021-12-10T10:15:09.143",
		LastModified: "2023-11-07T04:03:00.000",
		VulnStatus:   "Analyzed",
		Descriptions: []source.NVDText{{Lang: "en", Value: "Apache Log4j2 JNDI features do not protect against attacker controlled LDAP."}},
		Metrics: source.NVDMetrics{
			CVSSMetricV31: []source.NVDCVSSMetric{
				{Type: "Secondary", CVSSData: source.CVSSData{BaseScore: 9.0, BaseSeverity: "CRITICAL"}},
				{Type: "Primary", CVSSData: source.CVSSData{BaseScore: 10.0, BaseSeverity: "CRITICAL", VectorString: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H"}},
			},
		},
		Weaknesses: []source.NVDWeakness{
			{Description: []source.NVDText{{Lang: "en", Value: "NVD-CWE-Other"}}},
			{Description: []source.NVDText{{Lang: "en", Value: "CWE-917"}}},
		},
		Configurations: []source.NVDConfiguration{{
			Nodes: []source.NVDNode{{
				Operator: "OR",
				CPEMatch: []source.NVDCPEMatch{{
					Vulnerable:            true,
					Criteria:              "cpe:2.3:a:apache:log4j:*:*:*:*:*:*:*:*",
					VersionStartIncluding: "2.0.1",
					VersionEndExcluding:   "2.15.0",
				}},
			}},
		}},
		References: []source.NVDReference{{URL: "https://logging.apache.org/log4j/2.x/security.html", Tags: []string{"Vendor Advisory"}}},
	}

	rec, err := Record("CVE-2021-44228", &source.Payload{Source: source.KindNVD, NVD: raw})
	require.NoError(t, err)

	assert.Equal(t, "CVE-2021-44228", rec.Metadata.ID)
	assert.Equal(t, "Analyzed", rec.Metadata.State)
	assert.Equal(t, "nvd", rec.Metadata.Source)

	require.NotNil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, 10.0, *rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, "CRITICAL", rec.Vulnerability.Severity.Level)

	assert.Equal(t, "apache", rec.Affected.Vendor)
	assert.Equal(t, "log4j", rec.Affected.Product)
	require.NotNil(t, rec.Affected.Versions)
	assert.Equal(t, "2.0.1", rec.Affected.Versions.From)
	assert.Equal(t, "2.15.0", rec.Affected.Versions.To)

	assert.Equal(t, "CWE-917", rec.ProblemTypes.CweID)
	assert.Equal(t, "https://cwe.mitre.org/data/definitions/917.html", rec.ProblemTypes.Reference)

	require.Len(t, rec.References, 1)
}

func TestNVDStatedLevelSurvivesWithoutScore(t *testing.T) {
	raw := &source.NVDVulnerability{
		ID:           "CVE-2023-6666",
		Descriptions: []source.NVDText{{Lang: "en", Value: "A flaw."}},
		Metrics: source.NVDMetrics{
			CVSSMetricV31: []source.NVDCVSSMetric{
				{Type: "Primary", CVSSData: source.CVSSData{BaseSeverity: "MEDIUM"}},
			},
		},
	}

	rec, err := Record("CVE-2023-6666", &source.Payload{Source: source.KindNVD, NVD: raw})
	require.NoError(t, err)

	assert.Equal(t, "MEDIUM", rec.Vulnerability.Severity.Level)
	assert.Nil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Nil(t, rec.Vulnerability.Severity.Vector)
}

func TestNVDMalformed(t *testing.T) {
	raw := &source.NVDVulnerability{ID: "CVE-2020-0001"}

	_, err := Record("CVE-2020-0001", &source.Payload{Source: source.KindNVD, NVD: raw})

	var malformed *MalformedPayloadError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, source.KindNVD, malformed.Source)
}

func TestOSVRecord(t *testing.T) {
	raw := &models.Vulnerability{
		ID:        "GHSA-jfh8-c2jp-5v3q",
		Summary:   "Remote code injection in Log4j",
		Details:   "Log4j versions prior to 2.15.0 are subject to a remote code execution vulnerability.",
		Published: time.Date(2021, 12, 10, 0, 0, 0, 0, time.UTC),
		Modified:  time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Severity:  []models.Severity{{Type: "CVSS_V3", Score: criticalVector}},
		Affected: []models.Affected{{
			Package: models.Package{Ecosystem: "Maven", Name: "org.apache.logging.log4j:log4j-core", Purl: "pkg:maven/org.apache.logging.log4j/log4j-core"},
			Ranges: []models.Range{{
				Type:   models.RangeEcosystem,
				Events: []models.Event{{Introduced: "2.0"}, {Fixed: "2.15.0"}},
			}},
		}},
		References: []models.Reference{{Type: "ADVISORY", URL: "https://nvd.nist.gov/vuln/detail/CVE-2021-44228"}},
		DatabaseSpecific: map[string]interface{}{
			"cwe_ids": []interface{}{"CWE-502"},
		},
	}

	rec, err := Record("GHSA-jfh8-c2jp-5v3q", &source.Payload{Source: source.KindOSV, OSV: raw})
	require.NoError(t, err)

	assert.Equal(t, "GHSA-jfh8-c2jp-5v3q", rec.Metadata.ID)
	assert.Equal(t, "PUBLISHED", rec.Metadata.State)
	assert.Equal(t, "osv", rec.Metadata.Source)
	assert.Equal(t, "2021-12-10T00:00:00Z", rec.Metadata.DatePublished)

	assert.Equal(t, "Remote code injection in Log4j", rec.Vulnerability.Title)
	require.NotNil(t, rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, 9.8, *rec.Vulnerability.Severity.BaseScore)
	assert.Equal(t, "CRITICAL", rec.Vulnerability.Severity.Level)

	assert.Equal(t, "org.apache.logging.log4j", rec.Affected.Vendor)
	assert.Equal(t, "log4j-core", rec.Affected.Product)
	require.NotNil(t, rec.Affected.Versions)
	assert.Equal(t, "2.0.0", rec.Affected.Versions.From)
	assert.Equal(t, "2.15.0", rec.Affected.Versions.To)

	assert.Equal(t, "CWE-502", rec.ProblemTypes.CweID)
	require.Len(t, rec.References, 1)
	assert.Equal(t, []string{"advisory"}, rec.References[0].Tags)
}

func TestOSVWithdrawn(t *testing.T) {
	raw := &models.Vulnerability{
		ID:        "GHSA-aaaa-bbbb-cccc",
		Summary:   "Withdrawn advisory",
		Withdrawn: time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	rec, err := Record("GHSA-aaaa-bbbb-cccc", &source.Payload{Source: source.KindOSV, OSV: raw})
	require.NoError(t, err)

	assert.Equal(t, "WITHDRAWN", rec.Metadata.State)
}

func TestOSVGoVersionBounds(t *testing.T) {
	raw := &models.Vulnerability{
		ID:      "GO-2024-2687",
		Summary: "HTTP/2 CONTINUATION flood in net/http",
		Affected: []models.Affected{{
			Package: models.Package{Ecosystem: "Go", Name: "stdlib"},
			Ranges: []models.Range{{
				Type:   models.RangeSemVer,
				Events: []models.Event{{Introduced: "0"}, {Fixed: "go1.21.9"}},
			}},
		}},
	}

	rec, err := Record("GO-2024-2687", &source.Payload{Source: source.KindOSV, OSV: raw})
	require.NoError(t, err)

	assert.Equal(t, "Go", rec.Affected.Vendor)
	assert.Equal(t, "stdlib", rec.Affected.Product)
	require.NotNil(t, rec.Affected.Versions)
	assert.Equal(t, "0", rec.Affected.Versions.From)
	assert.Equal(t, "1.21.9", rec.Affected.Versions.To)
}

func TestEmptyPayloadMalformed(t *testing.T) {
	_, err := Record("CVE-2020-0001", nil)
	var malformed *MalformedPayloadError
	require.True(t, errors.As(err, &malformed))

	_, err = Record("CVE-2020-0001", &source.Payload{Source: source.KindCVE})
	require.True(t, errors.As(err, &malformed))
}

func TestSplitSolution(t *testing.T) {
	desc, solution := splitSolution("First paragraph.\n\nSecond paragraph.")
	assert.Equal(t, "First paragraph.", desc)
	assert.Equal(t, "Second paragraph.", solution)

	desc, solution = splitSolution("A flaw. users are recommended to upgrade,\nwhich fixes the issue.")
	assert.Equal(t, "A flaw.", desc)
	assert.Equal(t, "users are recommended to upgrade, which fixes the issue.", solution)

	desc, solution = splitSolution("Nothing to extract here.")
	assert.Equal(t, "Nothing to extract here.", desc)
	assert.Empty(t, solution)
}

func TestCweReference(t *testing.T) {
	assert.Equal(t, "https://cwe.mitre.org/data/definitions/79.html", cweReference("CWE-79"))
	assert.Empty(t, cweReference("CWE-"))
	assert.Empty(t, cweReference(""))
	assert.Empty(t, cweReference("unknown"))
}
