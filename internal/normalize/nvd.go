package normalize

import (
	"strings"

	"github.com/cvelens/cvelens/internal/source"
	"github.com/cvelens/cvelens/model"
	"github.com/cvelens/cvelens/util"
)

// fromNVD maps an analyzed record of the National Vulnerability Database.
func fromNVD(id string, raw *source.NVDVulnerability) (*model.Record, error) {
	if raw.ID == "" {
		return nil, &MalformedPayloadError{Source: source.KindNVD, ID: id, Reason: "missing identifier"}
	}
	description := englishNVDText(raw.Descriptions)
	if description == "" {
		return nil, &MalformedPayloadError{Source: source.KindNVD, ID: id, Reason: "missing description"}
	}

	rec := model.NewRecord(raw.ID)
	rec.Metadata.State = util.GetStringOrDefault(raw.VulnStatus, model.NotAvailable)
	rec.Metadata.DatePublished = raw.Published
	rec.Metadata.DateUpdated = raw.LastModified
	rec.Metadata.Source = string(source.KindNVD)

	desc, solution := splitSolution(description)
	rec.Vulnerability.Description = desc
	if solution != "" {
		rec.Vulnerability.Solution = solution
	}

	if data := bestNVDCVSS(raw.Metrics); data != nil {
		score := data.BaseScore
		if score == 0 && data.VectorString != "" {
			score = util.CalculateCVSSScore(data.VectorString)
		}
		if score > 0 {
			setScore(&rec, score, data.VectorString, data.BaseSeverity)
		} else {
			setLevel(&rec, data.BaseSeverity)
		}
	}

	if vendor, product, ok := firstVulnerableCPE(raw.Configurations); ok {
		rec.Affected.Vendor = vendor
		rec.Affected.Product = product
	}
	if versions := nvdVersionRange(raw.Configurations); versions != nil {
		rec.Affected.Versions = versions
	}

	for _, weakness := range raw.Weaknesses {
		cwe := firstCWE(weakness.Description)
		if cwe == "" {
			continue
		}
		rec.ProblemTypes.CweID = cwe
		rec.ProblemTypes.Reference = cweReference(cwe)
		break
	}

	for _, ref := range raw.References {
		tags := ref.Tags
		if tags == nil {
			tags = []string{}
		}
		rec.References = append(rec.References, model.Reference{URL: ref.URL, Tags: tags})
	}

	return &rec, nil
}

// bestNVDCVSS picks the preferred assessment, primary sources ahead of
// secondary ones within each CVSS format.
func bestNVDCVSS(metrics source.NVDMetrics) *source.CVSSData {
	for _, group := range [][]source.NVDCVSSMetric{
		metrics.CVSSMetricV31,
		metrics.CVSSMetricV40,
		metrics.CVSSMetricV30,
		metrics.CVSSMetricV2,
	} {
		if len(group) == 0 {
			continue
		}
		for _, metric := range group {
			if metric.Type == "Primary" {
				return &metric.CVSSData
			}
		}
		return &group[0].CVSSData
	}
	return nil
}

// firstVulnerableCPE extracts vendor and product from the first vulnerable
// CPE criterion. A 2.3 criterion reads cpe:2.3:part:vendor:product:...
func firstVulnerableCPE(configurations []source.NVDConfiguration) (string, string, bool) {
	for _, config := range configurations {
		for _, node := range config.Nodes {
			for _, match := range node.CPEMatch {
				if !match.Vulnerable {
					continue
				}
				parts := strings.Split(match.Criteria, ":")
				if len(parts) >= 5 && parts[3] != "" && parts[4] != "" {
					return parts[3], parts[4], true
				}
			}
		}
	}
	return "", "", false
}

// nvdVersionRange extracts the version bounds of the first vulnerable CPE
// criterion that states any. A concrete version in the criterion itself
// counts as the lower bound.
func nvdVersionRange(configurations []source.NVDConfiguration) *model.VersionRange {
	for _, config := range configurations {
		for _, node := range config.Nodes {
			for _, match := range node.CPEMatch {
				if !match.Vulnerable {
					continue
				}
				from := match.VersionStartIncluding
				if from == "" {
					if parts := strings.Split(match.Criteria, ":"); len(parts) >= 6 && parts[5] != "*" && parts[5] != "-" {
						from = parts[5]
					}
				}
				to := util.FirstNonEmpty(match.VersionEndIncluding, match.VersionEndExcluding)
				if from == "" && to == "" {
					continue
				}
				return &model.VersionRange{
					From: util.NormalizeVersionBound(from),
					To:   util.NormalizeVersionBound(to),
				}
			}
		}
	}
	return nil
}

// firstCWE returns the first weakness value that names a real CWE,
// skipping the NVD-CWE-Other and NVD-CWE-noinfo placeholders.
func firstCWE(descriptions []source.NVDText) string {
	for _, desc := range descriptions {
		if strings.HasPrefix(desc.Value, "CWE-") {
			return desc.Value
		}
	}
	return ""
}

func englishNVDText(texts []source.NVDText) string {
	for _, text := range texts {
		if text.Lang == "en" {
			return text.Value
		}
	}
	if len(texts) > 0 {
		return texts[0].Value
	}
	return ""
}
