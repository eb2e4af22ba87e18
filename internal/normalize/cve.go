package normalize

import (
	"strings"

	"github.com/cvelens/cvelens/internal/source"
	"github.com/cvelens/cvelens/model"
	"github.com/cvelens/cvelens/util"
)

// fromCVE maps a CVE JSON 5.x record. The CNA container authors the
// content; the ADP enrichments are preferred for scoring because CISA
// fills in the assessments many CNAs omit.
func fromCVE(id string, raw *source.CVERecord) (*model.Record, error) {
	if raw.Metadata.ID == "" {
		return nil, &MalformedPayloadError{Source: source.KindCVE, ID: id, Reason: "missing identifier"}
	}
	cna := raw.Containers.CNA
	description := englishText(cna.Descriptions)
	if description == "" {
		return nil, &MalformedPayloadError{Source: source.KindCVE, ID: id, Reason: "missing description"}
	}

	rec := model.NewRecord(raw.Metadata.ID)
	rec.Metadata.State = util.GetStringOrDefault(raw.Metadata.State, model.NotAvailable)
	rec.Metadata.DatePublished = raw.Metadata.DatePublished
	rec.Metadata.DateUpdated = raw.Metadata.DateUpdated
	rec.Metadata.Source = string(source.KindCVE)

	rec.Vulnerability.Title = cna.Title

	if solution := englishText(cna.Solutions); solution != "" {
		rec.Vulnerability.Description = description
		rec.Vulnerability.Solution = solution
	} else {
		desc, solution := splitSolution(description)
		rec.Vulnerability.Description = desc
		if solution != "" {
			rec.Vulnerability.Solution = solution
		}
	}

	applyCVEScore(&rec, raw)

	if len(cna.Affected) > 0 {
		affected := cna.Affected[0]
		rec.Affected.Vendor = util.GetStringOrDefault(affected.Vendor, model.NotAvailable)
		rec.Affected.Product = util.GetStringOrDefault(affected.Product, model.NotAvailable)
		if len(affected.Versions) > 0 {
			ver := affected.Versions[0]
			upper := util.FirstNonEmpty(ver.LessThanOrEqual, ver.LessThan)
			rec.Affected.Versions = &model.VersionRange{
				From: util.NormalizeVersionBound(ver.Version),
				To:   util.NormalizeVersionBound(upper),
			}
		}
	}

	for _, problemType := range cna.ProblemTypes {
		if len(problemType.Descriptions) == 0 {
			continue
		}
		desc := problemType.Descriptions[0]
		rec.ProblemTypes.CweID = desc.CweID
		rec.ProblemTypes.Description = util.GetStringOrDefault(desc.Description, model.NotSpecified)
		rec.ProblemTypes.Reference = cweReference(desc.CweID)
		break
	}

	for _, ref := range cna.References {
		tags := ref.Tags
		if tags == nil {
			tags = []string{}
		}
		rec.References = append(rec.References, model.Reference{URL: ref.URL, Tags: tags})
	}

	return &rec, nil
}

// applyCVEScore resolves the severity through the available rungs: ADP
// assessments, CNA assessments, a score stated in the description, and
// finally a vector without a score. A stated level survives even when no
// score can be resolved, since the two default independently.
func applyCVEScore(rec *model.Record, raw *source.CVERecord) {
	containers := make([]source.CVEContainer, 0, len(raw.Containers.ADP)+1)
	containers = append(containers, raw.Containers.ADP...)
	containers = append(containers, raw.Containers.CNA)

	var statedLevel string
	for _, container := range containers {
		if data := bestCVSS(container.Metrics); data != nil {
			score := data.BaseScore
			if score == 0 && data.VectorString != "" {
				score = util.CalculateCVSSScore(data.VectorString)
			}
			if score > 0 {
				setScore(rec, score, data.VectorString, data.BaseSeverity)
				return
			}
			if statedLevel == "" {
				statedLevel = data.BaseSeverity
			}
		}
	}

	if score, ok := scoreFromDescription(rec.Vulnerability.Description); ok {
		setScore(rec, score, "", statedLevel)
		return
	}
	setLevel(rec, statedLevel)
}

// bestCVSS picks the preferred assessment of a container. CVSS 3.1 is
// checked first, then 4.0, 3.0 and 2.0.
func bestCVSS(metrics []source.CVEMetric) *source.CVSSData {
	for _, pick := range []func(source.CVEMetric) *source.CVSSData{
		func(m source.CVEMetric) *source.CVSSData { return m.CVSSV31 },
		func(m source.CVEMetric) *source.CVSSData { return m.CVSSV40 },
		func(m source.CVEMetric) *source.CVSSData { return m.CVSSV30 },
		func(m source.CVEMetric) *source.CVSSData { return m.CVSSV2 },
	} {
		for _, metric := range metrics {
			if data := pick(metric); data != nil {
				return data
			}
		}
	}
	return nil
}

// englishText picks the English entry of a language tagged list, falling
// back to the first entry.
func englishText(texts []source.CVEText) string {
	for _, text := range texts {
		if text.Lang == "en" || strings.HasPrefix(text.Lang, "en-") {
			return text.Value
		}
	}
	if len(texts) > 0 {
		return texts[0].Value
	}
	return ""
}
