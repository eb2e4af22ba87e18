package normalize

import (
	"strings"
	"time"

	"github.com/google/osv-scanner/pkg/models"
	"github.com/package-url/packageurl-go"

	"github.com/cvelens/cvelens/internal/source"
	"github.com/cvelens/cvelens/model"
	"github.com/cvelens/cvelens/util"
)

// fromOSV maps an OSV advisory. OSV details are markdown with blank
// lines between paragraphs, so only the remediation sentence heuristic
// applies when looking for a solution.
func fromOSV(id string, raw *models.Vulnerability) (*model.Record, error) {
	if raw.ID == "" {
		return nil, &MalformedPayloadError{Source: source.KindOSV, ID: id, Reason: "missing identifier"}
	}
	description := util.FirstNonEmpty(raw.Details, raw.Summary)
	if description == "" {
		return nil, &MalformedPayloadError{Source: source.KindOSV, ID: id, Reason: "missing description"}
	}

	rec := model.NewRecord(raw.ID)
	rec.Metadata.State = "PUBLISHED"
	if !raw.Withdrawn.IsZero() {
		rec.Metadata.State = "WITHDRAWN"
	}
	if !raw.Published.IsZero() {
		rec.Metadata.DatePublished = raw.Published.UTC().Format(time.RFC3339)
	}
	if !raw.Modified.IsZero() {
		rec.Metadata.DateUpdated = raw.Modified.UTC().Format(time.RFC3339)
	}
	rec.Metadata.Source = string(source.KindOSV)

	rec.Vulnerability.Title = raw.Summary
	rec.Vulnerability.Description = description
	flat := strings.ReplaceAll(description, "\n", " ")
	if match := remediationPattern.FindString(flat); match != "" {
		rec.Vulnerability.Solution = match
	}

	severities := raw.Severity
	if len(severities) == 0 && len(raw.Affected) > 0 {
		severities = raw.Affected[0].Severity
	}
	if score, vector := util.HighestCVSSScore(severities); score > 0 {
		setScore(&rec, score, vector, "")
	}

	if len(raw.Affected) > 0 {
		applyOSVPackage(&rec, raw.Affected[0])
	}

	rec.ProblemTypes.CweID = osvCWE(raw.DatabaseSpecific)
	rec.ProblemTypes.Reference = cweReference(rec.ProblemTypes.CweID)

	for _, ref := range raw.References {
		tags := []string{}
		if ref.Type != "" {
			tags = append(tags, strings.ToLower(string(ref.Type)))
		}
		rec.References = append(rec.References, model.Reference{URL: ref.URL, Tags: tags})
	}

	return &rec, nil
}

// applyOSVPackage fills the affected product from the advisory's first
// package entry. The purl is the richest identity when present.
func applyOSVPackage(rec *model.Record, affected models.Affected) {
	pkg := affected.Package
	if pkg.Purl != "" {
		if purl, err := packageurl.FromString(pkg.Purl); err == nil {
			rec.Affected.Vendor = util.FirstNonEmpty(purl.Namespace, purl.Type)
			rec.Affected.Product = purl.Name
		}
	}
	if rec.Affected.Product == model.NotAvailable && pkg.Name != "" {
		rec.Affected.Vendor = util.GetStringOrDefault(string(pkg.Ecosystem), model.NotAvailable)
		rec.Affected.Product = pkg.Name
	}

	if versions := osvVersionRange(affected); versions != nil {
		rec.Affected.Versions = versions
	}
}

// osvVersionRange derives the affected range from the first range that
// carries events, falling back to the enumerated version list.
func osvVersionRange(affected models.Affected) *model.VersionRange {
	for _, rng := range affected.Ranges {
		var introduced, fixed string
		for _, event := range rng.Events {
			if introduced == "" && event.Introduced != "" {
				introduced = event.Introduced
			}
			if fixed == "" {
				fixed = util.FirstNonEmpty(event.Fixed, event.LastAffected)
			}
		}
		if introduced == "" && fixed == "" {
			continue
		}
		return &model.VersionRange{
			From: util.NormalizeVersionBound(introduced),
			To:   util.NormalizeVersionBound(fixed),
		}
	}

	if len(affected.Versions) > 0 {
		return &model.VersionRange{
			From: util.NormalizeVersionBound(affected.Versions[0]),
			To:   util.NormalizeVersionBound(affected.Versions[len(affected.Versions)-1]),
		}
	}
	return nil
}

// osvCWE digs the first CWE id out of the database specific blob GHSA
// advisories carry.
func osvCWE(dbSpecific map[string]interface{}) string {
	raw, ok := dbSpecific["cwe_ids"]
	if !ok {
		return ""
	}
	ids, ok := raw.([]interface{})
	if !ok {
		return ""
	}
	for _, entry := range ids {
		if cwe, ok := entry.(string); ok && cwe != "" {
			return cwe
		}
	}
	return ""
}
