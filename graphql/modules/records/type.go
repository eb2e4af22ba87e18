// Package records defines the GraphQL types for vulnerability records.
package records

import (
	"github.com/graphql-go/graphql"

	"github.com/cvelens/cvelens/model"
)

// SeverityEnum lists the severity levels a record can carry.
var SeverityEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "Severity",
	Values: graphql.EnumValueConfigMap{
		"CRITICAL": &graphql.EnumValueConfig{Value: model.SeverityCritical},
		"HIGH":     &graphql.EnumValueConfig{Value: model.SeverityHigh},
		"MEDIUM":   &graphql.EnumValueConfig{Value: model.SeverityMedium},
		"LOW":      &graphql.EnumValueConfig{Value: model.SeverityLow},
		"UNKNOWN":  &graphql.EnumValueConfig{Value: model.SeverityUnknown},
	},
})

// SortEnum selects the ordering of the records query.
var SortEnum = graphql.NewEnum(graphql.EnumConfig{
	Name: "RecordSort",
	Values: graphql.EnumValueConfigMap{
		"INPUT":    &graphql.EnumValueConfig{Value: "input"},
		"SEVERITY": &graphql.EnumValueConfig{Value: "severity"},
	},
})

// VersionRangeType represents the affected version bounds.
var VersionRangeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "VersionRange",
	Fields: graphql.Fields{
		"from": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			versions, _ := p.Source.(model.VersionRange)
			return versions.From, nil
		}},
		"to": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			versions, _ := p.Source.(model.VersionRange)
			return versions.To, nil
		}},
	},
})

// SeverityInfoType represents the severity assessment of a record.
var SeverityInfoType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SeverityInfo",
	Fields: graphql.Fields{
		"level": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			severity, _ := p.Source.(model.Severity)
			return severity.Level, nil
		}},
		"base_score": &graphql.Field{Type: graphql.Float, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			severity, _ := p.Source.(model.Severity)
			if severity.BaseScore == nil {
				return nil, nil
			}
			return *severity.BaseScore, nil
		}},
		"vector": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			severity, _ := p.Source.(model.Severity)
			if severity.Vector == nil {
				return nil, nil
			}
			return *severity.Vector, nil
		}},
	},
})

// ReferenceType represents an external link attached to a record.
var ReferenceType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Reference",
	Fields: graphql.Fields{
		"url": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			ref, _ := p.Source.(model.Reference)
			return ref.URL, nil
		}},
		"tags": &graphql.Field{Type: graphql.NewList(graphql.String), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			ref, _ := p.Source.(model.Reference)
			return ref.Tags, nil
		}},
	},
})

// ProblemTypesType represents the weakness classification of a record.
var ProblemTypesType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ProblemTypes",
	Fields: graphql.Fields{
		"cwe_id": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			problemTypes, _ := p.Source.(model.ProblemTypes)
			return problemTypes.CweID, nil
		}},
		"description": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			problemTypes, _ := p.Source.(model.ProblemTypes)
			return problemTypes.Description, nil
		}},
		"reference": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			problemTypes, _ := p.Source.(model.ProblemTypes)
			return problemTypes.Reference, nil
		}},
	},
})

// SkippedType represents an identifier that produced no record.
var SkippedType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SkippedIdentifier",
	Fields: graphql.Fields{
		"id": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			skipped, _ := p.Source.(model.SkippedIdentifier)
			return skipped.ID, nil
		}},
		"reason": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			skipped, _ := p.Source.(model.SkippedIdentifier)
			return skipped.Reason, nil
		}},
		"detail": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			skipped, _ := p.Source.(model.SkippedIdentifier)
			return skipped.Detail, nil
		}},
	},
})

// SeverityCountType represents one row of the severity summary.
var SeverityCountType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SeverityCount",
	Fields: graphql.Fields{
		"level": &graphql.Field{Type: graphql.String},
		"count": &graphql.Field{Type: graphql.Int},
	},
})

// RecordType represents one normalized vulnerability record.
var RecordType = graphql.NewObject(graphql.ObjectConfig{
	Name: "VulnerabilityRecord",
	Fields: graphql.Fields{
		"id": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Metadata.ID, nil
		}},
		"state": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Metadata.State, nil
		}},
		"date_published": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Metadata.DatePublished, nil
		}},
		"date_updated": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Metadata.DateUpdated, nil
		}},
		"source": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Metadata.Source, nil
		}},
		"title": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Vulnerability.Title, nil
		}},
		"description": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Vulnerability.Description, nil
		}},
		"solution": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Vulnerability.Solution, nil
		}},
		"severity": &graphql.Field{Type: SeverityInfoType, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Vulnerability.Severity, nil
		}},
		"vendor": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Affected.Vendor, nil
		}},
		"product": &graphql.Field{Type: graphql.String, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.Affected.Product, nil
		}},
		"versions": &graphql.Field{Type: VersionRangeType, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			if rec.Affected.Versions == nil {
				return nil, nil
			}
			return *rec.Affected.Versions, nil
		}},
		"problem_types": &graphql.Field{Type: ProblemTypesType, Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.ProblemTypes, nil
		}},
		"references": &graphql.Field{Type: graphql.NewList(ReferenceType), Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			rec, _ := p.Source.(model.Record)
			return rec.References, nil
		}},
	},
})
