// Package records defines the GraphQL queries for vulnerability records.
package records

import (
	"github.com/graphql-go/graphql"

	"github.com/cvelens/cvelens/internal/store"
)

// GetQueryFields returns the record queries to be mounted in the root schema.
func GetQueryFields(st *store.Store, recordType *graphql.Object, skippedType *graphql.Object, severityType *graphql.Enum) graphql.Fields {
	return graphql.Fields{
		"records": &graphql.Field{
			Type: graphql.NewList(recordType),
			Args: graphql.FieldConfigArgument{
				"sort":     &graphql.ArgumentConfig{Type: SortEnum, DefaultValue: "input"},
				"severity": &graphql.ArgumentConfig{Type: severityType},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				// An explicit null overrides the default value.
				sort, _ := p.Args["sort"].(string)
				if sort == "" {
					sort = "input"
				}
				level, _ := p.Args["severity"].(string)
				return ResolveRecords(st, sort, level)
			},
		},
		"record": &graphql.Field{
			Type: recordType,
			Args: graphql.FieldConfigArgument{
				"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				id := p.Args["id"].(string)
				rec, ok := st.Record(id)
				if !ok {
					return nil, nil
				}
				return *rec, nil
			},
		},
		"skipped": &graphql.Field{
			Type: graphql.NewList(skippedType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return st.Skipped(), nil
			},
		},
		"severitySummary": &graphql.Field{
			Type: graphql.NewList(SeverityCountType),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveSeveritySummary(st)
			},
		},
	}
}
