// Package graphql assembles the query schema served over the API.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/cvelens/cvelens/graphql/modules/records"
	"github.com/cvelens/cvelens/internal/store"
)

// CreateSchema builds the query schema over the published result set.
func CreateSchema(st *store.Store) (graphql.Schema, error) {
	fields := graphql.Fields{}
	for name, field := range records.GetQueryFields(st, records.RecordType, records.SkippedType, records.SeverityEnum) {
		fields[name] = field
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: fields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery})
}
