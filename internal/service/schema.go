package service

import (
	"context"
	"sort"

	"ecomdash/backend/internal/model"
)

// CheckSchema reports which required tables and columns are missing from
// schema. It only reads information_schema.
func CheckSchema(ctx context.Context, client DBClient, schema string, reqs []model.TableRequirement) (*model.SchemaReport, error) {
	if schema == "" {
		schema = "public"
	}
	report := &model.SchemaReport{
		Schema:         schema,
		MissingTables:  []string{},
		MissingColumns: map[string][]string{},
	}

	tables, err := client.ListTables(ctx, schema)
	if err != nil {
		return nil, wrapDBError(err)
	}
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t] = true
	}

	for _, req := range reqs {
		if !present[req.Table] {
			report.MissingTables = append(report.MissingTables, req.Table)
			continue
		}
		columns, err := client.ListColumns(ctx, schema, req.Table)
		if err != nil {
			return nil, wrapDBError(err)
		}
		have := make(map[string]bool, len(columns))
		for _, c := range columns {
			have[c.Name] = true
		}
		for _, name := range req.Columns {
			if !have[name] {
				report.MissingColumns[req.Table] = append(report.MissingColumns[req.Table], name)
			}
		}
	}
	sort.Strings(report.MissingTables)
	return report, nil
}
