package model

type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableRequirement names a table and the columns a report query relies on.
type TableRequirement struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

type SchemaReport struct {
	Schema         string              `json:"schema"`
	MissingTables  []string            `json:"missing_tables"`
	MissingColumns map[string][]string `json:"missing_columns"`
}

func (s *SchemaReport) OK() bool {
	return len(s.MissingTables) == 0 && len(s.MissingColumns) == 0
}
