package model

// QueryResult is the tabular output of one panel query.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (r *QueryResult) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// Scalar returns the first cell, or nil when there is none.
func (r *QueryResult) Scalar() any {
	if r.Empty() || len(r.Rows[0]) == 0 {
		return nil
	}
	return r.Rows[0][0]
}

// ColumnIndex returns the position of name in Columns, or -1.
func (r *QueryResult) ColumnIndex(name string) int {
	if r == nil {
		return -1
	}
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
