package models

import "time"

// DefaultRowLimit caps how many rows a single query execution returns.
const DefaultRowLimit = 1000

// QueryResult is the uniform tabular result every backend produces. All cell
// values are decoded to strings; Columns, ColumnTypes and each row are always
// the same length.
type QueryResult struct {
	Columns       []string      `json:"columns"`
	ColumnTypes   []string      `json:"column_types"`
	Rows          [][]string    `json:"rows"`
	RowCount      int           `json:"row_count"`
	ExecutionTime time.Duration `json:"execution_time"`
	// Truncated is set when the backend had more rows than the cap.
	Truncated bool `json:"truncated"`
}
