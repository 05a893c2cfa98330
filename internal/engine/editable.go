package engine

import (
	"context"

	"github.com/quernlabs/quern/internal/analyze"
	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/db/metadata"
	"github.com/quernlabs/quern/internal/models"
)

// Editable is the full in-place-edit verdict for a result grid: the
// classifier's source-table judgment combined with the table's primary key.
type Editable struct {
	Editable  bool     `json:"editable"`
	Schema    string   `json:"schema,omitempty"`
	Table     string   `json:"table,omitempty"`
	PKColumns []string `json:"pk_columns,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// EditableInfo determines whether sqlText's result set can be edited in
// place. An unqualified table name falls back to the backend's default
// schema; a table without a primary key is never editable.
func (e *Engine) EditableInfo(ctx context.Context, tabID, sqlText string) (Editable, error) {
	info := analyze.ExtractSourceTable(sqlText)
	if !info.Editable {
		return Editable{Reason: info.Reason}, nil
	}

	pool, _, err := e.poolForTab(tabID)
	if err != nil {
		return Editable{}, err
	}

	schema := info.Schema
	if schema == "" {
		schema = pool.Descriptor().DefaultSchema()
	}

	pks, err := metadata.PrimaryKeyColumns(ctx, pool, schema, info.Table)
	if err != nil {
		return Editable{}, err
	}
	if len(pks) == 0 {
		return Editable{Schema: schema, Table: info.Table, Reason: "Table has no primary key"}, nil
	}

	return Editable{Editable: true, Schema: schema, Table: info.Table, PKColumns: pks}, nil
}

// UpdateCell writes one cell of one row, identified by its primary key, on
// the tab's connection. A nil newValue sets the column to NULL.
func (e *Engine) UpdateCell(ctx context.Context, tabID, schema, table, column string, newValue *string, pkColumns []models.PKColumn) error {
	pool, _, err := e.poolForTab(tabID)
	if err != nil {
		return err
	}
	return connection.UpdateCell(ctx, pool, schema, table, column, newValue, pkColumns)
}
