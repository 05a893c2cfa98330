package engine

import (
	"context"

	"github.com/quernlabs/quern/internal/db/metadata"
	"github.com/quernlabs/quern/internal/models"
)

// SchemaNames lists the user-visible schemas on the tab's connection.
func (e *Engine) SchemaNames(ctx context.Context, tabID string) ([]string, error) {
	pool, _, err := e.poolForTab(tabID)
	if err != nil {
		return nil, err
	}
	return metadata.SchemaNames(ctx, pool)
}

// Tables lists the tables and views in a schema.
func (e *Engine) Tables(ctx context.Context, tabID, schema string) ([]models.TableEntry, error) {
	pool, _, err := e.poolForTab(tabID)
	if err != nil {
		return nil, err
	}
	return metadata.Tables(ctx, pool, schema)
}

// Columns lists a table's columns with type, nullability and key flags.
func (e *Engine) Columns(ctx context.Context, tabID, schema, table string) ([]models.ColumnInfo, error) {
	pool, _, err := e.poolForTab(tabID)
	if err != nil {
		return nil, err
	}
	return metadata.Columns(ctx, pool, schema, table)
}

// DescribeTable returns the full structure of a table: columns, indexes and
// foreign keys.
func (e *Engine) DescribeTable(ctx context.Context, tabID, schema, table string) (*models.TableStructure, error) {
	pool, _, err := e.poolForTab(tabID)
	if err != nil {
		return nil, err
	}
	return metadata.DescribeTable(ctx, pool, schema, table)
}
