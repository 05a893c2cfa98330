// Package metadata introspects schemas, tables and columns for both
// backends. Postgres goes through information_schema and the pg_catalog;
// SQLite has a single "main" schema read via sqlite_master and PRAGMAs.
package metadata

import (
	"context"
	"fmt"

	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/models"
)

const schemaNamesSQL = `
SELECT schema_name FROM information_schema.schemata
WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
ORDER BY schema_name`

// SchemaNames lists the user-visible schemas.
func SchemaNames(ctx context.Context, pool connection.Pool) ([]string, error) {
	switch p := pool.(type) {
	case *connection.PostgresPool:
		rows, err := p.Pgx().Query(ctx, schemaNamesSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var names []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return names, rows.Err()
	case *connection.SQLitePool:
		return []string{"main"}, nil
	default:
		return nil, fmt.Errorf("unsupported pool type %T", pool)
	}
}

// AllSchemas loads every schema with its tables and columns in one sweep,
// feeding the completion index.
func AllSchemas(ctx context.Context, pool connection.Pool) ([]models.SchemaInfo, error) {
	names, err := SchemaNames(ctx, pool)
	if err != nil {
		return nil, err
	}

	schemas := make([]models.SchemaInfo, 0, len(names))
	for _, name := range names {
		entries, err := Tables(ctx, pool, name)
		if err != nil {
			return nil, err
		}

		tables := make([]models.TableInfo, 0, len(entries))
		for _, entry := range entries {
			cols, err := Columns(ctx, pool, name, entry.Name)
			if err != nil {
				return nil, err
			}
			tables = append(tables, models.TableInfo{
				Name:    entry.Name,
				Columns: cols,
				IsView:  entry.IsView,
			})
		}
		schemas = append(schemas, models.SchemaInfo{Name: name, Tables: tables})
	}
	return schemas, nil
}
