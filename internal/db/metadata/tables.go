package metadata

import (
	"context"
	"fmt"
	"strings"

	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/models"
)

const pgTablesSQL = `
SELECT table_name, table_type FROM information_schema.tables
WHERE table_schema = $1 ORDER BY table_name`

const sqliteTablesSQL = `
SELECT name, type FROM sqlite_master
WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
ORDER BY name`

// Tables lists tables and views in a schema. The schema argument is ignored
// for SQLite, which only has "main".
func Tables(ctx context.Context, pool connection.Pool, schema string) ([]models.TableEntry, error) {
	switch p := pool.(type) {
	case *connection.PostgresPool:
		rows, err := p.Pgx().Query(ctx, pgTablesSQL, schema)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var entries []models.TableEntry
		for rows.Next() {
			var name, tableType string
			if err := rows.Scan(&name, &tableType); err != nil {
				return nil, err
			}
			entries = append(entries, models.TableEntry{Name: name, IsView: tableType == "VIEW"})
		}
		return entries, rows.Err()

	case *connection.SQLitePool:
		rows, err := p.DB().QueryContext(ctx, sqliteTablesSQL)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var entries []models.TableEntry
		for rows.Next() {
			var name, objType string
			if err := rows.Scan(&name, &objType); err != nil {
				return nil, err
			}
			entries = append(entries, models.TableEntry{Name: name, IsView: objType == "view"})
		}
		return entries, rows.Err()

	default:
		return nil, fmt.Errorf("unsupported pool type %T", pool)
	}
}

// pragmaIdent embeds an identifier into a PRAGMA call, which cannot take
// bind parameters.
func pragmaIdent(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
