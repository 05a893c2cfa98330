package metadata

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/models"
)

const pgColumnsSQL = `
SELECT column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

const pgPrimaryKeySQL = `
SELECT a.attname
FROM pg_index i
JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
WHERE i.indrelid = ($1 || '.' || $2)::regclass AND i.indisprimary`

// Columns lists a table's columns with nullability and primary-key
// membership.
func Columns(ctx context.Context, pool connection.Pool, schema, table string) ([]models.ColumnInfo, error) {
	switch p := pool.(type) {
	case *connection.PostgresPool:
		rows, err := p.Pgx().Query(ctx, pgColumnsSQL, schema, table)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var cols []models.ColumnInfo
		for rows.Next() {
			var name, dataType, nullable string
			if err := rows.Scan(&name, &dataType, &nullable); err != nil {
				return nil, err
			}
			cols = append(cols, models.ColumnInfo{
				Name:       name,
				DataType:   dataType,
				IsNullable: nullable == "YES",
			})
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		pks, err := PrimaryKeyColumns(ctx, pool, schema, table)
		if err == nil {
			pkSet := make(map[string]bool, len(pks))
			for _, pk := range pks {
				pkSet[pk] = true
			}
			for i := range cols {
				cols[i].IsPrimaryKey = pkSet[cols[i].Name]
			}
		}
		return cols, nil

	case *connection.SQLitePool:
		rows, err := p.DB().QueryContext(ctx, "PRAGMA table_info("+pragmaIdent(table)+")")
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var cols []models.ColumnInfo
		for rows.Next() {
			var (
				cid, notNull, pk int
				name, dataType   string
				dflt             sql.NullString
			)
			if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
				return nil, err
			}
			cols = append(cols, models.ColumnInfo{
				Name:         name,
				DataType:     dataType,
				IsNullable:   notNull == 0,
				IsPrimaryKey: pk > 0,
			})
		}
		return cols, rows.Err()

	default:
		return nil, fmt.Errorf("unsupported pool type %T", pool)
	}
}

// PrimaryKeyColumns returns the table's primary-key column names, in key
// order for SQLite and catalog order for Postgres.
func PrimaryKeyColumns(ctx context.Context, pool connection.Pool, schema, table string) ([]string, error) {
	switch p := pool.(type) {
	case *connection.PostgresPool:
		rows, err := p.Pgx().Query(ctx, pgPrimaryKeySQL, schema, table)
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
		rows, err := p.DB().QueryContext(ctx, "PRAGMA table_info("+pragmaIdent(table)+")")
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		// pk is the 1-based position of the column in the primary key.
		byPos := make(map[int]string)
		maxPos := 0
		for rows.Next() {
			var (
				cid, notNull, pk int
				name, dataType   string
				dflt             sql.NullString
			)
			if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
				return nil, err
			}
			if pk > 0 {
				byPos[pk] = name
				if pk > maxPos {
					maxPos = pk
				}
			}
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		names := make([]string, 0, len(byPos))
		for pos := 1; pos <= maxPos; pos++ {
			if name, ok := byPos[pos]; ok {
				names = append(names, name)
			}
		}
		return names, nil

	default:
		return nil, fmt.Errorf("unsupported pool type %T", pool)
	}
}
