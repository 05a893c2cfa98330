package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/models"
)

const pgColumnDetailsSQL = `
SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

const pgIndexesSQL = `
SELECT i.relname, array_to_string(array_agg(a.attname), ', '), ix.indisunique, ix.indisprimary
FROM pg_index ix
JOIN pg_class i ON i.oid = ix.indexrelid
JOIN pg_class t ON t.oid = ix.indrelid
JOIN pg_namespace n ON n.oid = t.relnamespace
JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
WHERE n.nspname = $1 AND t.relname = $2
GROUP BY i.relname, ix.indisunique, ix.indisprimary ORDER BY i.relname`

const pgForeignKeysSQL = `
SELECT tc.constraint_name, kcu.column_name, ccu.table_name, ccu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name
WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'FOREIGN KEY'`

// DescribeTable returns the full structure of one table: columns with
// defaults, indexes and foreign keys. Index and foreign-key lookups are
// best-effort; a failure there leaves the list empty rather than failing
// the whole describe.
func DescribeTable(ctx context.Context, pool connection.Pool, schema, table string) (*models.TableStructure, error) {
	switch p := pool.(type) {
	case *connection.PostgresPool:
		return describePostgres(ctx, p, schema, table)
	case *connection.SQLitePool:
		return describeSQLite(ctx, p, table)
	default:
		return nil, fmt.Errorf("unsupported pool type %T", pool)
	}
}

func describePostgres(ctx context.Context, p *connection.PostgresPool, schema, table string) (*models.TableStructure, error) {
	rows, err := p.Pgx().Query(ctx, pgColumnDetailsSQL, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []models.ColumnDetail
	for rows.Next() {
		var (
			name, dataType, nullable string
			dflt                     *string
		)
		if err := rows.Scan(&name, &dataType, &nullable, &dflt); err != nil {
			return nil, err
		}
		detail := models.ColumnDetail{
			Name:       name,
			DataType:   dataType,
			IsNullable: nullable == "YES",
		}
		if dflt != nil {
			detail.DefaultValue = *dflt
		}
		cols = append(cols, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if pks, err := PrimaryKeyColumns(ctx, p, schema, table); err == nil {
		pkSet := make(map[string]bool, len(pks))
		for _, pk := range pks {
			pkSet[pk] = true
		}
		for i := range cols {
			cols[i].IsPrimaryKey = pkSet[cols[i].Name]
		}
	}

	structure := &models.TableStructure{Columns: cols}

	if idxRows, err := p.Pgx().Query(ctx, pgIndexesSQL, schema, table); err == nil {
		for idxRows.Next() {
			var (
				name, colList       string
				isUnique, isPrimary bool
			)
			if err := idxRows.Scan(&name, &colList, &isUnique, &isPrimary); err != nil {
				break
			}
			structure.Indexes = append(structure.Indexes, models.IndexInfo{
				Name:      name,
				Columns:   strings.Split(colList, ", "),
				IsUnique:  isUnique,
				IsPrimary: isPrimary,
			})
		}
		idxRows.Close()
	}

	if fkRows, err := p.Pgx().Query(ctx, pgForeignKeysSQL, schema, table); err == nil {
		fkMap := make(map[string]*models.ForeignKeyInfo)
		for fkRows.Next() {
			var name, col, refTable, refCol string
			if err := fkRows.Scan(&name, &col, &refTable, &refCol); err != nil {
				break
			}
			fk, ok := fkMap[name]
			if !ok {
				fk = &models.ForeignKeyInfo{Name: name, ReferencedTable: refTable}
				fkMap[name] = fk
			}
			fk.Columns = append(fk.Columns, col)
			fk.ReferencedColumns = append(fk.ReferencedColumns, refCol)
		}
		fkRows.Close()
		structure.ForeignKeys = sortedForeignKeys(fkMap)
	}

	return structure, nil
}

func describeSQLite(ctx context.Context, p *connection.SQLitePool, table string) (*models.TableStructure, error) {
	db := p.DB()

	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+pragmaIdent(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []models.ColumnDetail
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		detail := models.ColumnDetail{
			Name:         name,
			DataType:     dataType,
			IsNullable:   notNull == 0,
			IsPrimaryKey: pk > 0,
		}
		if dflt.Valid {
			detail.DefaultValue = dflt.String
		}
		cols = append(cols, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	structure := &models.TableStructure{Columns: cols}

	if idxRows, err := db.QueryContext(ctx, "PRAGMA index_list("+pragmaIdent(table)+")"); err == nil {
		type indexEntry struct {
			name     string
			isUnique bool
		}
		var entries []indexEntry
		for idxRows.Next() {
			var (
				seq, unique, partial int
				name, origin         string
			)
			if err := idxRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
				break
			}
			entries = append(entries, indexEntry{name: name, isUnique: unique != 0})
		}
		idxRows.Close()

		for _, entry := range entries {
			var indexCols []string
			if colRows, err := db.QueryContext(ctx, "PRAGMA index_info("+pragmaIdent(entry.name)+")"); err == nil {
				for colRows.Next() {
					var seqno, cid int
					var colName sql.NullString
					if err := colRows.Scan(&seqno, &cid, &colName); err != nil {
						break
					}
					if colName.Valid {
						indexCols = append(indexCols, colName.String)
					}
				}
				colRows.Close()
			}
			structure.Indexes = append(structure.Indexes, models.IndexInfo{
				Name:     entry.name,
				Columns:  indexCols,
				IsUnique: entry.isUnique,
			})
		}
	}

	if fkRows, err := db.QueryContext(ctx, "PRAGMA foreign_key_list("+pragmaIdent(table)+")"); err == nil {
		fkMap := make(map[string]*models.ForeignKeyInfo)
		for fkRows.Next() {
			var (
				id, seq                          int
				refTable, from, onUpd, onDel, mt string
				to                               sql.NullString
			)
			if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpd, &onDel, &mt); err != nil {
				break
			}
			name := fmt.Sprintf("fk_%d", id)
			fk, ok := fkMap[name]
			if !ok {
				fk = &models.ForeignKeyInfo{Name: name, ReferencedTable: refTable}
				fkMap[name] = fk
			}
			fk.Columns = append(fk.Columns, from)
			fk.ReferencedColumns = append(fk.ReferencedColumns, to.String)
		}
		fkRows.Close()
		structure.ForeignKeys = sortedForeignKeys(fkMap)
	}

	return structure, nil
}

func sortedForeignKeys(fkMap map[string]*models.ForeignKeyInfo) []models.ForeignKeyInfo {
	if len(fkMap) == 0 {
		return nil
	}
	fks := make([]models.ForeignKeyInfo, 0, len(fkMap))
	for _, fk := range fkMap {
		fks = append(fks, *fk)
	}
	sort.Slice(fks, func(i, j int) bool { return fks[i].Name < fks[j].Name })
	return fks
}
