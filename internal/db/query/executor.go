// Package query executes SQL against an open pool and decodes the result
// into a uniform string-typed table.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/models"
)

// Execute runs stmt on the pool, streaming at most rowCap+1 rows. When that
// boundary is hit the extra row is discarded and Truncated is set, so the
// caller knows there is more without unbounded memory use. Column names and
// type names come from row metadata; an empty result has empty column lists.
func Execute(ctx context.Context, pool connection.Pool, stmt string, rowCap int) (*models.QueryResult, error) {
	switch p := pool.(type) {
	case *connection.PostgresPool:
		return executePostgres(ctx, p.Pgx(), stmt, rowCap)
	case *connection.SQLitePool:
		return executeSQLite(ctx, p.DB(), stmt, rowCap)
	default:
		return nil, fmt.Errorf("unsupported pool type %T", pool)
	}
}

func executePostgres(ctx context.Context, pool *pgxpool.Pool, stmt string, rowCap int) (*models.QueryResult, error) {
	start := time.Now()

	rows, err := pool.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tm := rows.Conn().TypeMap()
	fds := rows.FieldDescriptions()

	typeNames := make([]string, len(fds))
	for i, fd := range fds {
		typeNames[i] = postgresTypeName(tm, fd.DataTypeOID)
	}

	var collected [][]string
	for rows.Next() {
		// RawValues buffers are only valid until the next call to Next, so
		// every cell is decoded before advancing.
		raws := rows.RawValues()
		row := make([]string, len(fds))
		for i, fd := range fds {
			row[i] = decodePostgresValue(tm, typeNames[i], fd.DataTypeOID, fd.Format, raws[i])
		}
		collected = append(collected, row)
		if len(collected) > rowCap {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()
	elapsed := time.Since(start)

	truncated := len(collected) > rowCap
	if truncated {
		collected = collected[:rowCap]
	}

	result := &models.QueryResult{
		Rows:          collected,
		RowCount:      len(collected),
		ExecutionTime: elapsed,
		Truncated:     truncated,
	}
	if len(collected) > 0 {
		columns := make([]string, len(fds))
		for i, fd := range fds {
			columns[i] = fd.Name
		}
		result.Columns = columns
		result.ColumnTypes = typeNames
	}
	return result, nil
}

func executeSQLite(ctx context.Context, db *sql.DB, stmt string, rowCap int) (*models.QueryResult, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	typeNames := make([]string, len(colTypes))
	for i, ct := range colTypes {
		typeNames[i] = ct.DatabaseTypeName()
	}

	var collected [][]string
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = decodeSQLiteValue(typeNames[i], v)
		}
		collected = append(collected, row)
		if len(collected) > rowCap {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	truncated := len(collected) > rowCap
	if truncated {
		collected = collected[:rowCap]
	}

	result := &models.QueryResult{
		Rows:          collected,
		RowCount:      len(collected),
		ExecutionTime: elapsed,
		Truncated:     truncated,
	}
	if len(collected) > 0 {
		result.Columns = columns
		result.ColumnTypes = typeNames
	}
	return result, nil
}
