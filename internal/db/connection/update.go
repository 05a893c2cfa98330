package connection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quernlabs/quern/internal/analyze"
	"github.com/quernlabs/quern/internal/models"
)

var (
	// ErrNoPrimaryKey is returned when a cell update is attempted without
	// any primary-key columns to scope it.
	ErrNoPrimaryKey = errors.New("no primary key columns provided")

	// ErrStaleRow is returned when the UPDATE matched no rows: the row was
	// changed or deleted since it was read.
	ErrStaleRow = errors.New("no rows updated: the row may have been modified or deleted")

	// ErrRowCountAnomaly is returned when the primary-key predicate matched
	// more than one row, which should be impossible.
	ErrRowCountAnomaly = errors.New("update affected more than one row despite primary key predicate")
)

// BuildUpdateSQL produces the parameterized single-column UPDATE for one
// backend: one SET clause, one ANDed equality predicate per primary-key
// column, every identifier quoted. Values are always bound, never
// interpolated. Postgres numbers placeholders $1..$n; SQLite uses ?.
func BuildUpdateSQL(backend Backend, schema, table, column string, pkNames []string) string {
	var set string
	preds := make([]string, len(pkNames))

	if backend == BackendPostgres {
		set = fmt.Sprintf("%s = $1", analyze.QuoteIdent(column))
		for i, name := range pkNames {
			preds[i] = fmt.Sprintf("%s = $%d", analyze.QuoteIdent(name), i+2)
		}
	} else {
		set = fmt.Sprintf("%s = ?", analyze.QuoteIdent(column))
		for i, name := range pkNames {
			preds[i] = fmt.Sprintf("%s = ?", analyze.QuoteIdent(name))
		}
	}

	return fmt.Sprintf(
		"UPDATE %s.%s SET %s WHERE %s",
		analyze.QuoteIdent(schema), analyze.QuoteIdent(table),
		set, strings.Join(preds, " AND "),
	)
}

// UpdateCell sets one column of one row identified by its primary key.
// newValue == nil writes SQL NULL. Exactly one row must be affected: zero
// means the row went stale, more than one is an anomaly.
func UpdateCell(ctx context.Context, pool Pool, schema, table, column string, newValue *string, pkColumns []models.PKColumn) error {
	if len(pkColumns) == 0 {
		return ErrNoPrimaryKey
	}

	pkNames := make([]string, len(pkColumns))
	args := make([]any, 0, len(pkColumns)+1)
	if newValue != nil {
		args = append(args, *newValue)
	} else {
		args = append(args, nil)
	}
	for i, pk := range pkColumns {
		pkNames[i] = pk.Name
		args = append(args, pk.Value)
	}

	stmt := BuildUpdateSQL(pool.Backend(), schema, table, column, pkNames)

	var affected int64
	switch p := pool.(type) {
	case *PostgresPool:
		tag, err := p.Pgx().Exec(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		affected = tag.RowsAffected()
	case *SQLitePool:
		res, err := p.DB().ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
	default:
		return fmt.Errorf("unsupported pool type %T", pool)
	}

	switch {
	case affected == 0:
		return ErrStaleRow
	case affected > 1:
		return fmt.Errorf("%w: %d rows", ErrRowCountAnomaly, affected)
	}
	return nil
}
