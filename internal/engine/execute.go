package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quernlabs/quern/internal/analyze"
	"github.com/quernlabs/quern/internal/db/query"
	"github.com/quernlabs/quern/internal/history"
	"github.com/quernlabs/quern/internal/models"
)

// ErrQueryCancelled is returned when the query was cancelled through
// CancelQuery, a connection swap or a tab close. The backend may still
// finish the statement server-side.
var ErrQueryCancelled = errors.New("query was cancelled")

// Execute runs sqlText on the tab's connection. A SELECT without a
// top-level ORDER BY is wrapped in a LIMIT/OFFSET subquery so pagination
// has deterministic bounds; a SELECT that orders its rows already has them
// and is passed through untouched. Non-SELECT statements always run as is.
func (e *Engine) Execute(ctx context.Context, tabID, sqlText string, offset int) (*models.QueryResult, error) {
	stmt := normalizeStatement(sqlText)

	pool, connName, err := e.poolForTab(tabID)
	if err != nil {
		return nil, err
	}

	effective := paginated(stmt, e.rowCap(), offset)

	qctx, gen := e.tabs.StartQuery(ctx, tabID)
	defer e.tabs.FinishQuery(tabID, gen)

	start := time.Now()
	result, err := query.Execute(qctx, pool, effective, e.rowCap())
	elapsed := time.Since(start)

	if err != nil && qctx.Err() != nil && ctx.Err() == nil {
		err = ErrQueryCancelled
	}

	e.recordHistory(connName, stmt, elapsed, result, err)

	if err != nil {
		e.logger.Debug("query failed", "tab", tabID, "connection", connName, "error", err)
		return nil, err
	}
	return result, nil
}

// normalizeStatement strips trailing whitespace and semicolons so the
// statement can be embedded as a subquery.
func normalizeStatement(sqlText string) string {
	stmt := strings.TrimRight(sqlText, " \t\r\n")
	return strings.TrimRight(stmt, ";")
}

// paginated wraps a SELECT without a top-level ORDER BY in a LIMIT/OFFSET
// subquery so pagination has stable bounds. A SELECT that already orders
// its rows, and any non-SELECT statement, run unchanged.
func paginated(stmt string, rowCap, offset int) string {
	if analyze.Classify(stmt) == analyze.QuerySelect && !analyze.HasTopLevelOrderBy(stmt) {
		return fmt.Sprintf("SELECT * FROM (%s) q LIMIT %d OFFSET %d", stmt, rowCap+1, offset)
	}
	return stmt
}

// CancelQuery cancels the query currently running on the tab, if any.
func (e *Engine) CancelQuery(tabID string) bool {
	return e.tabs.CancelCurrent(tabID)
}

func (e *Engine) recordHistory(connName, stmt string, elapsed time.Duration, result *models.QueryResult, execErr error) {
	if e.history == nil || e.cfg == nil || !e.cfg.History.Enabled {
		return
	}

	entry := history.Entry{
		ConnectionName: connName,
		Query:          stmt,
		Duration:       elapsed,
		Success:        execErr == nil,
	}
	if result != nil {
		entry.RowCount = result.RowCount
	}
	if execErr != nil {
		entry.ErrorMessage = execErr.Error()
	}

	if err := e.history.Add(entry); err != nil {
		e.logger.Warn("failed to record history", "error", err)
		return
	}
	if max := e.cfg.History.MaxEntries; max > 0 {
		if err := e.history.Prune(max); err != nil {
			e.logger.Warn("failed to prune history", "error", err)
		}
	}
}
