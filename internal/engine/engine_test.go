package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quernlabs/quern/internal/analyze"
	"github.com/quernlabs/quern/internal/config"
	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/history"
	"github.com/quernlabs/quern/internal/models"
)

func testConfig(rowLimit int) *config.Config {
	return &config.Config{
		General: config.GeneralConfig{
			ConfirmDestructiveOps: true,
			RowLimit:              rowLimit,
		},
	}
}

// newTestEngine opens a file-backed SQLite connection named "mem" and binds
// tab "tab1" to it.
func newTestEngine(t *testing.T, cfg *config.Config, hist *history.Store, dangerous bool) *Engine {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(cfg, connection.NewManager(nil, logger), hist, logger)
	t.Cleanup(e.Close)

	_, err := e.OpenConnection(context.Background(), "mem", connection.OpenSpec{
		Descriptor: connection.Descriptor{
			Backend: connection.BackendSQLite,
			Name:    "mem",
			Path:    filepath.Join(t.TempDir(), "engine.db"),
		},
		Dangerous: dangerous,
	})
	require.NoError(t, err)
	require.NoError(t, e.SetTabConnection("tab1", "mem"))
	return e
}

func seedWidgets(t *testing.T, e *Engine, rows int) {
	t.Helper()
	ctx := context.Background()

	_, err := e.Execute(ctx, "tab1", `CREATE TABLE widgets (id INTEGER PRIMARY KEY, label TEXT)`, 0)
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		_, err := e.Execute(ctx, "tab1", `INSERT INTO widgets (label) VALUES ('w')`, 0)
		require.NoError(t, err)
	}
}

func TestExecutePaginatesUnorderedSelect(t *testing.T) {
	e := newTestEngine(t, testConfig(2), nil, false)
	seedWidgets(t, e, 3)

	res, err := e.Execute(context.Background(), "tab1", "SELECT * FROM widgets;", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowCount)
	assert.True(t, res.Truncated)
	assert.Equal(t, []string{"id", "label"}, res.Columns)

	// The second page holds the single remaining row.
	res, err = e.Execute(context.Background(), "tab1", "SELECT * FROM widgets", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)
	assert.False(t, res.Truncated)
}

func TestExecuteOrderedSelectRunsUnwrapped(t *testing.T) {
	e := newTestEngine(t, testConfig(2), nil, false)
	seedWidgets(t, e, 3)

	// No wrapping means no OFFSET; the row cap still applies.
	res, err := e.Execute(context.Background(), "tab1", "SELECT id FROM widgets ORDER BY id DESC", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RowCount)
	assert.True(t, res.Truncated)
	assert.Equal(t, "3", res.Rows[0][0])
	assert.Equal(t, "2", res.Rows[1][0])
}

func TestExecuteStripsTrailingSemicolons(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	seedWidgets(t, e, 1)

	res, err := e.Execute(context.Background(), "tab1", "SELECT * FROM widgets ;; \n", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RowCount)
}

func TestExecuteWithoutConnection(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)

	_, err := e.Execute(context.Background(), "unbound", "SELECT 1", 0)
	assert.ErrorIs(t, err, ErrNoConnection)
}

func TestExecuteBackendError(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)

	_, err := e.Execute(context.Background(), "tab1", "SELECT * FROM no_such_table", 0)
	assert.Error(t, err)
}

func TestSetTabConnectionUnknown(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	assert.Error(t, e.SetTabConnection("tab2", "nope"))
}

func TestCancelQueryIdleTab(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	assert.False(t, e.CancelQuery("tab1"))
}

func TestNormalizeStatement(t *testing.T) {
	assert.Equal(t, "SELECT 1", normalizeStatement("SELECT 1;"))
	assert.Equal(t, "SELECT 1", normalizeStatement("SELECT 1 ;; \n\t"))
	assert.Equal(t, "SELECT ';'", normalizeStatement("SELECT ';'"))
}

func TestPaginated(t *testing.T) {
	assert.Equal(t,
		"SELECT * FROM (SELECT * FROM t) q LIMIT 101 OFFSET 40",
		paginated("SELECT * FROM t", 100, 40))
	assert.Equal(t,
		"SELECT * FROM t ORDER BY id",
		paginated("SELECT * FROM t ORDER BY id", 100, 40))
	assert.Equal(t,
		"DELETE FROM t",
		paginated("DELETE FROM t", 100, 0))
}

func TestCheckSafetyDangerousConnection(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, true)

	check := e.CheckSafety("DELETE FROM widgets", "tab1")
	assert.Equal(t, analyze.QueryDelete, check.QueryType)
	assert.Equal(t, "mem", check.ConnectionName)
	assert.True(t, check.DangerousConnection)
	assert.True(t, check.RequiresConfirmation)
	assert.Contains(t, check.WarningMessage(), "DELETE query on 'mem'")

	check = e.CheckSafety("SELECT * FROM widgets", "tab1")
	assert.False(t, check.RequiresConfirmation)
}

func TestCheckSafetySafeConnection(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)

	check := e.CheckSafety("DROP TABLE widgets", "tab1")
	assert.Equal(t, analyze.QueryDrop, check.QueryType)
	assert.False(t, check.DangerousConnection)
	assert.False(t, check.RequiresConfirmation)
}

func TestCheckSafetyUnboundTab(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, true)

	check := e.CheckSafety("DROP TABLE widgets", "other")
	assert.Equal(t, "unknown", check.ConnectionName)
	assert.False(t, check.RequiresConfirmation)
}

func TestCheckSafetyConfirmationsDisabled(t *testing.T) {
	cfg := testConfig(10)
	cfg.General.ConfirmDestructiveOps = false
	e := newTestEngine(t, cfg, nil, true)

	check := e.CheckSafety("DELETE FROM widgets", "tab1")
	assert.True(t, check.DangerousConnection)
	assert.False(t, check.RequiresConfirmation)
}

func TestEditableInfo(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	seedWidgets(t, e, 1)
	ctx := context.Background()

	info, err := e.EditableInfo(ctx, "tab1", "SELECT * FROM widgets")
	require.NoError(t, err)
	assert.True(t, info.Editable)
	assert.Equal(t, "main", info.Schema)
	assert.Equal(t, "widgets", info.Table)
	assert.Equal(t, []string{"id"}, info.PKColumns)
}

func TestEditableInfoClassifierRejection(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)

	info, err := e.EditableInfo(context.Background(), "tab1", "SELECT a FROM t JOIN u ON t.id = u.id")
	require.NoError(t, err)
	assert.False(t, info.Editable)
	assert.Equal(t, "Query uses JOINs", info.Reason)
}

func TestEditableInfoNoPrimaryKey(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	_, err := e.Execute(context.Background(), "tab1", `CREATE TABLE notes (body TEXT)`, 0)
	require.NoError(t, err)

	info, err := e.EditableInfo(context.Background(), "tab1", "SELECT * FROM notes")
	require.NoError(t, err)
	assert.False(t, info.Editable)
	assert.Equal(t, "Table has no primary key", info.Reason)
}

func TestUpdateCellRoundTrip(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	seedWidgets(t, e, 1)
	ctx := context.Background()

	value := "renamed"
	err := e.UpdateCell(ctx, "tab1", "main", "widgets", "label", &value,
		[]models.PKColumn{{Name: "id", Value: "1"}})
	require.NoError(t, err)

	res, err := e.Execute(ctx, "tab1", "SELECT label FROM widgets", 0)
	require.NoError(t, err)
	assert.Equal(t, "renamed", res.Rows[0][0])
}

func TestUpdateCellStaleRow(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	seedWidgets(t, e, 1)

	value := "x"
	err := e.UpdateCell(context.Background(), "tab1", "main", "widgets", "label", &value,
		[]models.PKColumn{{Name: "id", Value: "999"}})
	assert.ErrorIs(t, err, connection.ErrStaleRow)
}

func TestSchemaOperations(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	seedWidgets(t, e, 1)
	ctx := context.Background()

	names, err := e.SchemaNames(ctx, "tab1")
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, names)

	tables, err := e.Tables(ctx, "tab1", "main")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "widgets", tables[0].Name)

	cols, err := e.Columns(ctx, "tab1", "main", "widgets")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].IsPrimaryKey)

	structure, err := e.DescribeTable(ctx, "tab1", "main", "widgets")
	require.NoError(t, err)
	require.Len(t, structure.Columns, 2)
	assert.Equal(t, "label", structure.Columns[1].Name)
}

func TestCompletions(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	seedWidgets(t, e, 1)
	ctx := context.Background()

	assert.Nil(t, e.Completions(ctx, "tab1", ""))

	matches := e.Completions(ctx, "tab1", "wid")
	assert.Contains(t, matches, "widgets")
	assert.Contains(t, matches, "widgets.label")

	matches = e.Completions(ctx, "tab1", "sel")
	assert.Contains(t, matches, "SELECT")

	// An unbound tab still gets keyword completions.
	matches = e.Completions(ctx, "other", "DEL")
	assert.Equal(t, []string{"DELETE"}, matches)
}

func TestCompletionsCapped(t *testing.T) {
	e := newTestEngine(t, testConfig(10), nil, false)
	// C-keywords alone exceed the cap: CASCADE, CASE, CAST, COALESCE,
	// COLUMN, CONSTRAINT, COUNT, CREATE, CROSS plus schema names.
	matches := e.Completions(context.Background(), "other", "C")
	assert.LessOrEqual(t, len(matches), maxCompletions)
	assert.NotEmpty(t, matches)
}

func TestExecuteRecordsHistory(t *testing.T) {
	hist, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	cfg := testConfig(10)
	cfg.History = config.HistoryConfig{Enabled: true, MaxEntries: 100}
	e := newTestEngine(t, cfg, hist, false)
	seedWidgets(t, e, 1)

	_, err = e.Execute(context.Background(), "tab1", "SELECT * FROM widgets;", 0)
	require.NoError(t, err)

	entries, err := hist.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "mem", entries[0].ConnectionName)
	// The recorded statement is normalized but never the rewritten form.
	assert.Equal(t, "SELECT * FROM widgets", entries[0].Query)
	assert.True(t, entries[0].Success)
	assert.Equal(t, 1, entries[0].RowCount)
}
