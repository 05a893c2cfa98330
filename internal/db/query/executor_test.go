package query

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteSQLiteTruncatesAtCap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), "a").
		AddRow(int64(2), "b").
		AddRow(int64(3), "c")
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	result, err := executeSQLite(context.Background(), db, "SELECT id, name FROM t", 2)
	require.NoError(t, err)

	assert.True(t, result.Truncated)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, [][]string{{"1", "a"}, {"2", "b"}}, result.Rows)
	assert.Equal(t, []string{"id", "name"}, result.Columns)
}

func TestExecuteSQLiteExactCapNotTruncated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).
		AddRow(int64(1)).
		AddRow(int64(2))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	result, err := executeSQLite(context.Background(), db, "SELECT id FROM t", 2)
	require.NoError(t, err)

	assert.False(t, result.Truncated)
	assert.Equal(t, 2, result.RowCount)
}

func TestExecuteSQLiteEmptyResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	result, err := executeSQLite(context.Background(), db, "SELECT id FROM t WHERE 0", 100)
	require.NoError(t, err)

	assert.Empty(t, result.Columns)
	assert.Empty(t, result.ColumnTypes)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 0, result.RowCount)
	assert.False(t, result.Truncated)
}

func TestExecuteSQLiteDecodesNullAndTypes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"v"}).
		AddRow(nil).
		AddRow("text").
		AddRow(int64(9))
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	result, err := executeSQLite(context.Background(), db, "SELECT v FROM t", 100)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"NULL"}, {"text"}, {"9"}}, result.Rows)
}

func TestExecuteSQLiteBackendError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err = executeSQLite(context.Background(), db, "SELECT broken", 100)
	assert.Error(t, err)
}
