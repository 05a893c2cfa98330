package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePgPassLine(t *testing.T) {
	entry, err := parsePgPassLine("db.example.com:5432:app:svc:hunter2")
	require.NoError(t, err)
	assert.Equal(t, PgPassEntry{
		Host: "db.example.com", Port: "5432", Database: "app", User: "svc", Password: "hunter2",
	}, entry)
}

func TestParsePgPassLineEscapes(t *testing.T) {
	entry, err := parsePgPassLine(`host:5432:db:user:pa\:ss\\word`)
	require.NoError(t, err)
	assert.Equal(t, `pa:ss\word`, entry.Password)
}

func TestParsePgPassLineWildcards(t *testing.T) {
	entry, err := parsePgPassLine("*:*:*:*:secret")
	require.NoError(t, err)
	assert.Equal(t, "*", entry.Host)
	assert.Equal(t, "*", entry.Port)
}

func TestParsePgPassLineInvalid(t *testing.T) {
	_, err := parsePgPassLine("only:four:fields:here")
	assert.Error(t, err)

	_, err = parsePgPassLine("host:notaport:db:user:pw")
	assert.Error(t, err)
}

func TestLoadPgPassFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pgpass")
	content := "# comment\n\nlocalhost:5432:app:svc:pw\nbad line\n*:*:*:admin:master\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	entries, err := loadPgPassFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "localhost", entries[0].Host)
	assert.Equal(t, "admin", entries[1].User)
}

func TestLoadPgPassFileInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pgpass")
	require.NoError(t, os.WriteFile(path, []byte("h:5432:d:u:p\n"), 0o644))

	_, err := loadPgPassFile(path)
	assert.ErrorContains(t, err, "insecure permissions")
}

func TestLoadPgPassFileMissing(t *testing.T) {
	entries, err := loadPgPassFile(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDedupePrefersBetterSource(t *testing.T) {
	merged := dedupe([]Instance{
		{Host: "localhost", Port: 5432, Source: SourcePortScan},
		{Host: "localhost", Port: 5432, Source: SourceEnvironment, User: "svc"},
		{Host: "localhost", Port: 5433, Source: SourcePortScan},
	})

	require.Len(t, merged, 2)
	assert.Equal(t, SourceEnvironment, merged[0].Source)
	assert.Equal(t, "svc", merged[0].User)
	assert.Equal(t, 5433, merged[1].Port)
}

func TestFromEnvironment(t *testing.T) {
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGPORT", "5444")
	t.Setenv("PGUSER", "svc")

	instance := fromEnvironment()
	require.NotNil(t, instance)
	assert.Equal(t, "db.internal", instance.Host)
	assert.Equal(t, 5444, instance.Port)
	assert.Equal(t, "svc", instance.User)
}

func TestFromEnvironmentUnset(t *testing.T) {
	t.Setenv("PGHOST", "")
	assert.Nil(t, fromEnvironment())
}
