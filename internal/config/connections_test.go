package config

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quernlabs/quern/internal/db/connection"
	"github.com/quernlabs/quern/internal/secret"
	"github.com/quernlabs/quern/internal/sshtunnel"
)

func TestConnectionStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConnectionStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Add(SavedConnection{
		Type: "sqlite", Name: "local", Path: "/tmp/app.db",
	}))
	require.NoError(t, store.Add(SavedConnection{
		Type: "postgres", Name: "prod-db",
		Host: "db.internal", Port: 5432, Username: "svc", Database: "app",
		Tags: []string{"prod"},
	}))
	require.NoError(t, store.SetLastConnection("prod-db"))

	// Reload from disk.
	reloaded, err := NewConnectionStore(dir)
	require.NoError(t, err)

	assert.Len(t, reloaded.List(), 2)
	assert.Equal(t, "prod-db", reloaded.LastConnection())

	conn, ok := reloaded.Find("prod-db")
	require.True(t, ok)
	assert.Equal(t, "db.internal", conn.Host)
	assert.True(t, conn.IsDangerous())
}

func TestConnectionStoreAddReplacesByName(t *testing.T) {
	store, err := NewConnectionStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Add(SavedConnection{Type: "sqlite", Name: "x", Path: "/a.db"}))
	require.NoError(t, store.Add(SavedConnection{Type: "sqlite", Name: "x", Path: "/b.db"}))

	assert.Len(t, store.List(), 1)
	conn, _ := store.Find("x")
	assert.Equal(t, "/b.db", conn.Path)
}

func TestConnectionStoreRemove(t *testing.T) {
	store, err := NewConnectionStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Add(SavedConnection{Type: "sqlite", Name: "x", Path: "/a.db"}))
	require.NoError(t, store.SetLastConnection("x"))
	require.NoError(t, store.Remove("x"))

	assert.Empty(t, store.List())
	assert.Empty(t, store.LastConnection())
}

func TestIsDangerous(t *testing.T) {
	assert.True(t, (&SavedConnection{Tags: []string{"Production"}}).IsDangerous())
	assert.True(t, (&SavedConnection{Tags: []string{"sensitive"}}).IsDangerous())
	assert.False(t, (&SavedConnection{Tags: []string{"dev", "local"}}).IsDangerous())
	assert.False(t, (&SavedConnection{}).IsDangerous())
}

func TestResolveSQLite(t *testing.T) {
	conn := &SavedConnection{Type: "sqlite", Name: "local", Path: "/tmp/app.db"}
	spec, err := conn.Resolve(nil)
	require.NoError(t, err)

	assert.Equal(t, connection.BackendSQLite, spec.Descriptor.Backend)
	assert.Equal(t, "/tmp/app.db", spec.Descriptor.Path)
	assert.Nil(t, spec.SSH)
}

func TestResolvePostgresWithSecrets(t *testing.T) {
	key := make([]byte, secret.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	pw, err := secret.Encrypt(key, "hunter2")
	require.NoError(t, err)
	pp, err := secret.Encrypt(key, "keypass")
	require.NoError(t, err)

	conn := &SavedConnection{
		Type: "postgres", Name: "prod-db",
		Host: "db.internal", Port: 5432, Username: "svc", Database: "app",
		Password: &pw,
		Tags:     []string{"prod"},
		SSH: &SSHSettings{
			Host: "bastion", Username: "deploy",
			KeyPath: "/home/u/.ssh/id_ed25519", Passphrase: &pp,
		},
	}

	spec, err := conn.Resolve(key)
	require.NoError(t, err)

	assert.Equal(t, "hunter2", spec.Descriptor.Password)
	assert.True(t, spec.Dangerous)
	require.NotNil(t, spec.SSH)
	assert.Equal(t, 22, spec.SSH.Port)
	assert.Equal(t, sshtunnel.AuthKeyFile, spec.SSH.Auth.Kind)
	assert.Equal(t, "keypass", spec.SSH.Auth.Passphrase)
}

func TestResolvePostgresAgentAuth(t *testing.T) {
	conn := &SavedConnection{
		Type: "postgres", Name: "x",
		Host: "h", Port: 5432, Username: "u", Database: "d",
		SSH:  &SSHSettings{Host: "bastion", Port: 2022, Username: "deploy"},
	}
	spec, err := conn.Resolve(nil)
	require.NoError(t, err)

	assert.Equal(t, sshtunnel.AuthAgent, spec.SSH.Auth.Kind)
	assert.Equal(t, 2022, spec.SSH.Port)
}

func TestResolveWrongKeyFails(t *testing.T) {
	key := make([]byte, secret.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	pw, err := secret.Encrypt(key, "pw")
	require.NoError(t, err)

	other := make([]byte, secret.KeySize)
	_, err = rand.Read(other)
	require.NoError(t, err)

	conn := &SavedConnection{
		Type: "postgres", Name: "x",
		Host: "h", Port: 5432, Username: "u", Database: "d",
		Password: &pw,
	}
	_, err = conn.Resolve(other)
	assert.Error(t, err)
}

func TestResolveUnknownType(t *testing.T) {
	_, err := (&SavedConnection{Type: "oracle"}).Resolve(nil)
	assert.Error(t, err)
}
