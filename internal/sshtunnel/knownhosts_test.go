package sshtunnel

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func genHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return key
}

func TestKnownHostsTrustOnFirstUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	store := NewKnownHostsStore(path)
	key := genHostKey(t)

	// Unknown host is trusted and persisted.
	require.NoError(t, store.Check("db.example.com:22", key))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "db.example.com:22 ssh-ed25519 ")

	// Same host, same key: trusted again without rewriting.
	require.NoError(t, store.Check("db.example.com:22", key))

	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestKnownHostsSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	key := genHostKey(t)

	require.NoError(t, NewKnownHostsStore(path).Check("h1:22", key))

	// A fresh store over the same file still trusts the host.
	require.NoError(t, NewKnownHostsStore(path).Check("h1:22", key))
}

func TestKnownHostsMismatchIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	store := NewKnownHostsStore(path)

	require.NoError(t, store.Check("h1:22", genHostKey(t)))

	err := store.Check("h1:22", genHostKey(t))
	var mismatch *ErrHostKeyMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "h1:22", mismatch.Host)

	// The stored key is never overwritten: a third check with yet another
	// key still fails.
	err = store.Check("h1:22", genHostKey(t))
	assert.ErrorAs(t, err, &mismatch)
}

func TestKnownHostsPerHostIsolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	store := NewKnownHostsStore(path)

	k1 := genHostKey(t)
	k2 := genHostKey(t)
	require.NoError(t, store.Check("h1:22", k1))
	require.NoError(t, store.Check("h2:2022", k2))

	assert.NoError(t, store.Check("h1:22", k1))
	assert.NoError(t, store.Check("h2:2022", k2))

	// Same bare host on a different port is a distinct trust entry.
	assert.NoError(t, store.Check("h1:2022", k2))
}

func TestKnownHostsIgnoresCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "known_hosts")
	key := genHostKey(t)

	require.NoError(t, os.WriteFile(path, []byte("# trusted hosts\n\n"), 0o600))

	store := NewKnownHostsStore(path)
	require.NoError(t, store.Check("h1:22", key))
	require.NoError(t, store.Check("h1:22", key))
}

func TestKnownHostsCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "nested", "known_hosts")
	store := NewKnownHostsStore(path)

	require.NoError(t, store.Check("h1:22", genHostKey(t)))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
