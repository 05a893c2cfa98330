package sshtunnel

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestKeyFileAuth(t *testing.T) {
	method, err := keyFileAuth(writeTestKey(t), "")
	require.NoError(t, err)
	assert.NotNil(t, method)
}

func TestKeyFileAuthMissingFile(t *testing.T) {
	_, err := keyFileAuth(filepath.Join(t.TempDir(), "nope"), "")
	assert.ErrorContains(t, err, "could not load key")
}

func TestKeyFileAuthGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_bad")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

	_, err := keyFileAuth(path, "")
	assert.Error(t, err)
}

func TestAuthMethodsUnknownKind(t *testing.T) {
	_, _, err := authMethods(Auth{Kind: "telepathy"})
	assert.ErrorContains(t, err, "unknown auth method")
}

func TestAgentAuthWithoutSocket(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	_, _, err := authMethods(Auth{Kind: AuthAgent})
	assert.ErrorContains(t, err, "SSH_AUTH_SOCK")
}
