package sshtunnel

import (
	"errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// AuthMethodKind selects how the SSH session authenticates.
type AuthMethodKind string

const (
	// AuthAgent enumerates the running ssh-agent's identities and tries
	// each one.
	AuthAgent AuthMethodKind = "agent"
	// AuthKeyFile loads a private key from disk, decrypting it with an
	// optional passphrase.
	AuthKeyFile AuthMethodKind = "key_file"
)

// Auth describes the credentials for one SSH hop.
type Auth struct {
	Kind       AuthMethodKind
	KeyPath    string
	Passphrase string
}

// ErrAuthExhausted is returned when every available identity was rejected by
// the server.
var ErrAuthExhausted = errors.New("ssh: all authentication methods exhausted")

// authMethods builds the ssh.AuthMethod chain for auth. The returned cleanup
// closes the agent socket once the handshake is done and may be called on a
// nil error path only.
func authMethods(auth Auth) ([]ssh.AuthMethod, func(), error) {
	switch auth.Kind {
	case AuthAgent:
		return agentAuth()
	case AuthKeyFile:
		method, err := keyFileAuth(auth.KeyPath, auth.Passphrase)
		if err != nil {
			return nil, nil, err
		}
		return []ssh.AuthMethod{method}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("ssh: unknown auth method %q", auth.Kind)
	}
}

func agentAuth() ([]ssh.AuthMethod, func(), error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, errors.New("ssh agent connect failed: SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, fmt.Errorf("ssh agent connect failed: %w", err)
	}

	client := agent.NewClient(conn)
	// Signers resolves lazily during the handshake, so every identity the
	// agent holds gets a try against the server.
	method := ssh.PublicKeysCallback(client.Signers)
	cleanup := func() { conn.Close() }
	return []ssh.AuthMethod{method}, cleanup, nil
}

func keyFileAuth(keyPath, passphrase string) (ssh.AuthMethod, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("could not load key %s: %w", keyPath, err)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(data)
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("could not load key %s: key is passphrase-protected", keyPath)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not load key %s: %w", keyPath, err)
	}
	return ssh.PublicKeys(signer), nil
}
