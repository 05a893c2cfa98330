package sshtunnel

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrHostKeyMismatch is returned when a known host presents a key that does
// not match the one on record. This is a hard trust failure and is never
// auto-resolved.
type ErrHostKeyMismatch struct {
	Host string
}

func (e *ErrHostKeyMismatch) Error() string {
	return fmt.Sprintf("host key mismatch for %s: the server's key has changed, refusing to connect", e.Host)
}

// KnownHostsStore is a line-oriented trust store with trust-on-first-use
// semantics. Each line is "<host:port> <key-type> <base64-key>"; comment
// lines start with '#'.
type KnownHostsStore struct {
	path string
}

// NewKnownHostsStore returns a store backed by the file at path. The file
// does not need to exist yet.
func NewKnownHostsStore(path string) *KnownHostsStore {
	return &KnownHostsStore{path: path}
}

// Check applies the trust-on-first-use policy for host (a "host:port"
// string) presenting key:
//   - unknown host: persist the key and accept
//   - known host with matching key: accept
//   - known host with a different key: ErrHostKeyMismatch
func (s *KnownHostsStore) Check(host string, key ssh.PublicKey) error {
	keyType := key.Type()
	keyB64 := base64.StdEncoding.EncodeToString(key.Marshal())

	stored, found, err := s.lookup(host)
	if err != nil {
		return err
	}
	if found {
		if stored.keyType == keyType && stored.keyB64 == keyB64 {
			return nil
		}
		return &ErrHostKeyMismatch{Host: host}
	}

	return s.append(host, keyType, keyB64)
}

// HostKeyCallback adapts Check to the ssh client handshake.
func (s *KnownHostsStore) HostKeyCallback() ssh.HostKeyCallback {
	return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
		return s.Check(hostname, key)
	}
}

type knownHostEntry struct {
	keyType string
	keyB64  string
}

func (s *KnownHostsStore) lookup(host string) (knownHostEntry, bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return knownHostEntry{}, false, nil
		}
		return knownHostEntry{}, false, fmt.Errorf("failed to open known_hosts: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) != 3 || parts[0] != host {
			continue
		}
		return knownHostEntry{keyType: parts[1], keyB64: parts[2]}, true, nil
	}
	if err := scanner.Err(); err != nil {
		return knownHostEntry{}, false, fmt.Errorf("failed to read known_hosts: %w", err)
	}
	return knownHostEntry{}, false, nil
}

func (s *KnownHostsStore) append(host, keyType, keyB64 string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create known_hosts directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts for writing: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s %s %s\n", host, keyType, keyB64); err != nil {
		return fmt.Errorf("failed to record host key: %w", err)
	}
	return nil
}
