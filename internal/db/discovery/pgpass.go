package discovery

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// PgPassEntry is one line of ~/.pgpass. Any field may be the "*" wildcard.
type PgPassEntry struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// LoadPgPass reads ~/.pgpass. A missing file is not an error. On non-Windows
// systems the file is rejected when group or world accessible, matching
// libpq.
func LoadPgPass() ([]PgPassEntry, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return loadPgPassFile(filepath.Join(home, ".pgpass"))
}

func loadPgPassFile(path string) ([]PgPassEntry, error) {
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		if perm := info.Mode().Perm(); perm&0o077 != 0 {
			return nil, fmt.Errorf("pgpass file %s has insecure permissions %v, must be 0600", path, perm)
		}
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var entries []PgPassEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := parsePgPassLine(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// parsePgPassLine splits hostname:port:database:username:password, honoring
// the \: and \\ escapes.
func parsePgPassLine(line string) (PgPassEntry, error) {
	parts := make([]string, 0, 5)
	var field strings.Builder
	escaped := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case escaped:
			field.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == ':':
			parts = append(parts, field.String())
			field.Reset()
		default:
			field.WriteByte(ch)
		}
	}
	parts = append(parts, field.String())

	if len(parts) != 5 {
		return PgPassEntry{}, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}
	if parts[1] != "*" {
		port, err := strconv.Atoi(parts[1])
		if err != nil || port < 1 || port > 65535 {
			return PgPassEntry{}, fmt.Errorf("invalid port %q", parts[1])
		}
	}

	return PgPassEntry{
		Host:     parts[0],
		Port:     parts[1],
		Database: parts[2],
		User:     parts[3],
		Password: parts[4],
	}, nil
}

// fromPgPass surfaces the concrete (non-wildcard) hosts in ~/.pgpass.
func fromPgPass() []Instance {
	entries, err := LoadPgPass()
	if err != nil {
		return nil
	}

	var instances []Instance
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.Host == "*" {
			continue
		}
		port := 5432
		if entry.Port != "*" {
			port, _ = strconv.Atoi(entry.Port)
		}

		key := entry.Host + ":" + strconv.Itoa(port)
		if seen[key] {
			continue
		}
		seen[key] = true

		instance := Instance{Host: entry.Host, Port: port, Source: SourcePgPass}
		if entry.User != "*" {
			instance.User = entry.User
		}
		if entry.Database != "*" {
			instance.Database = entry.Database
		}
		instances = append(instances, instance)
	}
	return instances
}

// FindPassword returns the first ~/.pgpass password matching the endpoint,
// or the empty string.
func FindPassword(host string, port int, database, user string) string {
	entries, err := LoadPgPass()
	if err != nil {
		return ""
	}

	portStr := strconv.Itoa(port)
	for _, entry := range entries {
		if pgPassMatch(entry.Host, host) &&
			pgPassMatch(entry.Port, portStr) &&
			pgPassMatch(entry.Database, database) &&
			pgPassMatch(entry.User, user) {
			return entry.Password
		}
	}
	return ""
}

func pgPassMatch(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
