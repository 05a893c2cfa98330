// Package discovery locates candidate PostgreSQL endpoints on the local
// machine: libpq environment variables, ~/.pgpass entries and a localhost
// port sweep. Results are suggestions only; nothing is verified beyond a
// TCP handshake.
package discovery

import (
	"context"
	"os"
	"sort"
	"strconv"
	"time"
)

// Source says how an instance was found. Lower values are more trustworthy
// and win when the same endpoint shows up twice.
type Source int

const (
	SourceEnvironment Source = iota
	SourcePgPass
	SourcePortScan
)

func (s Source) String() string {
	switch s {
	case SourceEnvironment:
		return "environment"
	case SourcePgPass:
		return "pgpass"
	case SourcePortScan:
		return "port scan"
	default:
		return "unknown"
	}
}

// Instance is one candidate PostgreSQL endpoint.
type Instance struct {
	Host         string
	Port         int
	Source       Source
	User         string
	Database     string
	ResponseTime time.Duration
}

// Discover runs every discovery method and merges the results.
func Discover(ctx context.Context) []Instance {
	var instances []Instance
	if env := fromEnvironment(); env != nil {
		instances = append(instances, *env)
	}
	instances = append(instances, fromPgPass()...)
	instances = append(instances, scanLocalhost(ctx)...)
	return dedupe(instances)
}

// fromEnvironment reads the libpq PGHOST family of variables.
func fromEnvironment() *Instance {
	host := os.Getenv("PGHOST")
	if host == "" {
		return nil
	}

	port := 5432
	if raw := os.Getenv("PGPORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil && p > 0 && p <= 65535 {
			port = p
		}
	}

	return &Instance{
		Host:     host,
		Port:     port,
		Source:   SourceEnvironment,
		User:     os.Getenv("PGUSER"),
		Database: os.Getenv("PGDATABASE"),
	}
}

// dedupe keeps one instance per host:port, preferring the better source,
// and orders the result by source then endpoint.
func dedupe(instances []Instance) []Instance {
	seen := make(map[string]Instance, len(instances))
	for _, instance := range instances {
		key := instance.Host + ":" + strconv.Itoa(instance.Port)
		if existing, ok := seen[key]; !ok || instance.Source < existing.Source {
			seen[key] = instance
		}
	}

	result := make([]Instance, 0, len(seen))
	for _, instance := range seen {
		result = append(result, instance)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Source != result[j].Source {
			return result[i].Source < result[j].Source
		}
		if result[i].Host != result[j].Host {
			return result[i].Host < result[j].Host
		}
		return result[i].Port < result[j].Port
	})
	return result
}
