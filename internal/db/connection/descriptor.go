package connection

import (
	"fmt"
	"net/url"
)

// Backend identifies which database engine a descriptor targets.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Descriptor holds everything needed to open one connection. It is immutable
// once created; SSH-tunnelled connections get a copy with Host/Port pointing
// at the local tunnel endpoint.
type Descriptor struct {
	Backend Backend
	Name    string

	// Postgres fields
	Host     string
	Port     int
	Database string
	User     string
	Password string

	// SQLite field
	Path string
}

// WithEndpoint returns a copy of the descriptor pointing at a different
// host/port. Used to redirect a Postgres connection through an SSH tunnel.
func (d Descriptor) WithEndpoint(host string, port int) Descriptor {
	d.Host = host
	d.Port = port
	return d
}

// ConnString produces the backend-specific connection string.
func (d Descriptor) ConnString() string {
	switch d.Backend {
	case BackendPostgres:
		u := url.URL{
			Scheme: "postgres",
			Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
			Path:   "/" + d.Database,
		}
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
		return u.String()
	case BackendSQLite:
		return d.Path
	default:
		return ""
	}
}

// DefaultSchema is the schema unqualified table names resolve to.
func (d Descriptor) DefaultSchema() string {
	if d.Backend == BackendSQLite {
		return "main"
	}
	return "public"
}
