package connection

import (
	"context"
	"fmt"
)

// Pool is one live, pooled connection to a backend. Multiple logical queries
// may borrow it concurrently; physical connection multiplexing is the
// underlying driver pool's responsibility.
type Pool interface {
	Backend() Backend
	Descriptor() Descriptor
	Ping(ctx context.Context) error
	Close()
}

// OpenPool dials the backend described by desc and verifies the connection
// with a ping.
func OpenPool(ctx context.Context, desc Descriptor) (Pool, error) {
	switch desc.Backend {
	case BackendPostgres:
		return openPostgres(ctx, desc)
	case BackendSQLite:
		return openSQLite(ctx, desc)
	default:
		return nil, fmt.Errorf("unknown backend %q", desc.Backend)
	}
}
