package discovery

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"
)

// defaultPorts are the ports a local PostgreSQL install typically listens on.
var defaultPorts = []int{5432, 5433, 5434, 5435}

const dialTimeout = 2 * time.Second

// scanLocalhost probes the default ports in parallel and returns the ones
// that accepted a TCP connection.
func scanLocalhost(ctx context.Context) []Instance {
	results := make(chan Instance, len(defaultPorts))

	var wg sync.WaitGroup
	for _, port := range defaultPorts {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(port int) {
			defer wg.Done()
			if instance, ok := probe(ctx, "localhost", port); ok {
				select {
				case results <- instance:
				case <-ctx.Done():
				}
			}
		}(port)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var instances []Instance
	for instance := range results {
		instances = append(instances, instance)
	}
	return instances
}

func probe(ctx context.Context, host string, port int) (Instance, bool) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	start := time.Now()

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return Instance{}, false
	}
	_ = conn.Close()

	return Instance{
		Host:         host,
		Port:         port,
		Source:       SourcePortScan,
		ResponseTime: time.Since(start),
	}, true
}
