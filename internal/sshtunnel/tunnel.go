package sshtunnel

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"
)

const (
	dialTimeout       = 15 * time.Second
	keepaliveInterval = 30 * time.Second
)

// Config describes the SSH hop a tunnel runs through.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	User string `yaml:"user" mapstructure:"user"`
	Auth Auth   `yaml:"-"`
}

// Tunnel forwards 127.0.0.1:LocalPort to remoteHost:remotePort through an
// authenticated SSH session. Callers point their database driver at the
// local port.
type Tunnel struct {
	// LocalPort is the OS-assigned port of the local listener.
	LocalPort int

	client   *ssh.Client
	listener net.Listener
	logger   *slog.Logger

	closeOnce  sync.Once
	acceptDone chan struct{}
	streams    sync.WaitGroup
}

// Establish connects and authenticates the SSH session, verifies the host
// key against knownHosts (trust-on-first-use), binds an ephemeral local port
// and starts the accept loop. The caller owns the returned tunnel and must
// Close it.
func Establish(cfg Config, remoteHost string, remotePort int, knownHosts *KnownHostsStore, logger *slog.Logger) (*Tunnel, error) {
	methods, cleanup, err := authMethods(cfg.Auth)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	clientCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            methods,
		HostKeyCallback: knownHosts.HostKeyCallback(),
		Timeout:         dialTimeout,
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	client, err := ssh.Dial("tcp", addr, clientCfg)
	if err != nil {
		var mismatch *ErrHostKeyMismatch
		if errors.As(err, &mismatch) {
			return nil, mismatch
		}
		return nil, fmt.Errorf("ssh connection to %s failed: %w", addr, err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to bind local tunnel port: %w", err)
	}
	localPort := listener.Addr().(*net.TCPAddr).Port

	t := &Tunnel{
		LocalPort:  localPort,
		client:     client,
		listener:   listener,
		logger:     logger.With("component", "sshtunnel", "local_port", localPort),
		acceptDone: make(chan struct{}),
	}

	remoteAddr := net.JoinHostPort(remoteHost, fmt.Sprintf("%d", remotePort))
	go t.acceptLoop(remoteAddr)
	go t.keepalive()

	t.logger.Debug("tunnel established", "remote", remoteAddr)
	return t, nil
}

// Close stops the accept loop immediately. Streams already forwarding are
// left to drain; the SSH session closes once the last one finishes.
func (t *Tunnel) Close() error {
	t.closeOnce.Do(func() {
		t.listener.Close()
		<-t.acceptDone
		go func() {
			t.streams.Wait()
			t.client.Close()
		}()
	})
	return nil
}

func (t *Tunnel) acceptLoop(remoteAddr string) {
	defer close(t.acceptDone)
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			// Listener closed, or a fatal accept error either way the
			// loop is done.
			return
		}
		t.streams.Add(1)
		go func() {
			defer t.streams.Done()
			if err := t.forward(conn, remoteAddr); err != nil {
				t.logger.Debug("forwarded stream ended with error", "error", err)
			}
		}()
	}
}

// forward opens one SSH direct-tcpip channel and copies bytes both ways
// until either side closes. A failed stream never affects the accept loop.
func (t *Tunnel) forward(local net.Conn, remoteAddr string) error {
	defer local.Close()

	remote, err := t.client.Dial("tcp", remoteAddr)
	if err != nil {
		return fmt.Errorf("failed to open channel to %s: %w", remoteAddr, err)
	}
	defer remote.Close()

	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(remote, local)
		remote.Close()
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(local, remote)
		local.Close()
		return err
	})
	return g.Wait()
}

// keepalive pings the server so idle tunnels survive NAT timeouts. It exits
// when the session dies.
func (t *Tunnel) keepalive() {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for range ticker.C {
		if _, _, err := t.client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
			return
		}
	}
}

