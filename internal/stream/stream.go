// Package stream provides the concrete transports behind the engine's
// Stream contract: plain TCP, TLS-wrapped TCP, and local
// Unix domain sockets.
package stream

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Endpoint is either a (hostname, port) pair or a local socket path. A hostname may resolve to multiple addresses; Connect
// tries each in order.
type Endpoint struct {
	Host       string
	Port       uint16
	UnixSocket string
}

func (e Endpoint) network() string {
	if e.UnixSocket != "" {
		return "unix"
	}
	return "tcp"
}

func (e Endpoint) String() string {
	if e.UnixSocket != "" {
		return e.UnixSocket
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// NetStream implements engine.Stream over the standard net stack, with
// optional TLS layering activated by TLSHandshake. The zero value is not
// usable; construct with New.
type NetStream struct {
	endpoint  Endpoint
	tlsConfig *tls.Config

	conn    net.Conn
	tlsConn *tls.Conn
}

// New returns a NetStream that will connect to endpoint. tlsConfig may be
// nil if TLSHandshake is never requested (ssl-mode disable, or a server
// without TLS support under ssl-mode enable).
func New(endpoint Endpoint, tlsConfig *tls.Config) *NetStream {
	return &NetStream{endpoint: endpoint, tlsConfig: tlsConfig}
}

// Connect dials the endpoint. For hostnames resolving to multiple
// addresses each is tried in order; the first success wins and the last
// failure is reported if all fail.
func (s *NetStream) Connect(ctx context.Context) error {
	d := net.Dialer{KeepAlive: 30 * time.Second}

	if s.endpoint.UnixSocket != "" {
		conn, err := d.DialContext(ctx, "unix", s.endpoint.UnixSocket)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", s.endpoint.UnixSocket, err)
		}
		s.conn = conn
		return nil
	}

	addrs, err := net.DefaultResolver.LookupHost(ctx, s.endpoint.Host)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", s.endpoint.Host, err)
	}
	port := strconv.Itoa(int(s.endpoint.Port))
	var lastErr error
	for _, addr := range addrs {
		conn, derr := d.DialContext(ctx, "tcp", net.JoinHostPort(addr, port))
		if derr == nil {
			s.conn = conn
			return nil
		}
		lastErr = derr
	}
	return fmt.Errorf("connecting to %s: %w", s.endpoint, lastErr)
}

// active returns the connection reads and writes should go through: the
// TLS layer once TLSHandshake has completed, the raw conn before.
func (s *NetStream) active() net.Conn {
	if s.tlsConn != nil {
		return s.tlsConn
	}
	return s.conn
}

// applyDeadline maps ctx's deadline (or lack of one) onto the
// connection, so a blocked read or write unblocks when the context
// expires.
func (s *NetStream) applyDeadline(ctx context.Context, conn net.Conn) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Time{})
	}
}

// ReadSome reads at least one byte into buf, blocking until data arrives,
// the peer closes, or ctx expires.
func (s *NetStream) ReadSome(ctx context.Context, buf []byte) (int, error) {
	conn := s.active()
	if conn == nil {
		return 0, fmt.Errorf("stream: not connected")
	}
	s.applyDeadline(ctx, conn)
	return conn.Read(buf)
}

// WriteSome writes some of buf, returning how many bytes were accepted.
func (s *NetStream) WriteSome(ctx context.Context, buf []byte) (int, error) {
	conn := s.active()
	if conn == nil {
		return 0, fmt.Errorf("stream: not connected")
	}
	s.applyDeadline(ctx, conn)
	return conn.Write(buf)
}

// TLSHandshake layers TLS over the established connection. Subsequent
// reads and writes go through the TLS record layer.
func (s *NetStream) TLSHandshake(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("stream: not connected")
	}
	cfg := s.tlsConfig
	if cfg == nil {
		cfg = &tls.Config{ServerName: s.endpoint.Host, MinVersion: tls.VersionTLS12}
	}
	tc := tls.Client(s.conn, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		return fmt.Errorf("TLS handshake: %w", err)
	}
	s.tlsConn = tc
	return nil
}

// TLSShutdown sends the TLS close-notify alert. Best-effort: COM_QUIT has
// already been sent by the time this runs, and many servers simply drop
// the connection instead of completing the closure exchange.
func (s *NetStream) TLSShutdown(ctx context.Context) error {
	if s.tlsConn == nil {
		return nil
	}
	s.applyDeadline(ctx, s.tlsConn)
	return s.tlsConn.CloseWrite()
}

// Close tears down the transport.
func (s *NetStream) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.tlsConn = nil
	return err
}
