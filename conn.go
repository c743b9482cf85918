package gomysql

import (
	"context"
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/engine"
	"github.com/gomysql/gomysql/internal/metrics"
	"github.com/gomysql/gomysql/internal/protocol"
	"github.com/gomysql/gomysql/internal/stream"
)

// SSLMode controls whether TLS is negotiated during the handshake.
type SSLMode = protocol.SSLMode

const (
	SSLDisable = protocol.SSLDisable
	SSLEnable  = protocol.SSLEnable
	SSLRequire = protocol.SSLRequire
)

// Metrics is the Prometheus collector connections and pools report
// into. Optional everywhere it appears.
type Metrics = metrics.Collector

// NewMetrics creates a collector on a fresh private registry.
func NewMetrics() *Metrics { return metrics.New() }

// ConnectParams configures a single connection.
type ConnectParams struct {
	// Host/Port name a TCP endpoint; a hostname resolving to several
	// addresses is tried in order. UnixSocket names a local socket path
	// instead; the two are mutually exclusive.
	Host       string
	Port       uint16
	UnixSocket string

	Username string
	// Password is forwarded to the authentication plugin as raw bytes;
	// it is not required to be valid UTF-8.
	Password string
	Database string

	SSLMode   SSLMode
	TLSConfig *tls.Config

	// Collation is the connection collation ID requested during the
	// handshake. Zero means DefaultCollation.
	Collation uint8

	MultiStatements bool

	// MetaMode selects full or minimal column-metadata retention for
	// every resultset this connection produces.
	MetaMode MetadataMode

	Logger  *slog.Logger
	Metrics *Metrics
}

// Connection is a single client connection to a MySQL or MariaDB
// server. It owns its read buffer, serialization buffer, and the
// underlying transport. Operations must not overlap: a started
// operation must complete before the next begins.
type Connection struct {
	params ConnectParams
	st     *connstate.State
	stream *stream.NetStream
	logger *slog.Logger

	usingTLS  bool
	connected bool
	broken    bool
	dirty     bool

	stmts map[uint32]*Statement
}

// NewConnection builds an unconnected Connection.
func NewConnection(params ConnectParams) *Connection {
	if params.Collation == 0 {
		params.Collation = DefaultCollation
	}
	if params.Port == 0 {
		params.Port = 3306
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{
		params: params,
		st:     connstate.New(8192),
		logger: logger,
		stmts:  make(map[uint32]*Statement),
	}
	c.st.MetaMode = params.MetaMode
	return c
}

// Connect establishes the transport, performs the protocol handshake,
// and authenticates. Reconnecting an existing Connection after a fatal
// error is supported: all per-connection state is reset first.
func (c *Connection) Connect(ctx context.Context) error {
	endpoint := stream.Endpoint{Host: c.params.Host, Port: c.params.Port, UnixSocket: c.params.UnixSocket}
	c.stream = stream.New(endpoint, c.params.TLSConfig)
	if err := c.stream.Connect(ctx); err != nil {
		return diagnostics.Wrap(diagnostics.KindTransport, true, err, "connecting to %s", endpoint)
	}

	c.st.Reset()
	c.st.MetaMode = c.params.MetaMode
	hs := protocol.NewHandshake(c.st, protocol.HandshakeParams{
		Username:        c.params.Username,
		Password:        c.params.Password,
		Database:        c.params.Database,
		Collation:       c.params.Collation,
		SSLMode:         c.params.SSLMode,
		TLSConfig:       c.params.TLSConfig,
		MultiStatements: c.params.MultiStatements,
	})
	err := engine.Run(ctx, c.st, c.stream, hs)
	if c.params.Metrics != nil {
		c.params.Metrics.HandshakeCompleted(hs.PluginName(), err == nil)
	}
	if err != nil {
		_ = c.stream.Close()
		return err
	}

	c.st.Flavor = hs.Flavor
	c.st.Charset = charsetForCollation(c.params.Collation)
	c.usingTLS = hs.TLSActive()
	c.connected = true
	c.broken = false
	c.dirty = false
	c.logger.Debug("connected", "endpoint", endpoint.String(), "flavor", c.st.Flavor, "tls", c.usingTLS)
	return nil
}

// run drives one protocol algorithm to completion, recording its
// duration and tracking connection usability: fatal errors leave the
// connection unusable until the next Connect.
func (c *Connection) run(ctx context.Context, op string, alg engine.Algorithm) error {
	if !c.connected {
		return diagnostics.New(diagnostics.KindClientPrecondition, false, "connection is not established")
	}
	if c.broken {
		return ErrConnectionUnusable
	}
	start := time.Now()
	err := engine.Run(ctx, c.st, c.stream, alg)
	if c.params.Metrics != nil {
		c.params.Metrics.QueryDuration(op, time.Since(start))
	}
	if diagnostics.IsFatal(err) {
		c.broken = true
	}
	return err
}

// Query executes sql as a text-protocol query, collecting every
// resultset it produces.
func (c *Connection) Query(ctx context.Context, sql string) (*Results, error) {
	r := NewResults()
	r.sink.MetaMode = c.st.MetaMode
	err := c.run(ctx, "query", protocol.NewQuery(c.st, sql, r.sink))
	c.dirty = true
	return r, err
}

// QueryStatic executes sql and decodes the resultsets through a typed
// StaticResults sink.
func (c *Connection) QueryStatic(ctx context.Context, sql string, static *StaticResults) error {
	static.sink.SetMetaMode(c.st.MetaMode)
	err := c.run(ctx, "query", protocol.NewQuery(c.st, sql, static.sink))
	c.dirty = true
	return err
}

// Prepare creates a server-side prepared statement. The statement is
// bound to this connection and cannot be executed or closed through any
// other.
func (c *Connection) Prepare(ctx context.Context, sql string) (*Statement, error) {
	p := protocol.NewPrepare(c.st, sql)
	if err := c.run(ctx, "prepare", p); err != nil {
		return nil, err
	}
	c.dirty = true
	s := &Statement{conn: c, info: p.Result}
	c.stmts[p.Result.ID] = s
	return s, nil
}

// Ping checks that the server is alive and the connection usable.
func (c *Connection) Ping(ctx context.Context) error {
	return c.run(ctx, "ping", protocol.NewPing(c.st))
}

// Reset wipes session state (variables, temporary tables, prepared
// statements) without reconnecting. Running it twice in a row leaves
// the connection in the same observable state as running it once.
func (c *Connection) Reset(ctx context.Context) error {
	err := c.run(ctx, "reset", protocol.NewReset(c.st))
	if err == nil {
		c.dirty = false
		for id := range c.stmts {
			c.stmts[id].closed = true
			delete(c.stmts, id)
		}
	}
	return err
}

// SetCharacterSet issues SET NAMES and, on success, switches the
// connection's current charset so the SQL formatter walks multi-byte
// characters correctly.
func (c *Connection) SetCharacterSet(ctx context.Context, cs Charset) error {
	err := c.run(ctx, "set_character_set", protocol.NewSetCharacterSet(c.st, cs))
	c.dirty = true
	return err
}

// Close sends COM_QUIT, shuts TLS down best-effort, and closes the
// transport. The Connection may be reused after a subsequent Connect.
func (c *Connection) Close(ctx context.Context) error {
	if !c.connected {
		return nil
	}
	c.connected = false
	c.broken = false
	if c.stream == nil {
		return nil
	}
	// Quit ignores most I/O errors by design: the server may close its
	// half first.
	err := engine.Run(ctx, c.st, c.stream, protocol.NewQuit(c.st, c.usingTLS))
	c.st.ForgetAllStatements()
	for id := range c.stmts {
		c.stmts[id].closed = true
		delete(c.stmts, id)
	}
	return err
}

// Flavor reports whether the connected server identified as MySQL or
// MariaDB.
func (c *Connection) Flavor() connstate.Flavor { return c.st.Flavor }

// CurrentCharset returns the connection's active charset, or nil before
// the handshake completes.
func (c *Connection) CurrentCharset() *Charset { return c.st.Charset }

// BackslashEscapes reports whether the server currently treats
// backslash as an escape character in string literals.
func (c *Connection) BackslashEscapes() bool { return c.st.BackslashEscapes }

// needsReset reports whether this connection has run anything since the
// last reset that could leave session state behind. The pool consults
// it when the connection is returned.
func (c *Connection) needsReset() bool { return c.dirty || c.broken }
