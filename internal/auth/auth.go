// Package auth implements the client side of the MySQL/MariaDB
// authentication plugins this client implements: mysql_native_password,
// caching_sha2_password, and MariaDB's client_ed25519.
package auth

import "fmt"

// Plugin is the client side of one authentication plugin exchange.
// Respond computes the initial auth response sent in the handshake
// response packet; Continue handles any AuthSwitchRequest/AuthMoreData
// round that follows.
type Plugin interface {
	// Name is the plugin name as advertised on the wire
	// (e.g. "mysql_native_password").
	Name() string

	// Respond computes the initial auth response for the given server
	// scramble/nonce.
	Respond(scramble []byte) ([]byte, error)

	// Continue handles one more-data/auth-switch round. done reports
	// whether the plugin has nothing further to send; resp is the bytes
	// to write back (possibly empty).
	Continue(serverData []byte) (resp []byte, done bool, err error)
}

// ErrUnsupportedPlugin is returned by New when the server names a plugin
// this client does not implement.
type ErrUnsupportedPlugin struct {
	Plugin string
}

func (e *ErrUnsupportedPlugin) Error() string {
	return fmt.Sprintf("auth: unsupported plugin %q", e.Plugin)
}

// Options carries the inputs Plugin implementations need beyond the
// scramble exchanged on the wire.
type Options struct {
	Password string
	// UseCleartext allows caching_sha2_password to fall back to sending
	// the password in the clear during full authentication. The
	// handshake algorithm only sets this when the connection is
	// already TLS-protected.
	UseCleartext bool
	// ServerPublicKey is the server's RSA public key (PEM), used by
	// caching_sha2_password's full-auth path when UseCleartext is
	// false. May be nil; the plugin requests it from the server
	// (public key retrieval round) when needed and this was not
	// supplied up front.
	ServerPublicKey []byte
}

// New constructs the Plugin for the named auth mechanism.
func New(name string, opts Options) (Plugin, error) {
	switch name {
	case NativePasswordName:
		return &nativePassword{password: opts.Password}, nil
	case CachingSHA2Name:
		return &cachingSHA2{password: opts.Password, opts: opts}, nil
	case Ed25519Name:
		return &ed25519Plugin{password: opts.Password}, nil
	default:
		return nil, &ErrUnsupportedPlugin{Plugin: name}
	}
}
