package protocol

import (
	"crypto/tls"

	"github.com/gomysql/gomysql/internal/auth"
	"github.com/gomysql/gomysql/internal/capability"
	"github.com/gomysql/gomysql/internal/connstate"
	"github.com/gomysql/gomysql/internal/diagnostics"
	"github.com/gomysql/gomysql/internal/wire"
)

// SSLMode controls whether TLS is negotiated during the handshake.
type SSLMode int

const (
	SSLDisable SSLMode = iota
	SSLEnable          // use TLS if the server offers it
	SSLRequire         // fail if the server does not offer TLS
)

// HandshakeParams carries the user-supplied connection parameters the
// Handshake algorithm needs.
type HandshakeParams struct {
	Username        string
	Password        string
	Database        string
	Collation       uint8
	SSLMode         SSLMode
	TLSConfig       *tls.Config
	MultiStatements bool
}

type handshakeStep int

const (
	hsAwaitingGreeting handshakeStep = iota
	hsAwaitingSSLRequestWrite
	hsAwaitingTLSDone
	hsAwaitingAuthResponse
	hsDone
)

// Handshake drives the connection establishment exchange: read the
// server greeting, negotiate capabilities and TLS, authenticate, and
// arrive at an idle, authenticated connection.
type Handshake struct {
	state  *connstate.State
	params HandshakeParams

	step handshakeStep

	serverCaps   capability.Set
	scramble     []byte
	pluginName   string
	plugin       auth.Plugin
	serverStatus uint16

	// Flavor is detected from the server version string in the
	// greeting, so the caller can inspect it after completion.
	Flavor connstate.Flavor

	tlsRequested bool
}

// NewHandshake constructs a Handshake algorithm bound to the given
// connection state. state.Reader/state.Writer must already be attached
// to the stream-backed frame buffers.
func NewHandshake(state *connstate.State, params HandshakeParams) *Handshake {
	return &Handshake{state: state, params: params}
}

func (h *Handshake) Next(res IOResult) (Action, error) {
	switch h.step {
	case hsAwaitingGreeting:
		return h.awaitGreeting(res)
	case hsAwaitingSSLRequestWrite:
		if res.Err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "writing TLS request"))
		}
		h.step = hsAwaitingTLSDone
		return Action{Kind: ActionTLSHandshake}, nil
	case hsAwaitingTLSDone:
		return h.afterTLS(res)
	case hsAwaitingAuthResponse:
		return h.awaitAuthResponse(res)
	default:
		return doneOK()
	}
}

// Start kicks off the algorithm: the first action is always a read of
// the server's initial handshake packet.
func (h *Handshake) Start() (Action, error) {
	return readAction()
}

func (h *Handshake) awaitGreeting(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "reading server greeting"))
	}
	ok, err := h.state.Reader.TryReadMessage()
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "reading server greeting"))
	}
	if !ok {
		return readAction()
	}
	payload := h.state.Reader.View()
	if len(payload) < 1 {
		return doneErr(diagnostics.New(diagnostics.KindProtocolValue, true, "empty initial handshake packet"))
	}
	if payload[0] != 0x0a {
		return doneErr(diagnostics.New(diagnostics.KindProtocolValue, true,
			"unsupported protocol version %d (only version 10 is supported)", payload[0]))
	}

	pos := 1
	serverVersion, pos, err := wire.ReadNullTerminatedString(payload, pos)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing server version"))
	}
	h.Flavor = connstate.DetectFlavor(serverVersion)

	_, pos, err = wire.ReadFixed4(payload, pos) // connection id
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing connection id"))
	}
	scramble1, pos, err := wire.ReadFixedString(payload, pos, 8)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing scramble part 1"))
	}
	_, pos, err = wire.ReadFixed1(payload, pos) // filler
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing filler"))
	}
	capLow, pos, err := wire.ReadFixed2(payload, pos)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing capability flags (low)"))
	}
	_, pos, err = wire.ReadFixed1(payload, pos) // character set
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing character set"))
	}
	h.serverStatus, pos, err = wire.ReadFixed2(payload, pos)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing status flags"))
	}
	capHigh, pos, err := wire.ReadFixed2(payload, pos)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing capability flags (high)"))
	}
	h.serverCaps = capability.Set(uint32(capLow) | uint32(capHigh)<<16)

	authDataLen, pos, err := wire.ReadFixed1(payload, pos)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing auth data length"))
	}
	_, pos, err = wire.ReadFixedString(payload, pos, 10) // reserved
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing reserved bytes"))
	}

	scramble2Len := 13
	if int(authDataLen)-8 > scramble2Len {
		scramble2Len = int(authDataLen) - 8
	}
	var scramble2 string
	if h.serverCaps.Has(capability.SecureConnection) {
		scramble2, pos, err = wire.ReadFixedString(payload, pos, scramble2Len)
		if err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing scramble part 2"))
		}
	}
	h.scramble = []byte(scramble1 + scramble2)
	// The second part is NUL-terminated; trim the trailing zero byte left
	// over from the fixed-width read.
	for len(h.scramble) > 0 && h.scramble[len(h.scramble)-1] == 0 {
		h.scramble = h.scramble[:len(h.scramble)-1]
	}

	h.pluginName = "mysql_native_password"
	if h.serverCaps.Has(capability.PluginAuth) && pos < len(payload) {
		name, _, err := wire.ReadNullTerminatedString(payload, pos)
		if err == nil {
			h.pluginName = name
		}
	}

	negotiated, ok := capability.Negotiate(h.serverCaps, h.wantedCapabilities())
	if !ok {
		return doneErr(diagnostics.New(diagnostics.KindClientPrecondition, true,
			"server does not support a mandatory capability"))
	}
	h.state.Capabilities = negotiated
	if h.params.SSLMode == SSLRequire && !negotiated.Has(capability.SSL) {
		return doneErr(diagnostics.New(diagnostics.KindClientPrecondition, true,
			"TLS is required but the server does not offer it"))
	}

	// The greeting consumed sequence number 0; our next write continues
	// the same exchange's numbering.
	h.state.Writer.ResetSeqNum(h.state.Reader.SeqNum())

	if negotiated.Has(capability.SSL) {
		h.tlsRequested = true
		return h.writeSSLRequest()
	}
	return h.writeLoginResponse()
}

func (h *Handshake) wantedCapabilities() capability.Set {
	wanted := capability.Set(0)
	if h.params.Database != "" {
		wanted |= capability.ConnectWithDB
	}
	if h.params.SSLMode != SSLDisable {
		wanted |= capability.SSL
	}
	if h.params.MultiStatements {
		wanted |= capability.MultiStatements
	}
	return wanted
}

func (h *Handshake) writeSSLRequest() (Action, error) {
	buf := wire.PutFixed4(nil, uint32(h.state.Capabilities))
	buf = wire.PutFixed4(buf, 0xffffff)
	buf = wire.PutFixed1(buf, h.params.Collation)
	buf = append(buf, make([]byte, 23)...)
	out := h.state.Writer.WriteMessage(nil, buf)
	h.step = hsAwaitingSSLRequestWrite
	return writeAction(out)
}

func (h *Handshake) afterTLS(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "performing TLS handshake"))
	}
	return h.writeLoginResponse()
}

func (h *Handshake) writeLoginResponse() (Action, error) {
	plugin, err := auth.New(h.pluginName, auth.Options{
		Password:     h.params.Password,
		UseCleartext: h.tlsRequested,
	})
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindProtocolValue, true, err, "selecting authentication plugin"))
	}
	h.plugin = plugin
	resp, err := plugin.Respond(h.scramble)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindProtocolValue, true, err, "computing authentication response"))
	}

	buf := wire.PutFixed4(nil, uint32(h.state.Capabilities))
	buf = wire.PutFixed4(buf, 0xffffff)
	buf = wire.PutFixed1(buf, h.params.Collation)
	buf = append(buf, make([]byte, 23)...)
	buf = wire.PutNullTerminatedString(buf, h.params.Username)
	buf = wire.PutLengthEncodedString(buf, string(resp))
	if h.state.Capabilities.Has(capability.ConnectWithDB) {
		buf = wire.PutNullTerminatedString(buf, h.params.Database)
	}
	buf = wire.PutNullTerminatedString(buf, h.plugin.Name())

	out := h.state.Writer.WriteMessage(nil, buf)
	h.step = hsAwaitingAuthResponse
	return writeAction(out)
}

func (h *Handshake) awaitAuthResponse(res IOResult) (Action, error) {
	if res.Err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindTransport, true, res.Err, "reading authentication response"))
	}
	ok, err := h.state.Reader.TryReadMessage()
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "reading authentication response"))
	}
	if !ok {
		return readAction()
	}
	payload := h.state.Reader.View()
	if len(payload) == 0 {
		return doneErr(diagnostics.New(diagnostics.KindProtocolValue, true, "empty authentication response"))
	}

	switch payload[0] {
	case headerOK:
		okp, err := wire.ReadOKPacket(payload[1:], h.state.Capabilities)
		if err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing OK packet"))
		}
		h.state.BackslashEscapes = okp.StatusFlags&wire.StatusNoBackslashEscapes == 0
		h.state.Charset = &connstate.Charset{CollationID: uint16(h.params.Collation)}
		h.step = hsDone
		return doneOK()

	case headerErr:
		ep, err := wire.ReadErrPacket(payload[1:], h.state.Capabilities)
		if err != nil {
			return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing ERR packet"))
		}
		return doneErr(diagnostics.FromServer(ep.Code, ep.SQLState, ep.Message, true))

	case 0xfe: // AuthSwitchRequest
		return h.handleAuthSwitch(payload[1:])

	case 0x01: // AuthMoreData
		return h.handlePluginContinue(payload[1:])

	default:
		return doneErr(diagnostics.New(diagnostics.KindProtocolValue, true,
			"unexpected byte 0x%02x in authentication exchange", payload[0]))
	}
}

func (h *Handshake) handleAuthSwitch(payload []byte) (Action, error) {
	name, pos, err := wire.ReadNullTerminatedString(payload, 0)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindFraming, true, err, "parsing AuthSwitchRequest"))
	}
	data := payload[pos:]
	for len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	h.state.Writer.ResetSeqNum(h.state.Reader.SeqNum())

	plugin, err := auth.New(name, auth.Options{Password: h.params.Password, UseCleartext: h.tlsRequested})
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindProtocolValue, true, err, "switching authentication plugin"))
	}
	h.plugin = plugin
	h.pluginName = plugin.Name()
	resp, err := plugin.Respond(data)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindProtocolValue, true, err, "computing switched-plugin response"))
	}
	out := h.state.Writer.WriteMessage(nil, resp)
	return writeAction(out)
}

func (h *Handshake) handlePluginContinue(payload []byte) (Action, error) {
	resp, done, err := h.plugin.Continue(payload)
	if err != nil {
		return doneErr(diagnostics.Wrap(diagnostics.KindProtocolValue, true, err, "continuing authentication plugin exchange"))
	}
	if done && resp == nil {
		return readAction()
	}
	h.state.Writer.ResetSeqNum(h.state.Reader.SeqNum())
	out := h.state.Writer.WriteMessage(nil, resp)
	return writeAction(out)
}

// PluginName reports the authentication plugin that concluded the
// exchange, for callers tracking handshake outcomes.
func (h *Handshake) PluginName() string { return h.pluginName }

// TLSActive reports whether the handshake negotiated TLS, so the caller
// knows to route the eventual Quit through a TLS shutdown.
func (h *Handshake) TLSActive() bool { return h.tlsRequested }
