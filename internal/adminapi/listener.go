package adminapi

import (
	"log/slog"
	"net"
)

func newListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

func logServeError(err error) {
	slog.Error("admin server error", "err", err)
}
