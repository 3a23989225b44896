package quic

import "errors"

// ErrTransportClosed 传输已关闭
var ErrTransportClosed = errors.New("quic: transport closed")
