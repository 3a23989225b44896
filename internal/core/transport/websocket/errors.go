package websocket

import "errors"

// ErrTransportClosed 传输已关闭
var ErrTransportClosed = errors.New("websocket: transport closed")
