package memory

import "errors"

var (
	ErrTransportClosed = errors.New("memory: transport closed")
	ErrConnRefused     = errors.New("memory: connection refused")
	ErrAddrInUse       = errors.New("memory: address already in use")
)
