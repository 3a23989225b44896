package noise

import "errors"

var (
	ErrNilIdentity      = errors.New("noise: identity is nil")
	ErrNilConn          = errors.New("noise: conn is nil")
	ErrHandshakeFailed  = errors.New("noise: handshake failed")
	ErrInvalidPayload   = errors.New("noise: invalid handshake payload")
	ErrInvalidSignature = errors.New("noise: static key not signed by identity key")
	ErrPeerIDMismatch   = errors.New("noise: peer id mismatch")
	ErrFrameTooLarge    = errors.New("noise: frame too large")
)
