package tls

import "errors"

var (
	ErrNilIdentity          = errors.New("tls: identity is nil")
	ErrInvalidCertificate   = errors.New("tls: invalid certificate")
	ErrNoPublicKeyExtension = errors.New("tls: certificate has no public key extension")
	ErrInvalidSignature     = errors.New("tls: certificate key not signed by identity key")
	ErrPeerIDMismatch       = errors.New("tls: peer id mismatch")
)
