package types

import "errors"

var (
	// ErrEmptyPeerID PeerID 为空
	ErrEmptyPeerID = errors.New("empty peer ID")

	// ErrInvalidPeerID PeerID 格式无效
	ErrInvalidPeerID = errors.New("invalid peer ID")
)
