package multiaddr

import "errors"

var (
	// ErrEmptyAddress 空地址
	ErrEmptyAddress = errors.New("empty multiaddr")

	// ErrInvalidMultiaddr 地址格式错误
	ErrInvalidMultiaddr = errors.New("invalid multiaddr")

	// ErrUnknownProtocol 未知协议
	ErrUnknownProtocol = errors.New("unknown protocol")

	// ErrProtocolNotFound 地址中不含指定协议
	ErrProtocolNotFound = errors.New("protocol not found in multiaddr")

	// ErrNotThinWaist 不是 IP+TCP/UDP 形式
	ErrNotThinWaist = errors.New("multiaddr is not an ip+tcp/udp address")
)
