package swarm

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var (
	// ErrSwarmClosed Swarm 已关闭
	ErrSwarmClosed = errors.New("swarm closed")

	// ErrNoAddresses 没有可拨号的地址
	ErrNoAddresses = errors.New("no addresses")

	// ErrNoTransport 没有可用传输层
	ErrNoTransport = errors.New("no transport for address")

	// ErrNoConnection 连接不存在
	ErrNoConnection = errors.New("no such connection")

	// ErrConnClosed 连接已关闭
	ErrConnClosed = errors.New("connection closed")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("invalid config")

	// ErrDialToSelf 尝试拨号自己
	ErrDialToSelf = errors.New("dial to self attempted")
)

// DialError 拨号错误，包含每个地址的错误信息
type DialError struct {
	Peer   types.PeerID
	Addr   multiaddr.Multiaddr
	Errors []error
}

func (e *DialError) Error() string {
	target := "<nil>"
	if e.Addr != nil {
		target = e.Addr.String()
	}
	switch len(e.Errors) {
	case 0:
		return fmt.Sprintf("failed to dial %s: unknown error", target)
	case 1:
		return fmt.Sprintf("failed to dial %s: %v", target, e.Errors[0])
	default:
		return fmt.Sprintf("failed to dial %s: %d errors: %v", target, len(e.Errors), e.Errors)
	}
}

// Unwrap 返回全部地址错误
func (e *DialError) Unwrap() []error {
	return e.Errors
}
