package interfaces

import (
	"context"
	"fmt"
	"net"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// Transport 定义传输层接口
//
// Dial/Accept 产出的连接已完成安全握手与多路复用协商。
type Transport interface {
	// Dial 拨号到 raddr；peer 非空时校验对端身份
	Dial(ctx context.Context, raddr multiaddr.Multiaddr, peer types.PeerID) (CapableConn, error)

	// CanDial 检查是否支持拨号到指定地址
	CanDial(addr multiaddr.Multiaddr) bool

	// Listen 在指定地址监听
	Listen(laddr multiaddr.Multiaddr) (Listener, error)

	// Protocols 返回支持的多地址协议代码
	Protocols() []int

	// Close 关闭传输
	Close() error
}

// Listener 定义监听器接口
type Listener interface {
	// Accept 接受新连接
	//
	// 单个入站连接握手失败时返回 *HandshakeError，监听器仍可继续使用；
	// 其他错误表示监听器已不可用。
	Accept() (CapableConn, error)

	// Multiaddr 返回实际绑定地址（端口 0 已替换为系统分配端口）
	Multiaddr() multiaddr.Multiaddr

	// Close 关闭监听器
	Close() error
}

// RawConn 带多地址的原始字节连接
type RawConn interface {
	net.Conn

	LocalMultiaddr() multiaddr.Multiaddr
	RemoteMultiaddr() multiaddr.Multiaddr
}

// HandshakeError 入站连接握手失败
type HandshakeError struct {
	Local  multiaddr.Multiaddr
	Remote multiaddr.Multiaddr
	Err    error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("inbound handshake from %s failed: %v", e.Remote, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}
