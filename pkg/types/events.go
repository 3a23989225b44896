package types

import (
	"fmt"
	"time"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

// ============================================================================
//                              SwarmEvent - 事件联合类型
// ============================================================================

// EventKind 事件种类名
type EventKind string

const (
	KindListenAddressReported   EventKind = "listen-address-reported"
	KindListenerClosed          EventKind = "listener-closed"
	KindConnectionEstablished   EventKind = "connection-established"
	KindConnectionClosed        EventKind = "connection-closed"
	KindProtocolEvent           EventKind = "protocol-event"
	KindDialError               EventKind = "dial-error"
	KindIncomingConnectionError EventKind = "incoming-connection-error"
	KindListenError             EventKind = "listen-error"
)

// SwarmEvent 节点状态变化事件
//
// 封闭联合类型：只有本包定义的变体实现此接口。
// 每个事件按产生顺序被分发器消费一次。
type SwarmEvent interface {
	Kind() EventKind
	swarmEvent()
}

// Endpoint 连接端点信息
type Endpoint struct {
	Direction Direction
	Local     multiaddr.Multiaddr
	Remote    multiaddr.Multiaddr
}

// AddrError 单个地址的拨号错误
type AddrError struct {
	Addr multiaddr.Multiaddr
	Err  error
}

func (e AddrError) Error() string {
	return fmt.Sprintf("%s: %v", e.Addr, e.Err)
}

func (e AddrError) Unwrap() error {
	return e.Err
}

// ListenAddressReported 监听器绑定了一个具体地址（每个接口一条）
type ListenAddressReported struct {
	ListenerID ListenerID
	Addr       multiaddr.Multiaddr
}

// ListenerClosed 监听器停止，Err 为 nil 表示正常关闭
type ListenerClosed struct {
	ListenerID ListenerID
	Addrs      []multiaddr.Multiaddr
	Err        error
}

// ConnectionEstablished 连接完成安全握手与多路复用协商
type ConnectionEstablished struct {
	Peer     PeerID
	ConnID   ConnID
	Endpoint Endpoint

	// NumEstablished 与该节点的已建立连接数（含本连接）
	NumEstablished int

	// ConcurrentDialErrors 在成功前已失败的并发拨号
	ConcurrentDialErrors []AddrError

	// EstablishedIn 从开始拨号/接受到建立完成的耗时
	EstablishedIn time.Duration
}

// ConnectionClosed 连接关闭，每个连接恰好一次
type ConnectionClosed struct {
	Peer     PeerID
	ConnID   ConnID
	Endpoint Endpoint

	// NumEstablished 与该节点剩余的已建立连接数
	NumEstablished int

	Cause CloseCause
}

// ProtocolEvent 流协议产生的结果（目前只有 ping）
type ProtocolEvent struct {
	Peer     PeerID
	ConnID   ConnID
	Protocol ProtocolID
	Ping     PingOutcome
}

// DialError 出站拨号失败
type DialError struct {
	ConnID ConnID
	// Peer 拨号地址带 /p2p 时非空
	Peer PeerID
	Addr multiaddr.Multiaddr
	Err  error
}

// IncomingConnectionError 入站连接在握手阶段失败
type IncomingConnectionError struct {
	ListenerID ListenerID
	ConnID     ConnID
	Local      multiaddr.Multiaddr
	Remote     multiaddr.Multiaddr
	Err        error
}

// ListenError 监听器运行时错误
type ListenError struct {
	ListenerID ListenerID
	Err        error
}

func (ListenAddressReported) Kind() EventKind   { return KindListenAddressReported }
func (ListenerClosed) Kind() EventKind          { return KindListenerClosed }
func (ConnectionEstablished) Kind() EventKind   { return KindConnectionEstablished }
func (ConnectionClosed) Kind() EventKind        { return KindConnectionClosed }
func (ProtocolEvent) Kind() EventKind           { return KindProtocolEvent }
func (DialError) Kind() EventKind               { return KindDialError }
func (IncomingConnectionError) Kind() EventKind { return KindIncomingConnectionError }
func (ListenError) Kind() EventKind             { return KindListenError }

func (ListenAddressReported) swarmEvent()   {}
func (ListenerClosed) swarmEvent()          {}
func (ConnectionEstablished) swarmEvent()   {}
func (ConnectionClosed) swarmEvent()        {}
func (ProtocolEvent) swarmEvent()           {}
func (DialError) swarmEvent()               {}
func (IncomingConnectionError) swarmEvent() {}
func (ListenError) swarmEvent()             {}

// ============================================================================
//                              CloseCause - 关闭原因
// ============================================================================

// CloseReason 关闭原因分类
type CloseReason int

const (
	// CloseLocal 本地主动关闭
	CloseLocal CloseReason = iota
	// CloseIdleTimeout 空闲超时
	CloseIdleTimeout
	// CloseTransportError 传输层错误（多路复用会话失效）
	CloseTransportError
	// CloseRemote 对端关闭
	CloseRemote
	// ClosePingFailures 连续 ping 失败达到上限
	ClosePingFailures
	// CloseShutdown 节点关闭
	CloseShutdown
)

// String 返回原因名称
func (r CloseReason) String() string {
	switch r {
	case CloseLocal:
		return "local-close"
	case CloseIdleTimeout:
		return "idle-timeout"
	case CloseTransportError:
		return "transport-error"
	case CloseRemote:
		return "remote-close"
	case ClosePingFailures:
		return "ping-failures"
	case CloseShutdown:
		return "swarm-shutdown"
	default:
		return "unknown"
	}
}

// CloseCause 连接关闭原因
type CloseCause struct {
	Reason CloseReason
	// Err 仅 CloseTransportError 时非空
	Err error
}

func (c CloseCause) String() string {
	if c.Err != nil {
		return fmt.Sprintf("%s: %v", c.Reason, c.Err)
	}
	return c.Reason.String()
}
