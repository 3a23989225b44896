package interfaces

import (
	"context"
	"time"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// ConnState 连接所用的协议栈
type ConnState struct {
	Transport string
	Security  string
	Muxer     string

	// Opened 开始拨号或接受原始连接的时刻
	Opened time.Time
}

// CapableConn 已认证、可多路复用的连接
type CapableConn interface {
	MuxedConn

	LocalPeer() types.PeerID
	RemotePeer() types.PeerID
	RemotePublicKey() crypto.PublicKey

	LocalMultiaddr() multiaddr.Multiaddr
	RemoteMultiaddr() multiaddr.Multiaddr

	ConnState() ConnState
}

// Upgrader 将原始连接升级为 CapableConn
type Upgrader interface {
	// Upgrade 依次协商安全协议与多路复用协议
	Upgrade(ctx context.Context, conn RawConn, dir types.Direction, remote types.PeerID) (CapableConn, error)
}

// Stream 连接上的一条协议流
type Stream interface {
	MuxedStream

	// Protocol 返回已协商的协议
	Protocol() types.ProtocolID

	// SetProtocol 记录协商结果
	SetProtocol(types.ProtocolID)

	// ConnID 返回所属连接
	ConnID() types.ConnID

	// RemotePeer 返回对端
	RemotePeer() types.PeerID
}
