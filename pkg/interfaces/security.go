package interfaces

import (
	"context"
	"net"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// SecureTransport 定义安全握手接口
type SecureTransport interface {
	// ID 返回协议标识，如 /noise
	ID() string

	// SecureInbound 作为响应方完成握手；remote 非空时校验对端身份
	SecureInbound(ctx context.Context, conn net.Conn, remote types.PeerID) (SecureConn, error)

	// SecureOutbound 作为发起方完成握手；remote 非空时校验对端身份
	SecureOutbound(ctx context.Context, conn net.Conn, remote types.PeerID) (SecureConn, error)
}

// SecureConn 已认证加密的连接
type SecureConn interface {
	net.Conn

	LocalPeer() types.PeerID
	RemotePeer() types.PeerID
	RemotePublicKey() crypto.PublicKey
}
