// Package tls 实现 TLS 1.3 安全传输（/tls/1.0.0）
//
// 身份通过自签名证书中的扩展传递：扩展携带身份公钥，
// 并用身份私钥对证书公钥签名。对端由扩展中的公钥派生 PeerID。
package tls

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/security/tls")

// Transport TLS 安全传输
type Transport struct {
	localPeer types.PeerID
	identity  *Identity
}

var _ pkgif.SecureTransport = (*Transport)(nil)

// New 创建 TLS 传输
func New(id *identity.Identity) (*Transport, error) {
	if id == nil {
		return nil, ErrNilIdentity
	}
	ti, err := NewIdentity(id)
	if err != nil {
		return nil, err
	}
	return &Transport{localPeer: id.PeerID(), identity: ti}, nil
}

// ID 返回协议标识
func (t *Transport) ID() string {
	return protocolids.SecurityTLS
}

// Identity 返回证书配置源（供 QUIC 复用）
func (t *Transport) Identity() *Identity {
	return t.identity
}

// SecureInbound 作为服务端握手
func (t *Transport) SecureInbound(ctx context.Context, conn net.Conn, remote types.PeerID) (pkgif.SecureConn, error) {
	return t.handshake(ctx, tls.Server(conn, t.identity.ConfigForPeer(remote)), remote)
}

// SecureOutbound 作为客户端握手
func (t *Transport) SecureOutbound(ctx context.Context, conn net.Conn, remote types.PeerID) (pkgif.SecureConn, error) {
	return t.handshake(ctx, tls.Client(conn, t.identity.ConfigForPeer(remote)), remote)
}

func (t *Transport) handshake(ctx context.Context, tc *tls.Conn, remote types.PeerID) (pkgif.SecureConn, error) {
	if err := tc.HandshakeContext(ctx); err != nil {
		logger.Debug("TLS 握手失败", "remotePeer", remote.ShortString(), "error", err)
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	pub, err := PubKeyFromCertChain(tc.ConnectionState().PeerCertificates)
	if err != nil {
		return nil, err
	}
	id, err := crypto.PeerIDFromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	logger.Debug("TLS 握手成功", "remotePeer", id.ShortString())
	return &conn{Conn: tc, localPeer: t.localPeer, remotePeer: id, remotePub: pub}, nil
}

// conn TLS 安全连接
type conn struct {
	*tls.Conn

	localPeer  types.PeerID
	remotePeer types.PeerID
	remotePub  crypto.PublicKey
}

func (c *conn) LocalPeer() types.PeerID           { return c.localPeer }
func (c *conn) RemotePeer() types.PeerID          { return c.remotePeer }
func (c *conn) RemotePublicKey() crypto.PublicKey { return c.remotePub }
