// Package noise 实现 Noise XX 安全传输（/noise）
//
// 握手与帧格式与 libp2p-noise 兼容：
// Noise_XX_25519_ChaChaPoly_SHA256，每帧 2 字节大端长度前缀。
package noise

import (
	"context"
	"net"
	"time"

	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/security/noise")

// Transport Noise 安全传输
type Transport struct {
	id *identity.Identity
}

var _ pkgif.SecureTransport = (*Transport)(nil)

// New 创建 Noise 传输
func New(id *identity.Identity) (*Transport, error) {
	if id == nil {
		return nil, ErrNilIdentity
	}
	return &Transport{id: id}, nil
}

// ID 返回协议标识
func (t *Transport) ID() string {
	return protocolids.SecurityNoise
}

// SecureInbound 作为响应方握手
func (t *Transport) SecureInbound(ctx context.Context, conn net.Conn, remote types.PeerID) (pkgif.SecureConn, error) {
	return t.handshake(ctx, conn, remote, false)
}

// SecureOutbound 作为发起方握手
func (t *Transport) SecureOutbound(ctx context.Context, conn net.Conn, remote types.PeerID) (pkgif.SecureConn, error) {
	return t.handshake(ctx, conn, remote, true)
}

func (t *Transport) handshake(ctx context.Context, conn net.Conn, remote types.PeerID, initiator bool) (pkgif.SecureConn, error) {
	if conn == nil {
		return nil, ErrNilConn
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(dl); err == nil {
			defer conn.SetDeadline(time.Time{})
		}
	}

	sc, err := performHandshake(conn, t.id.PrivateKey(), remote, initiator)
	if err != nil {
		logger.Debug("Noise 握手失败", "remotePeer", remote.ShortString(), "initiator", initiator, "error", err)
		return nil, err
	}
	logger.Debug("Noise 握手成功", "remotePeer", sc.remotePeer.ShortString(), "initiator", initiator)
	return sc, nil
}
