// Package upgrader 将原始字节连接升级为已认证的多路复用连接
//
// 升级流程：
//  1. multistream-select 协商安全协议
//  2. 安全握手（Noise / TLS），得到对端 PeerID
//  3. multistream-select 协商多路复用器
//  4. 建立 yamux 会话
//
// 整个流程受握手超时约束，任何一步失败都会关闭原始连接。
package upgrader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/upgrader")

var _ pkgif.Upgrader = (*Upgrader)(nil)

// Upgrader 连接升级器
type Upgrader struct {
	security         []pkgif.SecureTransport
	muxer            pkgif.StreamMuxer
	handshakeTimeout time.Duration
}

// New 创建连接升级器，security 按优先顺序排列
func New(security []pkgif.SecureTransport, muxer pkgif.StreamMuxer, handshakeTimeout time.Duration) (*Upgrader, error) {
	if len(security) == 0 {
		return nil, ErrNoSecurityTransport
	}
	if muxer == nil {
		return nil, ErrNoStreamMuxer
	}
	return &Upgrader{
		security:         security,
		muxer:            muxer,
		handshakeTimeout: handshakeTimeout,
	}, nil
}

// Upgrade 升级连接
//
// 出站方向 remote 非空时校验对端身份；入站方向 remote 通常为空，
// 由握手结果决定。失败时 conn 已被关闭。
func (u *Upgrader) Upgrade(ctx context.Context, conn pkgif.RawConn, dir types.Direction, remote types.PeerID) (pkgif.CapableConn, error) {
	opened := time.Now()
	if u.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.handshakeTimeout)
		defer cancel()
	}
	isServer := dir == types.DirInbound

	// ctx 取消时打断阻塞的协商读写
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	st, err := u.negotiateSecurity(conn, isServer)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: security: %w", ErrNegotiationFailed, contextErr(ctx, err))
	}

	var sc pkgif.SecureConn
	if isServer {
		sc, err = st.SecureInbound(ctx, conn, remote)
	} else {
		sc, err = st.SecureOutbound(ctx, conn, remote)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrHandshakeFailed, st.ID(), contextErr(ctx, err))
	}

	if err := u.negotiateMuxer(sc, isServer); err != nil {
		sc.Close()
		return nil, fmt.Errorf("%w: muxer: %w", ErrNegotiationFailed, contextErr(ctx, err))
	}

	if !stop() {
		// 超时恰好在协商完成时触发
		sc.Close()
		return nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, ctx.Err())
	}
	_ = conn.SetDeadline(time.Time{})

	mc, err := u.muxer.NewConn(sc, isServer)
	if err != nil {
		sc.Close()
		return nil, fmt.Errorf("%w: %w", ErrMuxerSetupFailed, err)
	}

	logger.Debug("连接升级成功",
		"direction", dir,
		"remotePeer", sc.RemotePeer().ShortString(),
		"security", st.ID(),
		"muxer", u.muxer.ID())

	return &capableConn{
		MuxedConn:  mc,
		secure:     sc,
		localAddr:  conn.LocalMultiaddr(),
		remoteAddr: conn.RemoteMultiaddr(),
		state: pkgif.ConnState{
			Transport: TransportName(conn.LocalMultiaddr()),
			Security:  st.ID(),
			Muxer:     u.muxer.ID(),
			Opened:    opened,
		},
	}, nil
}

// contextErr 握手被 ctx 打断时优先报告 ctx 错误
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return err
}

// TransportName 从多地址推断传输名称
func TransportName(addr multiaddr.Multiaddr) string {
	switch {
	case addr == nil:
		return ""
	case multiaddr.HasProtocol(addr, multiaddr.P_WS):
		return "ws"
	case multiaddr.HasProtocol(addr, multiaddr.P_QUIC_V1):
		return "quic-v1"
	case multiaddr.HasProtocol(addr, multiaddr.P_MEMORY):
		return "memory"
	case multiaddr.HasProtocol(addr, multiaddr.P_TCP):
		return "tcp"
	}
	return ""
}

// ============================================================================
//                              Fx 模块
// ============================================================================

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config
	Security []pkgif.SecureTransport
	Muxer    pkgif.StreamMuxer
}

// ProvideUpgrader 提供升级器
func ProvideUpgrader(in ModuleInput) (pkgif.Upgrader, error) {
	return New(in.Security, in.Muxer, in.Config.Security.HandshakeTimeout.Duration())
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("upgrader",
		fx.Provide(ProvideUpgrader),
	)
}
