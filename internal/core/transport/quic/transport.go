// Package quic 实现 QUIC 传输（/udp/<port>/quic-v1）
//
// QUIC 自带 TLS 1.3 与流多路复用，不经过 Upgrader。
// 证书与对端校验复用 security/tls 的身份证书，因此 PeerID 语义与 TCP 上的 TLS 一致。
package quic

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-dep2p-ping/internal/core/security/tls"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/transport/quic")

var _ pkgif.Transport = (*Transport)(nil)

// Transport QUIC 传输
//
// 每个监听器独占一个 UDP socket；拨号复用首个监听 socket，
// 没有监听器时使用按需创建的拨号 socket。
type Transport struct {
	localPeer types.PeerID
	identity  *tls.Identity
	config    *quic.Config

	mu        sync.Mutex
	listeners map[*listener]struct{}
	dialTr    *quic.Transport
	closed    bool
}

// New 创建 QUIC 传输
func New(localPeer types.PeerID, identity *tls.Identity) *Transport {
	return &Transport{
		localPeer: localPeer,
		identity:  identity,
		config: &quic.Config{
			MaxIdleTimeout:  30 * time.Second,
			KeepAlivePeriod: 15 * time.Second,
		},
		listeners: make(map[*listener]struct{}),
	}
}

// CanDial 接受 /ip4|ip6/.../udp/<port>/quic-v1
func (t *Transport) CanDial(addr multiaddr.Multiaddr) bool {
	comps := addr.Components()
	if len(comps) != 3 || comps[1].Protocol.Code != multiaddr.P_UDP || comps[2].Protocol.Code != multiaddr.P_QUIC_V1 {
		return false
	}
	switch comps[0].Protocol.Code {
	case multiaddr.P_IP4, multiaddr.P_IP6:
		return true
	}
	return false
}

// Dial 建立 QUIC 连接；peer 非空时由证书扩展校验对端身份
func (t *Transport) Dial(ctx context.Context, raddr multiaddr.Multiaddr, peer types.PeerID) (pkgif.CapableConn, error) {
	udpAddr, err := toUDPAddr(raddr)
	if err != nil {
		return nil, err
	}
	qt, err := t.transportForDial()
	if err != nil {
		return nil, err
	}

	opened := time.Now()
	qc, err := qt.Dial(ctx, udpAddr, t.identity.ConfigForPeer(peer), t.config)
	if err != nil {
		return nil, err
	}
	c, err := newConn(qc, t.localPeer, opened)
	if err != nil {
		_ = qc.CloseWithError(1, "identity")
		return nil, err
	}
	return c, nil
}

// Listen 在 laddr 上监听
func (t *Transport) Listen(laddr multiaddr.Multiaddr) (pkgif.Listener, error) {
	udpAddr, err := toUDPAddr(laddr)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}

	network := "udp4"
	if udpAddr.IP.To4() == nil {
		network = "udp6"
	}
	pc, err := net.ListenUDP(network, udpAddr)
	if err != nil {
		return nil, err
	}
	qt := &quic.Transport{Conn: pc}
	ql, err := qt.Listen(t.identity.ConfigForPeer(""), t.config)
	if err != nil {
		qt.Close()
		pc.Close()
		return nil, fmt.Errorf("quic listen: %w", err)
	}
	maddr, err := multiaddr.FromNetAddr(pc.LocalAddr())
	if err != nil {
		ql.Close()
		qt.Close()
		pc.Close()
		return nil, err
	}

	l := &listener{
		ql:        ql,
		qt:        qt,
		pc:        pc,
		addr:      maddr,
		localPeer: t.localPeer,
		closed:    make(chan struct{}),
	}
	l.onClose = func() {
		t.mu.Lock()
		delete(t.listeners, l)
		t.mu.Unlock()
	}
	t.listeners[l] = struct{}{}
	logger.Debug("QUIC 监听", "addr", maddr)
	return l, nil
}

// Protocols 返回支持的协议代码
func (t *Transport) Protocols() []int {
	return []int{multiaddr.P_QUIC_V1}
}

// Close 关闭监听器与拨号 socket，其上的连接一并关闭
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	ls := make([]*listener, 0, len(t.listeners))
	for l := range t.listeners {
		ls = append(ls, l)
	}
	dialTr := t.dialTr
	t.dialTr = nil
	t.mu.Unlock()

	for _, l := range ls {
		l.Close()
	}
	if dialTr != nil {
		dialTr.Close()
		dialTr.Conn.Close()
	}
	return nil
}

func (t *Transport) transportForDial() (*quic.Transport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}
	for l := range t.listeners {
		return l.qt, nil
	}
	if t.dialTr == nil {
		pc, err := net.ListenUDP("udp", &net.UDPAddr{})
		if err != nil {
			return nil, fmt.Errorf("listen udp for dial: %w", err)
		}
		t.dialTr = &quic.Transport{Conn: pc}
	}
	return t.dialTr, nil
}

func toUDPAddr(m multiaddr.Multiaddr) (*net.UDPAddr, error) {
	network, address, err := multiaddr.ToNetAddr(m)
	if err != nil {
		return nil, err
	}
	return net.ResolveUDPAddr(network, address)
}
