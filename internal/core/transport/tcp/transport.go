// Package tcp 实现 TCP 传输
//
// 原始 TCP 连接经 Upgrader 完成安全握手与多路复用后才交给上层。
package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport/upgrade"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/transport/tcp")

var _ pkgif.Transport = (*Transport)(nil)

// Transport TCP 传输
type Transport struct {
	cfg      config.TCPConfig
	upgrader pkgif.Upgrader

	mu        sync.Mutex
	listeners map[*upgrade.Listener]struct{}
	closed    bool
}

// New 创建 TCP 传输
func New(cfg config.TCPConfig, upgrader pkgif.Upgrader) *Transport {
	return &Transport{
		cfg:       cfg,
		upgrader:  upgrader,
		listeners: make(map[*upgrade.Listener]struct{}),
	}
}

// CanDial 接受 /ip4|ip6|dns*/.../tcp/<port>，不含 /ws 等上层协议
func (t *Transport) CanDial(addr multiaddr.Multiaddr) bool {
	comps := addr.Components()
	if len(comps) != 2 || comps[1].Protocol.Code != multiaddr.P_TCP {
		return false
	}
	switch comps[0].Protocol.Code {
	case multiaddr.P_IP4, multiaddr.P_IP6, multiaddr.P_DNS, multiaddr.P_DNS4, multiaddr.P_DNS6:
		return true
	}
	return false
}

// Dial 建立 TCP 连接并升级
func (t *Transport) Dial(ctx context.Context, raddr multiaddr.Multiaddr, peer types.PeerID) (pkgif.CapableConn, error) {
	if t.isClosed() {
		return nil, ErrTransportClosed
	}
	network, address, err := multiaddr.ToNetAddr(raddr)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{KeepAlive: t.cfg.KeepAlive.Duration()}
	c, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}
	t.tune(c)

	rc, err := upgrade.WrapNetConn(c, nil)
	if err != nil {
		c.Close()
		return nil, err
	}
	return t.upgrader.Upgrade(ctx, rc, types.DirOutbound, peer)
}

// Listen 在 laddr 上监听
func (t *Transport) Listen(laddr multiaddr.Multiaddr) (pkgif.Listener, error) {
	network, address, err := multiaddr.ToNetAddr(laddr)
	if err != nil {
		return nil, err
	}
	if multiaddr.IsDNS(laddr) {
		return nil, fmt.Errorf("cannot listen on dns address %s", laddr)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}

	nl, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	maddr, err := multiaddr.FromNetAddr(nl.Addr())
	if err != nil {
		nl.Close()
		return nil, err
	}

	rl := &rawListener{Listener: nl, addr: maddr, tune: t.tune}
	l := upgrade.NewListener(rl, t.upgrader)
	rl.onClose = func() { t.removeListener(l) }
	t.listeners[l] = struct{}{}

	logger.Debug("TCP 监听", "addr", maddr)
	return l, nil
}

// Protocols 返回支持的协议代码
func (t *Transport) Protocols() []int {
	return []int{multiaddr.P_TCP}
}

// Close 关闭传输及其全部监听器
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	ls := make([]*upgrade.Listener, 0, len(t.listeners))
	for l := range t.listeners {
		ls = append(ls, l)
	}
	t.mu.Unlock()

	for _, l := range ls {
		l.Close()
	}
	return nil
}

func (t *Transport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Transport) removeListener(l *upgrade.Listener) {
	t.mu.Lock()
	delete(t.listeners, l)
	t.mu.Unlock()
}

func (t *Transport) tune(c net.Conn) {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tc.SetNoDelay(t.cfg.NoDelay)
	if ka := t.cfg.KeepAlive.Duration(); ka > 0 {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(ka)
	}
}
