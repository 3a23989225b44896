// Package websocket 实现 WebSocket 传输（/tcp/<port>/ws）
//
// WebSocket 只提供字节通道，安全与多路复用仍由 Upgrader 完成。
package websocket

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/dep2p/go-dep2p-ping/internal/core/transport/upgrade"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/transport/websocket")

var wsComponent = multiaddr.StringCast("/ws")

var _ pkgif.Transport = (*Transport)(nil)

// Transport WebSocket 传输
type Transport struct {
	upgrader pkgif.Upgrader
	dialer   ws.Dialer

	mu        sync.Mutex
	listeners map[*upgrade.Listener]struct{}
	closed    bool
}

// New 创建 WebSocket 传输
func New(upgrader pkgif.Upgrader) *Transport {
	return &Transport{
		upgrader: upgrader,
		dialer: ws.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		listeners: make(map[*upgrade.Listener]struct{}),
	}
}

// CanDial 接受 /ip4|ip6|dns*/.../tcp/<port>/ws
func (t *Transport) CanDial(addr multiaddr.Multiaddr) bool {
	comps := addr.Components()
	if len(comps) != 3 || comps[1].Protocol.Code != multiaddr.P_TCP || comps[2].Protocol.Code != multiaddr.P_WS {
		return false
	}
	switch comps[0].Protocol.Code {
	case multiaddr.P_IP4, multiaddr.P_IP6, multiaddr.P_DNS, multiaddr.P_DNS4, multiaddr.P_DNS6:
		return true
	}
	return false
}

// Dial 建立 WebSocket 连接并升级
func (t *Transport) Dial(ctx context.Context, raddr multiaddr.Multiaddr, peer types.PeerID) (pkgif.CapableConn, error) {
	if t.isClosed() {
		return nil, ErrTransportClosed
	}
	_, address, err := multiaddr.ToNetAddr(raddr.Decapsulate(wsComponent))
	if err != nil {
		return nil, err
	}

	wc, resp, err := t.dialer.DialContext(ctx, "ws://"+address+"/", nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	c := newConn(wc)
	rc, err := upgrade.WrapNetConn(c, wsComponent)
	if err != nil {
		c.Close()
		return nil, err
	}
	return t.upgrader.Upgrade(ctx, rc, types.DirOutbound, peer)
}

// Listen 在 /…/tcp/<port>/ws 上启动 HTTP 服务并接受 WebSocket 升级
func (t *Transport) Listen(laddr multiaddr.Multiaddr) (pkgif.Listener, error) {
	if !multiaddr.HasProtocol(laddr, multiaddr.P_WS) {
		return nil, fmt.Errorf("not a websocket address: %s", laddr)
	}
	network, address, err := multiaddr.ToNetAddr(laddr.Decapsulate(wsComponent))
	if err != nil {
		return nil, err
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
	base, err := multiaddr.FromNetAddr(nl.Addr())
	if err != nil {
		nl.Close()
		return nil, err
	}

	rl := newRawListener(nl, base.Encapsulate(wsComponent))
	l := upgrade.NewListener(rl, t.upgrader)
	rl.onClose = func() {
		t.mu.Lock()
		delete(t.listeners, l)
		t.mu.Unlock()
	}
	t.listeners[l] = struct{}{}

	logger.Debug("WebSocket 监听", "addr", rl.addr)
	return l, nil
}

// Protocols 返回支持的协议代码
func (t *Transport) Protocols() []int {
	return []int{multiaddr.P_WS}
}

// Close 关闭全部监听器
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

// ============================================================================
//                              监听器
// ============================================================================

type rawListener struct {
	addr    multiaddr.Multiaddr
	server  *http.Server
	conns   chan pkgif.RawConn
	done    chan struct{}
	once    sync.Once
	onClose func()
}

func newRawListener(nl net.Listener, addr multiaddr.Multiaddr) *rawListener {
	l := &rawListener{
		addr:  addr,
		conns: make(chan pkgif.RawConn),
		done:  make(chan struct{}),
	}
	up := ws.Upgrader{
		// 对端身份由安全握手认证，不依赖 Origin
		CheckOrigin: func(*http.Request) bool { return true },
	}
	l.server = &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wc, err := up.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			c := newConn(wc)
			rc, err := upgrade.WrapNetConn(c, wsComponent)
			if err != nil {
				c.Close()
				return
			}
			select {
			case l.conns <- rc:
			case <-l.done:
				c.Close()
			}
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		_ = l.server.Serve(nl)
	}()
	return l
}

func (l *rawListener) Accept() (pkgif.RawConn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *rawListener) Multiaddr() multiaddr.Multiaddr {
	return l.addr
}

func (l *rawListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.server.Close()
		if l.onClose != nil {
			l.onClose()
		}
	})
	return err
}
