// Package memory 实现进程内传输（/memory/<id>）
//
// 连接由 net.Pipe 构成，同样经过安全握手与多路复用升级，
// 用于在不占用网络端口的情况下测试完整协议栈。
package memory

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-dep2p-ping/internal/core/transport/upgrade"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// ============================================================================
//                              进程内注册表
// ============================================================================

var (
	registryMu sync.Mutex
	registry   = make(map[uint64]*rawListener)

	// nextID 自动分配的地址 ID，从高位开始以避开手工指定的小编号
	nextID atomic.Uint64
)

func init() {
	nextID.Store(1 << 32)
}

func memAddr(id uint64) multiaddr.Multiaddr {
	m, _ := multiaddr.NewComponent("memory", formatID(id))
	return m
}

// ============================================================================
//                              Transport
// ============================================================================

var _ pkgif.Transport = (*Transport)(nil)

// Transport 进程内传输
type Transport struct {
	upgrader pkgif.Upgrader

	mu        sync.Mutex
	listeners map[*upgrade.Listener]struct{}
	closed    bool
}

// New 创建进程内传输
func New(upgrader pkgif.Upgrader) *Transport {
	return &Transport{
		upgrader:  upgrader,
		listeners: make(map[*upgrade.Listener]struct{}),
	}
}

// CanDial 仅接受单组件 /memory/<id>
func (t *Transport) CanDial(addr multiaddr.Multiaddr) bool {
	comps := addr.Components()
	return len(comps) == 1 && comps[0].Protocol.Code == multiaddr.P_MEMORY
}

// Dial 连接到同进程中监听 raddr 的监听器
func (t *Transport) Dial(ctx context.Context, raddr multiaddr.Multiaddr, peer types.PeerID) (pkgif.CapableConn, error) {
	id, err := parseID(raddr)
	if err != nil {
		return nil, err
	}
	registryMu.Lock()
	rl, ok := registry[id]
	registryMu.Unlock()
	if !ok {
		return nil, ErrConnRefused
	}

	local := memAddr(nextID.Add(1))
	c1, c2 := net.Pipe()
	if err := rl.deliver(ctx, upgrade.NewRawConn(c2, raddr, local)); err != nil {
		c1.Close()
		c2.Close()
		return nil, err
	}
	return t.upgrader.Upgrade(ctx, upgrade.NewRawConn(c1, local, raddr), types.DirOutbound, peer)
}

// Listen 在 /memory/<id> 上监听，id 为 0 时自动分配
func (t *Transport) Listen(laddr multiaddr.Multiaddr) (pkgif.Listener, error) {
	id, err := parseID(laddr)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, ErrTransportClosed
	}

	registryMu.Lock()
	if id == 0 {
		id = nextID.Add(1)
	}
	if _, ok := registry[id]; ok {
		registryMu.Unlock()
		return nil, ErrAddrInUse
	}
	rl := newRawListener(id)
	registry[id] = rl
	registryMu.Unlock()

	l := upgrade.NewListener(rl, t.upgrader)
	rl.onClose = func() {
		t.mu.Lock()
		delete(t.listeners, l)
		t.mu.Unlock()
	}
	t.listeners[l] = struct{}{}
	return l, nil
}

// Protocols 返回支持的协议代码
func (t *Transport) Protocols() []int {
	return []int{multiaddr.P_MEMORY}
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
