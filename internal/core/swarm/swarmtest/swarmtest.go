// Package swarmtest 提供基于进程内传输的 Swarm 测试辅助
package swarmtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport/memory"
	"github.com/dep2p/go-dep2p-ping/internal/core/upgrader"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// EventTimeout 等待单个事件的上限
const EventTimeout = 5 * time.Second

// Node 测试节点
type Node struct {
	Swarm  *swarm.Swarm
	Events *eventbus.Queue
}

// NewNode 创建只带进程内传输的测试节点，测试结束时关闭
func NewNode(tb testing.TB, opts ...swarm.Option) *Node {
	tb.Helper()
	u, id := upgrader.NewForTest(tb)
	tr := memory.New(u)
	q := eventbus.NewQueue()
	s, err := swarm.New(id.PeerID(), []pkgif.Transport{tr}, q, opts...)
	require.NoError(tb, err)
	tb.Cleanup(func() {
		s.Close()
		tr.Close()
		q.Close()
	})
	return &Node{Swarm: s, Events: q}
}

// Listen 在进程内地址上监听，返回带 /p2p 的拨号地址
func (n *Node) Listen(tb testing.TB) multiaddr.Multiaddr {
	tb.Helper()
	_, err := n.Swarm.Listen(multiaddr.StringCast("/memory/0"))
	require.NoError(tb, err)
	ev := NextEvent[types.ListenAddressReported](tb, n.Events, nil)
	p2p, err := multiaddr.NewComponent("p2p", n.Swarm.LocalPeer().String())
	require.NoError(tb, err)
	return ev.Addr.Encapsulate(p2p)
}

// Connect 让 from 拨号 to，返回 (to 侧入站连接, from 侧出站连接)
func Connect(tb testing.TB, to, from *Node) (*swarm.Conn, *swarm.Conn) {
	tb.Helper()
	addr := to.Listen(tb)

	id, err := from.Swarm.Dial(context.Background(), addr)
	require.NoError(tb, err)
	NextEvent(tb, from.Events, func(e types.ConnectionEstablished) bool { return e.ConnID == id })
	in := NextEvent(tb, to.Events, func(e types.ConnectionEstablished) bool {
		return e.Peer == from.Swarm.LocalPeer()
	})

	out, ok := from.Swarm.Conn(id)
	require.True(tb, ok)
	inbound, ok := to.Swarm.Conn(in.ConnID)
	require.True(tb, ok)
	return inbound, out
}

// NextEvent 取出下一个满足条件的 T 类型事件，跳过其他事件
func NextEvent[T types.SwarmEvent](tb testing.TB, q *eventbus.Queue, match func(T) bool) T {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), EventTimeout)
	defer cancel()
	for {
		ev, err := q.Next(ctx)
		require.NoError(tb, err, "waiting for %T", *new(T))
		if e, ok := ev.(T); ok && (match == nil || match(e)) {
			return e
		}
	}
}
