package swarm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport/memory"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport/tcp"
	"github.com/dep2p/go-dep2p-ping/internal/core/upgrader"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

const eventTimeout = 5 * time.Second

// newTestSwarm 创建带 TCP 与进程内传输的 Swarm
func newTestSwarm(t *testing.T, opts ...Option) (*Swarm, *eventbus.Queue) {
	t.Helper()
	u, id := upgrader.NewForTest(t)
	transports := []pkgif.Transport{
		tcp.New(config.DefaultTransportConfig().TCP, u),
		memory.New(u),
	}
	q := eventbus.NewQueue()
	s, err := New(id.PeerID(), transports, q, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
		for _, tr := range transports {
			tr.Close()
		}
	})
	return s, q
}

// listenMemory 在进程内地址上监听，返回带 /p2p 的拨号地址
func listenMemory(t *testing.T, s *Swarm, q *eventbus.Queue) multiaddr.Multiaddr {
	t.Helper()
	_, err := s.Listen(multiaddr.StringCast("/memory/0"))
	require.NoError(t, err)
	ev := nextEvent[types.ListenAddressReported](t, q, nil)
	p2p, err := multiaddr.NewComponent("p2p", s.LocalPeer().String())
	require.NoError(t, err)
	return ev.Addr.Encapsulate(p2p)
}

// nextEvent 取出下一个满足条件的 T 类型事件，跳过其他事件
func nextEvent[T types.SwarmEvent](t *testing.T, q *eventbus.Queue, match func(T) bool) T {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	for {
		ev, err := q.Next(ctx)
		require.NoError(t, err, "waiting for %T", *new(T))
		if e, ok := ev.(T); ok && (match == nil || match(e)) {
			return e
		}
	}
}

// connect 让 b 拨号 a，返回双方的连接
func connect(t *testing.T, a *Swarm, qa *eventbus.Queue, b *Swarm, qb *eventbus.Queue) (*Conn, *Conn) {
	t.Helper()
	addr := listenMemory(t, a, qa)

	id, err := b.Dial(context.Background(), addr)
	require.NoError(t, err)
	nextEvent(t, qb, func(e types.ConnectionEstablished) bool { return e.ConnID == id })
	inbound := nextEvent(t, qa, func(e types.ConnectionEstablished) bool { return e.Peer == b.LocalPeer() })

	cb, ok := b.Conn(id)
	require.True(t, ok)
	ca, ok := a.Conn(inbound.ConnID)
	require.True(t, ok)
	return ca, cb
}
