package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/security/tls"
	"github.com/dep2p/go-dep2p-ping/internal/core/upgrader"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

func TestNewManager(t *testing.T) {
	u, id := upgrader.NewForTest(t)
	ti, err := tls.NewIdentity(id)
	require.NoError(t, err)

	cfg := config.DefaultTransportConfig()
	cfg.EnableMemory = true
	m := NewManager(cfg, id, ti, u)
	defer m.Close()

	require.Len(t, m.Transports(), 4)

	canDial := func(addr string) int {
		n := 0
		for _, tr := range m.Transports() {
			if tr.CanDial(multiaddr.StringCast(addr)) {
				n++
			}
		}
		return n
	}
	// 每个地址恰好由一个传输处理
	for _, addr := range []string{
		"/ip4/127.0.0.1/tcp/1",
		"/ip4/127.0.0.1/tcp/1/ws",
		"/ip4/127.0.0.1/udp/1/quic-v1",
		"/memory/1",
	} {
		assert.Equal(t, 1, canDial(addr), addr)
	}
}

func TestNewManager_Subset(t *testing.T) {
	u, id := upgrader.NewForTest(t)
	ti, err := tls.NewIdentity(id)
	require.NoError(t, err)

	m := NewManager(config.TransportConfig{EnableTCP: true}, id, ti, u)
	defer m.Close()
	require.Len(t, m.Transports(), 1)
	assert.Equal(t, []int{multiaddr.P_TCP}, m.Transports()[0].Protocols())
}
