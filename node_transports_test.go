package dep2p

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// TestNode_Transports 每种传输与安全协议组合都能建立连接并完成 ping
func TestNode_Transports(t *testing.T) {
	tests := []struct {
		name     string
		listen   string
		security string
	}{
		{name: "tcp/noise", listen: "/ip4/127.0.0.1/tcp/0", security: "noise"},
		{name: "tcp/tls", listen: "/ip4/127.0.0.1/tcp/0", security: "tls"},
		{name: "websocket/noise", listen: "/ip4/127.0.0.1/tcp/0/ws", security: "noise"},
		{name: "quic", listen: "/ip4/127.0.0.1/udp/0/quic-v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Transport.EnableQUIC = true
			cfg.Transport.EnableWebSocket = true
			if tt.security != "" {
				cfg.Security.EnableTLS = tt.security == "tls"
				cfg.Security.EnableNoise = tt.security == "noise"
				cfg.Security.PreferredProtocol = tt.security
			}

			a, sinkA := startNodeOn(t, cfg, tt.listen)
			b, sinkB := startNodeOn(t, cfg, tt.listen)

			id, err := b.Dial(context.Background(), dialAddr(t, a))
			require.NoError(t, err)
			waitFor(t, sinkB, func(e types.ConnectionEstablished) bool { return e.ConnID == id })
			estA := waitFor[types.ConnectionEstablished](t, sinkA, nil)
			assert.Equal(t, b.ID(), estA.Peer)

			ping := waitFor(t, sinkB, func(e types.ProtocolEvent) bool { return e.ConnID == id })
			assert.True(t, ping.Ping.OK(), "ping failed: %v", ping.Ping.Err)
		})
	}
}

func TestNode_ListenAddrsFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Swarm.ListenAddrs = []string{"/ip4/127.0.0.1/tcp/0"}

	sink := newChanSink()
	n, err := New(WithConfig(cfg), WithSink(sink))
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(func() { _ = n.Close() })

	ev := waitFor[types.ListenAddressReported](t, sink, nil)
	ip, err := ev.Addr.ValueForProtocol(multiaddr.P_IP4)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)
}

func TestNew_InvalidConfigListenAddr(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Swarm.ListenAddrs = []string{"/ip4/300.0.0.1/tcp/0"}
	_, err := New(WithConfig(cfg))
	assert.ErrorIs(t, err, ErrInvalidOption)
}

// startNodeOn 与 startNode 相同，但监听指定地址
func startNodeOn(t *testing.T, cfg *config.Config, listen string) (*Node, *chanSink) {
	t.Helper()
	sink := newChanSink()
	n, err := New(WithConfig(cfg), WithListenAddrs(listen), WithSink(sink))
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(func() { _ = n.Close() })
	return n, sink
}
