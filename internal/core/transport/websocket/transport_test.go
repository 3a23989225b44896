package websocket

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/internal/core/upgrader"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

func newTransport(t *testing.T) *Transport {
	t.Helper()
	u, _ := upgrader.NewForTest(t)
	tr := New(u)
	t.Cleanup(func() { tr.Close() })
	return tr
}

func TestTransport_CanDial(t *testing.T) {
	tr := newTransport(t)
	assert.True(t, tr.CanDial(multiaddr.StringCast("/ip4/127.0.0.1/tcp/80/ws")))
	assert.True(t, tr.CanDial(multiaddr.StringCast("/dns/example.com/tcp/80/ws")))
	assert.False(t, tr.CanDial(multiaddr.StringCast("/ip4/127.0.0.1/tcp/80")))
	assert.False(t, tr.CanDial(multiaddr.StringCast("/ip4/127.0.0.1/udp/80/quic-v1")))
}

// TestTransport_ListenAndDial 测试 WebSocket 上的完整升级与大块数据传输
func TestTransport_ListenAndDial(t *testing.T) {
	server := newTransport(t)
	client := newTransport(t)

	l, err := server.Listen(multiaddr.StringCast("/ip4/127.0.0.1/tcp/0/ws"))
	require.NoError(t, err)
	defer l.Close()
	assert.True(t, multiaddr.HasProtocol(l.Multiaddr(), multiaddr.P_WS))

	accepted := make(chan pkgif.CapableConn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cc, err := client.Dial(ctx, l.Multiaddr(), "")
	require.NoError(t, err)
	defer cc.Close()

	var sc pkgif.CapableConn
	select {
	case sc = <-accepted:
	case <-ctx.Done():
		t.Fatal("accept timeout")
	}
	defer sc.Close()

	assert.Equal(t, "ws", cc.ConnState().Transport)
	assert.Equal(t, sc.LocalPeer(), cc.RemotePeer())
	assert.True(t, multiaddr.HasProtocol(sc.RemoteMultiaddr(), multiaddr.P_WS))

	go func() {
		s, err := sc.AcceptStream()
		if err != nil {
			return
		}
		_, _ = io.Copy(s, s)
	}()
	s, err := cc.OpenStream(ctx)
	require.NoError(t, err)
	payload := bytes.Repeat([]byte("x"), 100_000)
	go func() { _, _ = s.Write(payload) }()
	got := make([]byte, len(payload))
	_, err = io.ReadFull(s, got)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestTransport_ListenRequiresWS(t *testing.T) {
	tr := newTransport(t)
	_, err := tr.Listen(multiaddr.StringCast("/ip4/127.0.0.1/tcp/0"))
	assert.Error(t, err)
}
