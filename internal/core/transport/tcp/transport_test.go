package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/upgrader"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

func newTransport(t *testing.T) (*Transport, *upgrader.Upgrader) {
	t.Helper()
	u, _ := upgrader.NewForTest(t)
	tr := New(config.DefaultTransportConfig().TCP, u)
	t.Cleanup(func() { tr.Close() })
	return tr, u
}

func TestTransport_CanDial(t *testing.T) {
	tr, _ := newTransport(t)

	tests := []struct {
		addr     string
		expected bool
	}{
		{"/ip4/127.0.0.1/tcp/4001", true},
		{"/ip6/::1/tcp/4001", true},
		{"/dns4/example.com/tcp/4001", true},
		{"/ip4/127.0.0.1/tcp/4001/ws", false},
		{"/ip4/127.0.0.1/udp/4001/quic-v1", false},
		{"/memory/1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tr.CanDial(multiaddr.StringCast(tt.addr)), tt.addr)
	}
	assert.Equal(t, []int{multiaddr.P_TCP}, tr.Protocols())
}

// TestTransport_ListenAndDial 测试监听、拨号与升级后的流通信
func TestTransport_ListenAndDial(t *testing.T) {
	server, _ := newTransport(t)
	client, _ := newTransport(t)

	l, err := server.Listen(multiaddr.StringCast("/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)
	defer l.Close()

	port, err := l.Multiaddr().ValueForProtocol(multiaddr.P_TCP)
	require.NoError(t, err)
	assert.NotEqual(t, "0", port)

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

	assert.Equal(t, sc.LocalPeer(), cc.RemotePeer())
	assert.Equal(t, "tcp", cc.ConnState().Transport)
	assert.True(t, l.Multiaddr().Equal(cc.RemoteMultiaddr()))

	go func() {
		s, err := sc.AcceptStream()
		if err != nil {
			return
		}
		_, _ = io.Copy(s, s)
	}()
	s, err := cc.OpenStream(ctx)
	require.NoError(t, err)
	_, err = s.Write([]byte("hi"))
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf))
}

func TestTransport_DialRefused(t *testing.T) {
	tr, _ := newTransport(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := tr.Dial(ctx, multiaddr.StringCast("/ip4/127.0.0.1/tcp/1"), "")
	require.Error(t, err)
}

// TestListener_HandshakeErrorKeepsListening 测试握手失败不影响后续连接
func TestListener_HandshakeErrorKeepsListening(t *testing.T) {
	server, _ := newTransport(t)
	client, _ := newTransport(t)

	l, err := server.Listen(multiaddr.StringCast("/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)
	defer l.Close()
	_, addr, err := multiaddr.ToNetAddr(l.Multiaddr())
	require.NoError(t, err)

	// 发送垃圾后断开
	raw, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, _ = raw.Write([]byte("garbage\n"))
	raw.Close()

	_, err = l.Accept()
	var he *pkgif.HandshakeError
	require.True(t, errors.As(err, &he), "got %v", err)

	done := make(chan error, 1)
	go func() {
		c, err := l.Accept()
		if c != nil {
			c.Close()
		}
		done <- err
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cc, err := client.Dial(ctx, l.Multiaddr(), "")
	require.NoError(t, err)
	defer cc.Close()
	require.NoError(t, <-done)
}

func TestTransport_Close(t *testing.T) {
	tr, _ := newTransport(t)
	l, err := tr.Listen(multiaddr.StringCast("/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	_, err = l.Accept()
	assert.ErrorIs(t, err, net.ErrClosed)

	_, err = tr.Listen(multiaddr.StringCast("/ip4/127.0.0.1/tcp/0"))
	assert.ErrorIs(t, err, ErrTransportClosed)
	assert.NoError(t, tr.Close())
}
