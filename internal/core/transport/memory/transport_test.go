package memory

import (
	"context"
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

func TestTransport_ListenAndDial(t *testing.T) {
	server := newTransport(t)
	client := newTransport(t)

	l, err := server.Listen(multiaddr.StringCast("/memory/0"))
	require.NoError(t, err)
	defer l.Close()
	assert.NotEqual(t, "/memory/0", l.Multiaddr().String())

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

	sc := <-accepted
	defer sc.Close()
	assert.Equal(t, sc.LocalPeer(), cc.RemotePeer())
	assert.Equal(t, "memory", cc.ConnState().Transport)
	assert.True(t, cc.RemoteMultiaddr().Equal(l.Multiaddr()))
	assert.True(t, sc.RemoteMultiaddr().Equal(cc.LocalMultiaddr()))
}

func TestTransport_DialNoListener(t *testing.T) {
	tr := newTransport(t)
	_, err := tr.Dial(context.Background(), multiaddr.StringCast("/memory/12345"), "")
	assert.ErrorIs(t, err, ErrConnRefused)
}

func TestTransport_AddrInUse(t *testing.T) {
	tr := newTransport(t)
	l, err := tr.Listen(multiaddr.StringCast("/memory/777"))
	require.NoError(t, err)

	_, err = tr.Listen(multiaddr.StringCast("/memory/777"))
	assert.ErrorIs(t, err, ErrAddrInUse)

	// 关闭后地址可重用
	require.NoError(t, l.Close())
	l2, err := tr.Listen(multiaddr.StringCast("/memory/777"))
	require.NoError(t, err)
	l2.Close()
}

func TestTransport_CanDial(t *testing.T) {
	tr := newTransport(t)
	assert.True(t, tr.CanDial(multiaddr.StringCast("/memory/1")))
	assert.False(t, tr.CanDial(multiaddr.StringCast("/ip4/127.0.0.1/tcp/1")))
}
