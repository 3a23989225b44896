package quic

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	"github.com/dep2p/go-dep2p-ping/internal/core/security/tls"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

func newTransport(t *testing.T) (*Transport, *identity.Identity) {
	t.Helper()
	id, err := identity.Generate(crypto.KeyTypeEd25519)
	require.NoError(t, err)
	ti, err := tls.NewIdentity(id)
	require.NoError(t, err)
	tr := New(id.PeerID(), ti)
	t.Cleanup(func() { tr.Close() })
	return tr, id
}

func connPair(t *testing.T) (pkgif.CapableConn, pkgif.CapableConn, *identity.Identity, *identity.Identity) {
	t.Helper()
	server, sid := newTransport(t)
	client, cid := newTransport(t)

	l, err := server.Listen(multiaddr.StringCast("/ip4/127.0.0.1/udp/0/quic-v1"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	accepted := make(chan pkgif.CapableConn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cc, err := client.Dial(ctx, l.Multiaddr(), sid.PeerID())
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })

	select {
	case sc := <-accepted:
		t.Cleanup(func() { sc.Close() })
		return cc, sc, cid, sid
	case <-ctx.Done():
		t.Fatal("accept timeout")
	}
	return nil, nil, nil, nil
}

func TestTransport_CanDial(t *testing.T) {
	tr, _ := newTransport(t)
	assert.True(t, tr.CanDial(multiaddr.StringCast("/ip4/127.0.0.1/udp/4001/quic-v1")))
	assert.False(t, tr.CanDial(multiaddr.StringCast("/ip4/127.0.0.1/tcp/4001")))
	assert.False(t, tr.CanDial(multiaddr.StringCast("/ip4/127.0.0.1/udp/4001")))
}

// TestTransport_Handshake 测试双向身份与流通信
func TestTransport_Handshake(t *testing.T) {
	cc, sc, cid, sid := connPair(t)

	assert.Equal(t, sid.PeerID(), cc.RemotePeer())
	assert.Equal(t, cid.PeerID(), sc.RemotePeer())
	assert.Equal(t, "quic-v1", cc.ConnState().Transport)
	assert.True(t, multiaddr.HasProtocol(cc.RemoteMultiaddr(), multiaddr.P_QUIC_V1))

	go func() {
		s, err := sc.AcceptStream()
		if err != nil {
			return
		}
		_, _ = io.Copy(s, s)
		s.Close()
	}()
	s, err := cc.OpenStream(context.Background())
	require.NoError(t, err)
	_, err = s.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestTransport_PeerMismatch(t *testing.T) {
	server, _ := newTransport(t)
	client, _ := newTransport(t)
	_, other := newTransport(t)

	l, err := server.Listen(multiaddr.StringCast("/ip4/127.0.0.1/udp/0/quic-v1"))
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = client.Dial(ctx, l.Multiaddr(), other.PeerID())
	assert.Error(t, err)
}

func TestConn_CloseEndsAccept(t *testing.T) {
	cc, sc, _, _ := connPair(t)

	require.NoError(t, cc.Close())
	assert.True(t, cc.IsClosed())

	_, err := sc.AcceptStream()
	assert.ErrorIs(t, err, muxer.ErrConnClosed)
}
