package noise

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

func newTransport(t *testing.T, kt crypto.KeyType) (*Transport, *identity.Identity) {
	t.Helper()
	id, err := identity.Generate(kt)
	require.NoError(t, err)
	tr, err := New(id)
	require.NoError(t, err)
	return tr, id
}

type result struct {
	conn pkgif.SecureConn
	err  error
}

func handshakePair(t *testing.T, client, server *Transport, expect types.PeerID) (pkgif.SecureConn, pkgif.SecureConn, error, error) {
	t.Helper()
	c1, c2 := net.Pipe()
	t.Cleanup(func() {
		c1.Close()
		c2.Close()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srvCh := make(chan result, 1)
	go func() {
		sc, err := server.SecureInbound(ctx, c2, "")
		if err != nil {
			c2.Close()
		}
		srvCh <- result{sc, err}
	}()
	cc, cerr := client.SecureOutbound(ctx, c1, expect)
	if cerr != nil {
		c1.Close()
	}
	sr := <-srvCh
	return cc, sr.conn, cerr, sr.err
}

// TestHandshake_Success 测试双向认证握手
func TestHandshake_Success(t *testing.T) {
	for _, kt := range []crypto.KeyType{crypto.KeyTypeEd25519, crypto.KeyTypeSecp256k1} {
		t.Run(kt.String(), func(t *testing.T) {
			client, cid := newTransport(t, kt)
			server, sid := newTransport(t, crypto.KeyTypeEd25519)

			cc, sc, cerr, serr := handshakePair(t, client, server, sid.PeerID())
			require.NoError(t, cerr)
			require.NoError(t, serr)

			assert.Equal(t, sid.PeerID(), cc.RemotePeer())
			assert.Equal(t, cid.PeerID(), sc.RemotePeer())
			assert.Equal(t, cid.PeerID(), cc.LocalPeer())
			assert.True(t, cid.PublicKey().Equals(sc.RemotePublicKey()))
		})
	}
}

// TestSecureConn_ReadWrite 测试加密读写，含跨帧大数据
func TestSecureConn_ReadWrite(t *testing.T) {
	client, _ := newTransport(t, crypto.KeyTypeEd25519)
	server, _ := newTransport(t, crypto.KeyTypeEd25519)
	cc, sc, cerr, serr := handshakePair(t, client, server, "")
	require.NoError(t, cerr)
	require.NoError(t, serr)

	big := bytes.Repeat([]byte("0123456789abcdef"), 10000) // 160000 字节，跨 3 帧
	errCh := make(chan error, 1)
	go func() {
		_, err := cc.Write(big)
		errCh <- err
	}()

	got := make([]byte, len(big))
	_, err := io.ReadFull(sc, got)
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	assert.Equal(t, big, got)

	go func() {
		_, err := sc.Write([]byte("pong"))
		errCh <- err
	}()
	small := make([]byte, 4)
	_, err = io.ReadFull(cc, small)
	require.NoError(t, err)
	require.NoError(t, <-errCh)
	assert.Equal(t, "pong", string(small))
}

// TestHandshake_PeerIDMismatch 测试期望 PeerID 不匹配
func TestHandshake_PeerIDMismatch(t *testing.T) {
	client, _ := newTransport(t, crypto.KeyTypeEd25519)
	server, _ := newTransport(t, crypto.KeyTypeEd25519)
	_, other := newTransport(t, crypto.KeyTypeEd25519)

	_, _, cerr, _ := handshakePair(t, client, server, other.PeerID())
	assert.ErrorIs(t, cerr, ErrPeerIDMismatch)
}

func TestHandshake_Timeout(t *testing.T) {
	client, _ := newTransport(t, crypto.KeyTypeEd25519)
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	go io.Copy(io.Discard, c2) // 对端只读不写

	_, err := client.SecureOutbound(ctx, c1, "")
	require.Error(t, err)
}

func TestPayload_Tampered(t *testing.T) {
	_, id := newTransport(t, crypto.KeyTypeEd25519)
	static := bytes.Repeat([]byte{7}, 32)
	payload, err := encodePayload(id.PrivateKey(), static)
	require.NoError(t, err)

	_, peer, err := verifyPayload(payload, static)
	require.NoError(t, err)
	assert.Equal(t, id.PeerID(), peer)

	other := bytes.Repeat([]byte{8}, 32)
	_, _, err = verifyPayload(payload, other)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, _, err = verifyPayload([]byte{0x0a, 0x01}, static)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestStaticKeypair_Ed25519Deterministic(t *testing.T) {
	_, id := newTransport(t, crypto.KeyTypeEd25519)
	a, err := staticKeypair(id.PrivateKey())
	require.NoError(t, err)
	b, err := staticKeypair(id.PrivateKey())
	require.NoError(t, err)
	assert.Equal(t, a.Public, b.Public)
	assert.Len(t, a.Private, 32)
}

func TestNew_NilIdentity(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilIdentity)
}
