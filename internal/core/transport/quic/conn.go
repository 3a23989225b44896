package quic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	"github.com/dep2p/go-dep2p-ping/internal/core/security/tls"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// conn QUIC 连接，自带 TLS 1.3 与原生流
type conn struct {
	qc *quic.Conn

	localPeer  types.PeerID
	remotePeer types.PeerID
	remotePub  crypto.PublicKey
	localAddr  multiaddr.Multiaddr
	remoteAddr multiaddr.Multiaddr
	opened     time.Time
}

var _ pkgif.CapableConn = (*conn)(nil)

// newConn 由已完成握手的 QUIC 连接构造，从对端证书恢复身份
func newConn(qc *quic.Conn, local types.PeerID, opened time.Time) (*conn, error) {
	pub, err := tls.PubKeyFromCertChain(qc.ConnectionState().TLS.PeerCertificates)
	if err != nil {
		return nil, err
	}
	remote, err := crypto.PeerIDFromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	laddr, err := multiaddr.FromNetAddr(qc.LocalAddr())
	if err != nil {
		return nil, err
	}
	raddr, err := multiaddr.FromNetAddr(qc.RemoteAddr())
	if err != nil {
		return nil, err
	}
	return &conn{
		qc:         qc,
		localPeer:  local,
		remotePeer: remote,
		remotePub:  pub,
		localAddr:  laddr,
		remoteAddr: raddr,
		opened:     opened,
	}, nil
}

func (c *conn) OpenStream(ctx context.Context) (pkgif.MuxedStream, error) {
	s, err := c.qc.OpenStreamSync(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return &stream{s: s}, nil
}

func (c *conn) AcceptStream() (pkgif.MuxedStream, error) {
	s, err := c.qc.AcceptStream(context.Background())
	if err != nil {
		return nil, mapError(err)
	}
	return &stream{s: s}, nil
}

func (c *conn) Close() error {
	return c.qc.CloseWithError(0, "")
}

func (c *conn) IsClosed() bool {
	return c.qc.Context().Err() != nil
}

func (c *conn) LocalPeer() types.PeerID              { return c.localPeer }
func (c *conn) RemotePeer() types.PeerID             { return c.remotePeer }
func (c *conn) RemotePublicKey() crypto.PublicKey    { return c.remotePub }
func (c *conn) LocalMultiaddr() multiaddr.Multiaddr  { return c.localAddr }
func (c *conn) RemoteMultiaddr() multiaddr.Multiaddr { return c.remoteAddr }

func (c *conn) ConnState() pkgif.ConnState {
	return pkgif.ConnState{
		Transport: "quic-v1",
		Security:  protocolids.SecurityTLS,
		Muxer:     "quic",
		Opened:    c.opened,
	}
}

// ============================================================================
//                              流
// ============================================================================

type stream struct {
	s *quic.Stream
}

var _ pkgif.MuxedStream = (*stream)(nil)

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.s.Read(p)
	return n, mapError(err)
}

func (s *stream) Write(p []byte) (int, error) {
	n, err := s.s.Write(p)
	return n, mapError(err)
}

// Close 关闭写端并停止读取
func (s *stream) Close() error {
	s.s.CancelRead(0)
	return s.s.Close()
}

func (s *stream) CloseWrite() error {
	return s.s.Close()
}

func (s *stream) CloseRead() error {
	s.s.CancelRead(0)
	return nil
}

func (s *stream) Reset() error {
	s.s.CancelRead(0)
	s.s.CancelWrite(0)
	return nil
}

func (s *stream) SetDeadline(t time.Time) error      { return s.s.SetDeadline(t) }
func (s *stream) SetReadDeadline(t time.Time) error  { return s.s.SetReadDeadline(t) }
func (s *stream) SetWriteDeadline(t time.Time) error { return s.s.SetWriteDeadline(t) }

// mapError 将 QUIC 错误映射为与 yamux 一致的错误语义
func mapError(err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	var se *quic.StreamError
	if errors.As(err, &se) {
		return fmt.Errorf("%w: %w", muxer.ErrStreamReset, err)
	}
	var ae *quic.ApplicationError
	if errors.As(err, &ae) {
		return fmt.Errorf("%w: %w", muxer.ErrConnClosed, err)
	}
	var ite *quic.IdleTimeoutError
	if errors.As(err, &ite) {
		return fmt.Errorf("%w: %w", muxer.ErrConnClosed, err)
	}
	return err
}
