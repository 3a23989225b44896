package quic

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// listener QUIC 监听器
type listener struct {
	ql *quic.Listener
	qt *quic.Transport
	pc *net.UDPConn

	addr      multiaddr.Multiaddr
	localPeer types.PeerID

	once    sync.Once
	closed  chan struct{}
	onClose func()
}

var _ pkgif.Listener = (*listener)(nil)

// Accept 接受已完成 TLS 握手的连接
//
// 证书无法恢复身份时返回 *HandshakeError，监听器继续可用。
func (l *listener) Accept() (pkgif.CapableConn, error) {
	qc, err := l.ql.Accept(context.Background())
	if err != nil {
		if l.isClosed() || errors.Is(err, quic.ErrServerClosed) {
			return nil, net.ErrClosed
		}
		return nil, err
	}
	c, err := newConn(qc, l.localPeer, time.Now())
	if err != nil {
		_ = qc.CloseWithError(1, "identity")
		remote, _ := multiaddr.FromNetAddr(qc.RemoteAddr())
		return nil, &pkgif.HandshakeError{Local: l.addr, Remote: remote, Err: err}
	}
	return c, nil
}

func (l *listener) Multiaddr() multiaddr.Multiaddr {
	return l.addr
}

// Close 关闭监听器及其 UDP socket
func (l *listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.closed)
		err = l.ql.Close()
		l.qt.Close()
		l.pc.Close()
		if l.onClose != nil {
			l.onClose()
		}
	})
	return err
}

func (l *listener) isClosed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}
