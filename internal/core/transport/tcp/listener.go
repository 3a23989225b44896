package tcp

import (
	"net"

	"github.com/dep2p/go-dep2p-ping/internal/core/transport/upgrade"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

// rawListener 产出原始 TCP 连接
type rawListener struct {
	net.Listener

	addr    multiaddr.Multiaddr
	tune    func(net.Conn)
	onClose func()
}

func (l *rawListener) Accept() (pkgif.RawConn, error) {
	for {
		c, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}
		l.tune(c)
		rc, err := upgrade.WrapNetConn(c, nil)
		if err != nil {
			logger.Debug("丢弃无法识别地址的连接", "error", err)
			c.Close()
			continue
		}
		return rc, nil
	}
}

func (l *rawListener) Multiaddr() multiaddr.Multiaddr {
	return l.addr
}

func (l *rawListener) Close() error {
	if l.onClose != nil {
		l.onClose()
	}
	return l.Listener.Close()
}
