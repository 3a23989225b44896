package upgrade

import (
	"net"

	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

// rawConn 附带多地址的 net.Conn
type rawConn struct {
	net.Conn
	local, remote multiaddr.Multiaddr
}

func (c *rawConn) LocalMultiaddr() multiaddr.Multiaddr  { return c.local }
func (c *rawConn) RemoteMultiaddr() multiaddr.Multiaddr { return c.remote }

// NewRawConn 用给定多地址包装连接
func NewRawConn(c net.Conn, local, remote multiaddr.Multiaddr) pkgif.RawConn {
	return &rawConn{Conn: c, local: local, remote: remote}
}

// WrapNetConn 由连接的网络地址推导多地址，suffix 追加在两端地址之后（如 /ws）
func WrapNetConn(c net.Conn, suffix multiaddr.Multiaddr) (pkgif.RawConn, error) {
	local, err := multiaddr.FromNetAddr(c.LocalAddr())
	if err != nil {
		return nil, err
	}
	remote, err := multiaddr.FromNetAddr(c.RemoteAddr())
	if err != nil {
		return nil, err
	}
	if suffix != nil {
		local = local.Encapsulate(suffix)
		remote = remote.Encapsulate(suffix)
	}
	return NewRawConn(c, local, remote), nil
}
