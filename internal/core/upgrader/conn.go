package upgrader

import (
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// capableConn 升级后的连接
type capableConn struct {
	pkgif.MuxedConn

	secure     pkgif.SecureConn
	localAddr  multiaddr.Multiaddr
	remoteAddr multiaddr.Multiaddr
	state      pkgif.ConnState
}

var _ pkgif.CapableConn = (*capableConn)(nil)

func (c *capableConn) LocalPeer() types.PeerID              { return c.secure.LocalPeer() }
func (c *capableConn) RemotePeer() types.PeerID             { return c.secure.RemotePeer() }
func (c *capableConn) RemotePublicKey() crypto.PublicKey    { return c.secure.RemotePublicKey() }
func (c *capableConn) LocalMultiaddr() multiaddr.Multiaddr  { return c.localAddr }
func (c *capableConn) RemoteMultiaddr() multiaddr.Multiaddr { return c.remoteAddr }
func (c *capableConn) ConnState() pkgif.ConnState           { return c.state }
