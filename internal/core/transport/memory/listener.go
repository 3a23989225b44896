package memory

import (
	"context"
	"net"
	"strconv"
	"sync"

	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

type rawListener struct {
	id      uint64
	addr    multiaddr.Multiaddr
	conns   chan pkgif.RawConn
	done    chan struct{}
	once    sync.Once
	onClose func()
}

func newRawListener(id uint64) *rawListener {
	return &rawListener{
		id:    id,
		addr:  memAddr(id),
		conns: make(chan pkgif.RawConn),
		done:  make(chan struct{}),
	}
}

// deliver 将拨号方创建的服务端管道交给监听器
func (l *rawListener) deliver(ctx context.Context, c pkgif.RawConn) error {
	select {
	case l.conns <- c:
		return nil
	case <-l.done:
		return ErrConnRefused
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *rawListener) Accept() (pkgif.RawConn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *rawListener) Multiaddr() multiaddr.Multiaddr {
	return l.addr
}

func (l *rawListener) Close() error {
	l.once.Do(func() {
		close(l.done)
		registryMu.Lock()
		if registry[l.id] == l {
			delete(registry, l.id)
		}
		registryMu.Unlock()
		if l.onClose != nil {
			l.onClose()
		}
	})
	return nil
}

func parseID(addr multiaddr.Multiaddr) (uint64, error) {
	v, err := addr.ValueForProtocol(multiaddr.P_MEMORY)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(v, 10, 64)
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
