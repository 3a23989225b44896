// Package upgrade 为字节流传输（TCP、WebSocket、内存）提供共用的升级逻辑
//
// 监听侧并发升级入站连接：单个连接握手缓慢或失败不会阻塞后续连接，
// 失败以 *interfaces.HandshakeError 形式从 Accept 返回。
package upgrade

import (
	"context"
	"net"
	"sync"

	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/transport/upgrade")

// RawListener 产出原始连接的监听器
type RawListener interface {
	Accept() (pkgif.RawConn, error)
	Multiaddr() multiaddr.Multiaddr
	Close() error
}

type acceptResult struct {
	conn pkgif.CapableConn
	err  error
}

// Listener 在 RawListener 之上并发升级入站连接
type Listener struct {
	raw      RawListener
	upgrader pkgif.Upgrader

	ctx    context.Context
	cancel context.CancelFunc

	incoming chan acceptResult
	wg       sync.WaitGroup

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

var _ pkgif.Listener = (*Listener)(nil)

// NewListener 创建升级监听器并开始接受连接
func NewListener(raw RawListener, upgrader pkgif.Upgrader) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		raw:      raw,
		upgrader: upgrader,
		ctx:      ctx,
		cancel:   cancel,
		incoming: make(chan acceptResult),
	}
	go l.acceptLoop()
	return l
}

func (l *Listener) acceptLoop() {
	defer close(l.incoming)
	defer l.wg.Wait()

	for {
		c, err := l.raw.Accept()
		if err != nil {
			l.errMu.Lock()
			l.err = err
			l.errMu.Unlock()
			return
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.upgradeInbound(c)
		}()
	}
}

func (l *Listener) upgradeInbound(c pkgif.RawConn) {
	cc, err := l.upgrader.Upgrade(l.ctx, c, types.DirInbound, "")
	res := acceptResult{conn: cc}
	if err != nil {
		logger.Debug("入站升级失败", "remote", c.RemoteMultiaddr(), "error", err)
		res.err = &pkgif.HandshakeError{
			Local:  c.LocalMultiaddr(),
			Remote: c.RemoteMultiaddr(),
			Err:    err,
		}
	}
	select {
	case l.incoming <- res:
	case <-l.ctx.Done():
		if cc != nil {
			cc.Close()
		}
	}
}

// Accept 返回下一个已升级的连接
//
// 握手失败返回 *HandshakeError，监听器仍然可用。
func (l *Listener) Accept() (pkgif.CapableConn, error) {
	res, ok := <-l.incoming
	if !ok {
		l.errMu.Lock()
		defer l.errMu.Unlock()
		if l.err == nil || l.ctx.Err() != nil {
			return nil, net.ErrClosed
		}
		return nil, l.err
	}
	return res.conn, res.err
}

// Multiaddr 返回实际监听地址
func (l *Listener) Multiaddr() multiaddr.Multiaddr {
	return l.raw.Multiaddr()
}

// Close 关闭监听器，进行中的握手被取消
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.cancel()
		err = l.raw.Close()
	})
	return err
}
