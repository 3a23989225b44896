package swarm

import (
	"errors"
	"fmt"
	"net"
	"time"

	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// ErrNoListener 监听器不存在
var ErrNoListener = errors.New("no such listener")

type listener struct {
	id    types.ListenerID
	l     pkgif.Listener
	addrs []multiaddr.Multiaddr
}

// Listen 在 addr 上监听
//
// 成功后每个实际绑定地址发出一条 ListenAddressReported：通配 IP
// 展开为每个本机接口地址，端口 0 替换为系统分配的端口。
func (s *Swarm) Listen(addr multiaddr.Multiaddr) (types.ListenerID, error) {
	if s.isClosed() {
		return 0, ErrSwarmClosed
	}
	t := s.transportFor(addr)
	if t == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoTransport, addr)
	}

	l, err := t.Listen(addr)
	if err != nil {
		return 0, fmt.Errorf("listen %s: %w", addr, err)
	}

	id := types.ListenerID(s.nextListenerID.Add(1))
	addrs, err := s.expandListenAddr(l.Multiaddr())
	if err != nil {
		logger.Warn("展开监听地址失败", "addr", l.Multiaddr(), "error", err)
		addrs = []multiaddr.Multiaddr{l.Multiaddr()}
	}
	ln := &listener{id: id, l: l, addrs: addrs}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return 0, ErrSwarmClosed
	}
	s.listeners[id] = ln
	for _, a := range addrs {
		s.emitter.Emit(types.ListenAddressReported{ListenerID: id, Addr: a})
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.acceptLoop(ln)

	logger.Info("监听成功", "listener", id, "addr", l.Multiaddr(), "reported", len(addrs))
	return id, nil
}

// CloseListener 关闭指定监听器，随后发出 ListenerClosed
func (s *Swarm) CloseListener(id types.ListenerID) error {
	s.mu.RLock()
	ln, ok := s.listeners[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoListener, id)
	}
	return ln.l.Close()
}

// ListenAddrs 返回全部已报告的监听地址
func (s *Swarm) ListenAddrs() []multiaddr.Multiaddr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []multiaddr.Multiaddr
	for id := types.ListenerID(1); id <= types.ListenerID(s.nextListenerID.Load()); id++ {
		if ln, ok := s.listeners[id]; ok {
			out = append(out, ln.addrs...)
		}
	}
	return out
}

// expandListenAddr 将通配地址展开为每个接口地址
func (s *Swarm) expandListenAddr(bound multiaddr.Multiaddr) ([]multiaddr.Multiaddr, error) {
	if !multiaddr.IsIPUnspecified(bound) {
		return []multiaddr.Multiaddr{bound}, nil
	}
	want4 := bound.Components()[0].Protocol.Code == multiaddr.P_IP4

	ifaddrs, err := s.interfaceAddrs()
	if err != nil {
		return nil, err
	}
	var out []multiaddr.Multiaddr
	for _, a := range ifaddrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP
		is4 := ip.To4() != nil
		if is4 != want4 {
			continue
		}
		// IPv6 链路本地地址需要 zone 才能拨号
		if !is4 && ip.IsLinkLocalUnicast() {
			continue
		}
		m, err := multiaddr.ReplaceIP(bound, ip)
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return []multiaddr.Multiaddr{bound}, nil
	}
	return out, nil
}

// acceptLoop 接受入站连接
//
// 单个连接握手失败发出 IncomingConnectionError 并继续；
// 监听器不可用时发出 ListenerClosed（异常时先发 ListenError）后退出。
func (s *Swarm) acceptLoop(ln *listener) {
	defer s.wg.Done()

	for {
		cc, err := ln.l.Accept()
		if err != nil {
			var herr *pkgif.HandshakeError
			if errors.As(err, &herr) {
				id := types.ConnID(s.nextConnID.Add(1))
				logger.Debug("入站握手失败",
					"listener", ln.id,
					"conn", id,
					"remote", herr.Remote,
					"error", herr.Err)
				s.emitter.Emit(types.IncomingConnectionError{
					ListenerID: ln.id,
					ConnID:     id,
					Local:      herr.Local,
					Remote:     herr.Remote,
					Err:        herr.Err,
				})
				continue
			}
			s.listenerClosed(ln, err)
			return
		}

		id := types.ConnID(s.nextConnID.Add(1))
		establishedIn := time.Duration(0)
		if opened := cc.ConnState().Opened; !opened.IsZero() {
			establishedIn = max(s.clock.Since(opened), 0)
		}
		local, remote := cc.LocalMultiaddr(), cc.RemoteMultiaddr()
		if _, err := s.addConn(cc, id, types.DirInbound, nil, establishedIn); err != nil {
			if errors.Is(err, ErrSwarmClosed) {
				continue
			}
			s.emitter.Emit(types.IncomingConnectionError{
				ListenerID: ln.id,
				ConnID:     id,
				Local:      local,
				Remote:     remote,
				Err:        err,
			})
		}
	}
}

func (s *Swarm) listenerClosed(ln *listener, err error) {
	var cause error
	if !errors.Is(err, net.ErrClosed) {
		cause = err
		logger.Warn("监听器异常退出", "listener", ln.id, "error", err)
	}

	s.mu.Lock()
	delete(s.listeners, ln.id)
	if cause != nil {
		s.emitter.Emit(types.ListenError{ListenerID: ln.id, Err: cause})
	}
	s.emitter.Emit(types.ListenerClosed{
		ListenerID: ln.id,
		Addrs:      ln.addrs,
		Err:        cause,
	})
	s.mu.Unlock()

	_ = ln.l.Close()
	logger.Debug("监听器已关闭", "listener", ln.id)
}
