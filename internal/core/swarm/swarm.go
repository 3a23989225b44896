package swarm

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/swarm")

// Notifiee 接收连接建立与关闭通知
//
// 回调在 Swarm 的 goroutine 中同步执行，不得阻塞；
// 需要长期运行的任务应通过 Conn.Go 启动。
type Notifiee interface {
	Connected(c *Conn)
	Disconnected(c *Conn)
}

// StreamHandler 入站流处理函数
type StreamHandler func(s *Stream)

// Swarm 连接管理器
type Swarm struct {
	local      types.PeerID
	transports []pkgif.Transport
	emitter    eventbus.Emitter

	config         config.SwarmConfig
	clock          clock.Clock
	resolver       Resolver
	interfaceAddrs func() ([]net.Addr, error)
	bandwidth      BandwidthReporter

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.RWMutex
	conns         map[types.ConnID]*Conn
	byPeer        map[types.PeerID]map[types.ConnID]*Conn
	listeners     map[types.ListenerID]*listener
	notifiees     []Notifiee
	streamHandler StreamHandler
	closed        bool

	nextConnID     atomic.Uint64
	nextListenerID atomic.Uint64

	// accept 循环
	wg sync.WaitGroup
}

// New 创建 Swarm
//
// transports 的顺序决定拨号与监听时的匹配优先级。
func New(local types.PeerID, transports []pkgif.Transport, emitter eventbus.Emitter, opts ...Option) (*Swarm, error) {
	if local.IsEmpty() {
		return nil, fmt.Errorf("%w: local peer is empty", ErrInvalidConfig)
	}
	if emitter == nil {
		return nil, fmt.Errorf("%w: emitter is nil", ErrInvalidConfig)
	}

	s := &Swarm{
		local:          local,
		transports:     transports,
		emitter:        emitter,
		config:         config.DefaultSwarmConfig(),
		clock:          clock.New(),
		resolver:       net.DefaultResolver,
		interfaceAddrs: net.InterfaceAddrs,
		conns:          make(map[types.ConnID]*Conn),
		byPeer:         make(map[types.PeerID]map[types.ConnID]*Conn),
		listeners:      make(map[types.ListenerID]*listener),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// LocalPeer 返回本地节点 ID
func (s *Swarm) LocalPeer() types.PeerID {
	return s.local
}

// Config 返回连接管理配置
func (s *Swarm) Config() config.SwarmConfig {
	return s.config
}

// Notify 注册连接通知
func (s *Swarm) Notify(n Notifiee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiees = append(s.notifiees, n)
}

// SetStreamHandler 设置入站流处理器
func (s *Swarm) SetStreamHandler(h StreamHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamHandler = h
}

func (s *Swarm) getStreamHandler() StreamHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamHandler
}

// Conns 返回所有活跃连接，按 ConnID 升序
func (s *Swarm) Conns() []*Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	slices.SortFunc(conns, func(a, b *Conn) int {
		return cmp.Compare(a.id, b.id)
	})
	return conns
}

// Conn 按 ID 查找连接
func (s *Swarm) Conn(id types.ConnID) (*Conn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[id]
	return c, ok
}

// ConnsToPeer 返回到指定节点的所有连接
func (s *Swarm) ConnsToPeer(peer types.PeerID) []*Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	peerConns := s.byPeer[peer]
	if len(peerConns) == 0 {
		return nil
	}
	conns := make([]*Conn, 0, len(peerConns))
	for _, c := range peerConns {
		conns = append(conns, c)
	}
	slices.SortFunc(conns, func(a, b *Conn) int {
		return cmp.Compare(a.id, b.id)
	})
	return conns
}

// CloseConn 关闭指定连接
//
// 已关闭（或正在关闭）的连接返回 nil；从未分配过的 ID 返回 ErrNoConnection。
func (s *Swarm) CloseConn(id types.ConnID) error {
	c, ok := s.Conn(id)
	if !ok {
		if id == 0 || uint64(id) > s.nextConnID.Load() {
			return fmt.Errorf("%w: %s", ErrNoConnection, id)
		}
		return nil
	}
	return s.closeConn(c, types.CloseCause{Reason: types.CloseLocal})
}

// Close 关闭所有监听器与连接
func (s *Swarm) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listeners := make([]*listener, 0, len(s.listeners))
	for _, ln := range s.listeners {
		listeners = append(listeners, ln)
	}
	conns := make([]*Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	logger.Info("正在关闭 Swarm", "listeners", len(listeners), "conns", len(conns))

	// 取消进行中的拨号
	s.cancel()

	var err error
	for _, ln := range listeners {
		err = multierr.Append(err, ln.l.Close())
	}
	s.wg.Wait()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
	)
	for _, c := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cerr := s.closeConn(c, types.CloseCause{Reason: types.CloseShutdown}); cerr != nil {
				errMu.Lock()
				err = multierr.Append(err, cerr)
				errMu.Unlock()
			}
		}()
	}
	wg.Wait()
	return err
}

// ============================================================================
//                              连接表
// ============================================================================

// addConn 登记已建立的连接并发出 ConnectionEstablished
//
// 事件在登记的同一临界区内发出，保证同一连接的 Closed 不会先于 Established。
func (s *Swarm) addConn(cc pkgif.CapableConn, id types.ConnID, dir types.Direction, dialErrs []types.AddrError, establishedIn time.Duration) (*Conn, error) {
	if cc.RemotePeer() == s.local {
		cc.Close()
		return nil, ErrDialToSelf
	}

	c := newConn(s, cc, id, dir)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cc.Close()
		return nil, ErrSwarmClosed
	}
	s.conns[id] = c
	peerConns := s.byPeer[c.remote]
	if peerConns == nil {
		peerConns = make(map[types.ConnID]*Conn)
		s.byPeer[c.remote] = peerConns
	}
	peerConns[id] = c
	c.state.Store(int32(types.ConnStateEstablished))

	if establishedIn < 0 {
		establishedIn = 0
	}
	s.emitter.Emit(types.ConnectionEstablished{
		Peer:                 c.remote,
		ConnID:               id,
		Endpoint:             c.Endpoint(),
		NumEstablished:       len(peerConns),
		ConcurrentDialErrors: dialErrs,
		EstablishedIn:        establishedIn,
	})
	notifiees := slices.Clone(s.notifiees)
	s.mu.Unlock()

	logger.Info("连接已建立",
		"peer", c.remote.ShortString(),
		"conn", id,
		"direction", dir,
		"transport", cc.ConnState().Transport,
		"security", cc.ConnState().Security,
		"remoteAddr", cc.RemoteMultiaddr())

	c.start()
	for _, n := range notifiees {
		n.Connected(c)
	}
	return c, nil
}

// closeConn 执行 Closing → Closed
//
// 只有第一次调用生效。从连接自身的 goroutine 触发时必须异步调用，
// 因为这里会等待连接上的全部任务退出。
func (s *Swarm) closeConn(c *Conn, cause types.CloseCause) error {
	if !c.beginClose() {
		return nil
	}

	c.cancel()
	c.resetStreams()
	err := c.conn.Close()
	c.wg.Wait()

	s.mu.Lock()
	delete(s.conns, c.id)
	peerConns := s.byPeer[c.remote]
	delete(peerConns, c.id)
	if len(peerConns) == 0 {
		delete(s.byPeer, c.remote)
	}
	c.state.Store(int32(types.ConnStateClosed))
	s.emitter.Emit(types.ConnectionClosed{
		Peer:           c.remote,
		ConnID:         c.id,
		Endpoint:       c.Endpoint(),
		NumEstablished: len(peerConns),
		Cause:          cause,
	})
	notifiees := slices.Clone(s.notifiees)
	s.mu.Unlock()

	logger.Info("连接已关闭",
		"peer", c.remote.ShortString(),
		"conn", c.id,
		"cause", cause)

	for _, n := range notifiees {
		n.Disconnected(c)
	}

	if err != nil && !errors.Is(err, muxer.ErrConnClosed) && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close conn %s: %w", c.id, err)
	}
	return nil
}

// transportFor 选择第一个能处理该地址的传输
func (s *Swarm) transportFor(addr multiaddr.Multiaddr) pkgif.Transport {
	for _, t := range s.transports {
		if t.CanDial(addr) {
			return t
		}
	}
	return nil
}

func (s *Swarm) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
