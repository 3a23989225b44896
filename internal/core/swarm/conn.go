package swarm

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/libp2p/go-yamux/v5"

	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// Conn Swarm 管理的连接
type Conn struct {
	swarm *Swarm
	conn  pkgif.CapableConn

	id     types.ConnID
	dir    types.Direction
	remote types.PeerID
	opened time.Time

	// ctx 在进入 Closing 时取消
	ctx    context.Context
	cancel context.CancelFunc

	state atomic.Int32

	mu      sync.Mutex
	closing bool
	streams map[*Stream]struct{}

	// 连接上的全部 goroutine：流接受循环、空闲计时器、协议任务
	wg sync.WaitGroup

	// 最近一次流活动，clock 的 UnixNano
	lastActivity atomic.Int64

	// 连续 ping 失败次数
	pingFailures atomic.Int32
}

func newConn(s *Swarm, cc pkgif.CapableConn, id types.ConnID, dir types.Direction) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		swarm:   s,
		conn:    cc,
		id:      id,
		dir:     dir,
		remote:  cc.RemotePeer(),
		opened:  s.clock.Now(),
		ctx:     ctx,
		cancel:  cancel,
		streams: make(map[*Stream]struct{}),
	}
	if dir == types.DirInbound {
		c.state.Store(int32(types.ConnStateAccepting))
	} else {
		c.state.Store(int32(types.ConnStateDialing))
	}
	c.touch()
	return c
}

// ID 返回连接标识
func (c *Conn) ID() types.ConnID {
	return c.id
}

// LocalPeer 返回本地节点 ID
func (c *Conn) LocalPeer() types.PeerID {
	return c.conn.LocalPeer()
}

// RemotePeer 返回远程节点 ID
func (c *Conn) RemotePeer() types.PeerID {
	return c.remote
}

// LocalMultiaddr 返回本地地址
func (c *Conn) LocalMultiaddr() multiaddr.Multiaddr {
	return c.conn.LocalMultiaddr()
}

// RemoteMultiaddr 返回远程地址
func (c *Conn) RemoteMultiaddr() multiaddr.Multiaddr {
	return c.conn.RemoteMultiaddr()
}

// Direction 返回连接方向
func (c *Conn) Direction() types.Direction {
	return c.dir
}

// Endpoint 返回连接端点
func (c *Conn) Endpoint() types.Endpoint {
	return types.Endpoint{
		Direction: c.dir,
		Local:     c.conn.LocalMultiaddr(),
		Remote:    c.conn.RemoteMultiaddr(),
	}
}

// ConnState 返回连接所用协议栈
func (c *Conn) ConnState() pkgif.ConnState {
	return c.conn.ConnState()
}

// Opened 返回建立时刻
func (c *Conn) Opened() time.Time {
	return c.opened
}

// State 返回当前状态
func (c *Conn) State() types.ConnState {
	return types.ConnState(c.state.Load())
}

// Context 返回连接上下文，连接进入 Closing 时取消
func (c *Conn) Context() context.Context {
	return c.ctx
}

// NumStreams 返回打开的流数量
func (c *Conn) NumStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}

// Close 关闭连接（本地主动关闭）
func (c *Conn) Close() error {
	return c.swarm.closeConn(c, types.CloseCause{Reason: types.CloseLocal})
}

// NewStream 打开出站流
func (c *Conn) NewStream(ctx context.Context) (*Stream, error) {
	if c.State() != types.ConnStateEstablished {
		return nil, ErrConnClosed
	}
	ms, err := c.conn.OpenStream(ctx)
	if err != nil {
		return nil, err
	}
	s := newStream(c, ms, types.DirOutbound)
	if !c.addStream(s) {
		_ = ms.Reset()
		return nil, ErrConnClosed
	}
	return s, nil
}

// Go 启动一个附着在连接上的任务
//
// f 收到的 ctx 在连接关闭时取消；连接在 f 返回前不会发出 ConnectionClosed。
// 连接已进入 Closing 时不启动并返回 false。
func (c *Conn) Go(f func(ctx context.Context)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return false
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f(c.ctx)
	}()
	return true
}

// ReportPing 报告一次 ping 结果
//
// 发出 ProtocolEvent，并按 MaxPingFailures 策略在连续失败过多时关闭连接。
// unsupported-protocol 不计入连续失败。
func (c *Conn) ReportPing(outcome types.PingOutcome) {
	if c.State() == types.ConnStateClosed {
		return
	}
	c.swarm.emitter.Emit(types.ProtocolEvent{
		Peer:     c.remote,
		ConnID:   c.id,
		Protocol: protocolids.Ping,
		Ping:     outcome,
	})

	if outcome.OK() {
		c.pingFailures.Store(0)
		return
	}
	if outcome.Failure == types.PingUnsupported {
		return
	}
	n := int(c.pingFailures.Add(1))
	limit := c.swarm.config.MaxPingFailures
	if limit > 0 && n >= limit {
		logger.Info("连续 ping 失败达到上限，关闭连接",
			"peer", c.remote.ShortString(),
			"conn", c.id,
			"failures", n)
		go c.swarm.closeConn(c, types.CloseCause{Reason: types.ClosePingFailures})
	}
}

// ============================================================================
//                              内部
// ============================================================================

// start 启动流接受循环与空闲计时器
func (c *Conn) start() {
	c.Go(c.acceptStreams)
	c.Go(c.watchIdle)
}

// beginClose 进入 Closing，只有第一次调用返回 true
func (c *Conn) beginClose() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return false
	}
	c.closing = true
	c.state.Store(int32(types.ConnStateClosing))
	return true
}

func (c *Conn) acceptStreams(ctx context.Context) {
	for {
		ms, err := c.conn.AcceptStream()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			cause := types.CloseCause{Reason: types.CloseRemote}
			if !isRemoteClose(err) {
				cause = types.CloseCause{Reason: types.CloseTransportError, Err: err}
			}
			logger.Debug("流接受循环退出",
				"peer", c.remote.ShortString(),
				"conn", c.id,
				"error", err)
			go c.swarm.closeConn(c, cause)
			return
		}

		s := newStream(c, ms, types.DirInbound)
		if !c.addStream(s) {
			_ = ms.Reset()
			return
		}
		h := c.swarm.getStreamHandler()
		if h == nil {
			logger.Debug("无入站流处理器，重置流", "conn", c.id)
			_ = s.Reset()
			continue
		}
		if !c.Go(func(context.Context) { h(s) }) {
			_ = s.Reset()
			return
		}
	}
}

// isRemoteClose 判断会话是否因对端正常关闭而结束
func isRemoteClose(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, muxer.ErrConnClosed) ||
		errors.Is(err, yamux.ErrRemoteGoAway) ||
		errors.Is(err, net.ErrClosed)
}

// watchIdle 空闲计时器
//
// 无打开的流且距最近一次流活动达到 IdleTimeout 时关闭连接。
func (c *Conn) watchIdle(ctx context.Context) {
	timeout := c.swarm.config.IdleTimeout.Duration()
	timer := c.swarm.clock.Timer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		wait := c.idleRemaining(timeout)
		if wait <= 0 {
			logger.Debug("连接空闲超时", "peer", c.remote.ShortString(), "conn", c.id)
			go c.swarm.closeConn(c, types.CloseCause{Reason: types.CloseIdleTimeout})
			return
		}
		timer.Reset(wait)
	}
}

// idleRemaining 返回距空闲超时的剩余时间，有打开的流时返回完整周期
func (c *Conn) idleRemaining(timeout time.Duration) time.Duration {
	c.mu.Lock()
	open := len(c.streams)
	c.mu.Unlock()
	if open > 0 {
		return timeout
	}
	last := time.Unix(0, c.lastActivity.Load())
	return timeout - c.swarm.clock.Since(last)
}

// touch 记录流活动
func (c *Conn) touch() {
	c.lastActivity.Store(c.swarm.clock.Now().UnixNano())
}

func (c *Conn) addStream(s *Stream) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closing {
		return false
	}
	c.streams[s] = struct{}{}
	c.touch()
	return true
}

func (c *Conn) removeStream(s *Stream) {
	c.mu.Lock()
	delete(c.streams, s)
	c.mu.Unlock()
	c.touch()
}

// resetStreams 重置全部流
func (c *Conn) resetStreams() {
	c.mu.Lock()
	streams := make([]*Stream, 0, len(c.streams))
	for s := range c.streams {
		streams = append(streams, s)
	}
	c.mu.Unlock()

	for _, s := range streams {
		_ = s.Reset()
	}
}
