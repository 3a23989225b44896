package dep2p

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	"github.com/dep2p/go-dep2p-ping/internal/core/protocol"
	"github.com/dep2p/go-dep2p-ping/internal/core/protocol/ping"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("dep2p")

const (
	// startTimeout Fx 应用启动超时
	startTimeout = 30 * time.Second

	// stopTimeout Fx 应用停止超时
	stopTimeout = 15 * time.Second
)

// ConnInfo 连接快照
type ConnInfo struct {
	ID         types.ConnID
	Peer       types.PeerID
	Direction  types.Direction
	Local      multiaddr.Multiaddr
	Remote     multiaddr.Multiaddr
	Opened     time.Time
	State      types.ConnState
	NumStreams int
}

// Node P2P 节点
//
// New 创建节点但不启动；Start 启动全部组件并监听配置的地址；
// Close 关闭全部连接与监听器，排空事件后返回。
type Node struct {
	cfg         *config.Config
	listenAddrs []multiaddr.Multiaddr
	app         *fx.App

	// 由 fx.Populate 填充
	identity *identity.Identity
	swarm    *swarm.Swarm
	ping     *ping.Service
	router   *protocol.Router

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建节点
//
// 配置校验失败或组件构造失败时返回错误。
func New(opts ...Option) (*Node, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	// 未通过 WithListenAddrs 指定时使用配置中的监听地址
	if len(o.listenAddrs) == 0 {
		if err := WithListenAddrs(o.config.Swarm.ListenAddrs...)(o); err != nil {
			return nil, err
		}
	}

	n := &Node{cfg: o.config, listenAddrs: o.listenAddrs}
	app, err := buildFxApp(o, n)
	if err != nil {
		return nil, err
	}
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build node: %w", err)
	}
	n.app = app
	return n, nil
}

// Start 启动节点并监听 WithListenAddrs（或配置 swarm.listen_addrs）指定的地址
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrNodeClosed
	}
	if n.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := n.app.Start(startCtx); err != nil {
		logger.Error("节点启动失败", "error", err)
		return fmt.Errorf("start failed: %w", err)
	}
	n.started = true

	for _, addr := range n.listenAddrs {
		if _, err := n.swarm.Listen(addr); err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
	}

	logger.Info("节点已启动", "peer", n.identity.PeerID(), "version", Version)
	return nil
}

// Close 关闭节点，可重复调用
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	if !n.started {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := n.app.Stop(ctx); err != nil {
		return fmt.Errorf("stop failed: %w", err)
	}
	logger.Info("节点已关闭")
	return nil
}

// ID 返回本节点 PeerID
func (n *Node) ID() types.PeerID {
	return n.identity.PeerID()
}

// Config 返回节点配置
func (n *Node) Config() *config.Config {
	return n.cfg
}

// ListenOn 在 addr 上追加监听
func (n *Node) ListenOn(addr multiaddr.Multiaddr) (types.ListenerID, error) {
	if err := n.checkRunning(); err != nil {
		return 0, err
	}
	return n.swarm.Listen(addr)
}

// StopListening 关闭指定监听器
func (n *Node) StopListening(id types.ListenerID) error {
	if err := n.checkRunning(); err != nil {
		return err
	}
	return n.swarm.CloseListener(id)
}

// ListenAddrs 返回已报告的监听地址
func (n *Node) ListenAddrs() []multiaddr.Multiaddr {
	if n.checkRunning() != nil {
		return nil
	}
	return n.swarm.ListenAddrs()
}

// Dial 拨号 addr
//
// 结果同时以事件报告；失败时返回 *swarm.DialError。
func (n *Node) Dial(ctx context.Context, addr multiaddr.Multiaddr) (types.ConnID, error) {
	if err := n.checkRunning(); err != nil {
		return 0, err
	}
	return n.swarm.Dial(ctx, addr)
}

// CloseConn 关闭指定连接，已关闭的连接返回 nil
func (n *Node) CloseConn(id types.ConnID) error {
	if err := n.checkRunning(); err != nil {
		return err
	}
	return n.swarm.CloseConn(id)
}

// Conns 返回当前连接快照，按 ID 升序
func (n *Node) Conns() []ConnInfo {
	if n.checkRunning() != nil {
		return nil
	}
	conns := n.swarm.Conns()
	out := make([]ConnInfo, 0, len(conns))
	for _, c := range conns {
		out = append(out, connInfo(c))
	}
	return out
}

// ConnsToPeer 返回与 peer 的连接快照
func (n *Node) ConnsToPeer(peer types.PeerID) []ConnInfo {
	if n.checkRunning() != nil {
		return nil
	}
	var out []ConnInfo
	for _, c := range n.swarm.ConnsToPeer(peer) {
		out = append(out, connInfo(c))
	}
	return out
}

// Ping 在指定连接上执行一次探测，结果不进入事件流
func (n *Node) Ping(ctx context.Context, id types.ConnID) (time.Duration, error) {
	if err := n.checkRunning(); err != nil {
		return 0, err
	}
	c, ok := n.swarm.Conn(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", swarm.ErrNoConnection, id)
	}
	return n.ping.Ping(ctx, c)
}

// Protocols 返回已注册的流协议
func (n *Node) Protocols() []types.ProtocolID {
	if n.checkRunning() != nil {
		return nil
	}
	return n.router.Protocols()
}

// Done 返回在节点停止信号到达时关闭的通道（SIGINT/SIGTERM）
func (n *Node) Done() <-chan fx.ShutdownSignal {
	return n.app.Wait()
}

func (n *Node) checkRunning() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrNodeClosed
	}
	if !n.started {
		return ErrNotStarted
	}
	return nil
}

func connInfo(c *swarm.Conn) ConnInfo {
	return ConnInfo{
		ID:         c.ID(),
		Peer:       c.RemotePeer(),
		Direction:  c.Direction(),
		Local:      c.LocalMultiaddr(),
		Remote:     c.RemoteMultiaddr(),
		Opened:     c.Opened(),
		State:      c.State(),
		NumStreams: c.NumStreams(),
	}
}
