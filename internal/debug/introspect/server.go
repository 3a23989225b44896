package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dep2p/go-dep2p-ping/internal/core/dispatcher"
	"github.com/dep2p/go-dep2p-ping/internal/core/metrics"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("debug/introspect")

// ============================================================================
//                              数据源
// ============================================================================

// ConnSource 连接与地址来源，由 Swarm 实现
type ConnSource interface {
	LocalPeer() types.PeerID
	ListenAddrs() []multiaddr.Multiaddr
	Conns() []*swarm.Conn
}

// ProtocolSource 已注册协议来源，由协议路由器实现
type ProtocolSource interface {
	Protocols() []types.ProtocolID
}

// BandwidthSource 流量统计来源
type BandwidthSource interface {
	Totals() metrics.Stats
}

// ============================================================================
//                              Server
// ============================================================================

// Server 本地自省 HTTP 服务
type Server struct {
	dispatcher.BaseSink

	addr      string
	conns     ConnSource
	protocols ProtocolSource
	bandwidth BandwidthSource
	handler   http.Handler

	startTime time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener

	pingMu sync.RWMutex
	pings  map[types.ConnID]pingResult
}

type pingResult struct {
	at      time.Time
	outcome types.PingOutcome
}

var _ dispatcher.Sink = (*Server)(nil)

// New 创建自省服务，protocols 与 bandwidth 可为 nil
func New(addr string, conns ConnSource, protocols ProtocolSource, bandwidth BandwidthSource) *Server {
	s := &Server{
		addr:      addr,
		conns:     conns,
		protocols: protocols,
		bandwidth: bandwidth,
		startTime: time.Now(),
		pings:     make(map[types.ConnID]pingResult),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/introspect", s.handleIntrospect)
	mux.HandleFunc("GET /debug/introspect/node", s.handleNode)
	mux.HandleFunc("GET /debug/introspect/connections", s.handleConnections)
	mux.HandleFunc("GET /debug/introspect/bandwidth", s.handleBandwidth)
	mux.HandleFunc("GET /debug/introspect/runtime", s.handleRuntime)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s.handler = mux
	return s
}

// Handler 返回路由，测试时可直接挂到 httptest
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start 绑定地址并在后台提供服务，重复调用无效
func (s *Server) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("自省服务异常退出", "error", err)
		}
	}(s.server)

	logger.Info("自省服务已启动", "addr", ln.Addr().String())
	return nil
}

// Stop 停止服务，重复调用无效
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("关闭自省服务失败", "error", err)
		return err
	}
	logger.Info("自省服务已停止")
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ============================================================================
//                              事件
// ============================================================================

// ProtocolEvent 记录连接最近一次探测结果
func (s *Server) ProtocolEvent(ev types.ProtocolEvent) error {
	s.pingMu.Lock()
	s.pings[ev.ConnID] = pingResult{at: time.Now(), outcome: ev.Ping}
	s.pingMu.Unlock()
	return nil
}

// ConnectionClosed 清理已关闭连接的探测记录
func (s *Server) ConnectionClosed(ev types.ConnectionClosed) error {
	s.pingMu.Lock()
	delete(s.pings, ev.ConnID)
	s.pingMu.Unlock()
	return nil
}

// ============================================================================
//                              响应结构
// ============================================================================

// IntrospectResponse 完整诊断响应
type IntrospectResponse struct {
	Timestamp   time.Time       `json:"timestamp"`
	Uptime      string          `json:"uptime"`
	Node        *NodeInfo       `json:"node"`
	Connections *ConnectionInfo `json:"connections"`
	Bandwidth   *BandwidthInfo  `json:"bandwidth,omitempty"`
	Runtime     *RuntimeInfo    `json:"runtime"`
}

// NodeInfo 节点信息
type NodeInfo struct {
	ID        string   `json:"id"`
	Addresses []string `json:"addresses"`
	Protocols []string `json:"protocols,omitempty"`
}

// ConnectionInfo 连接统计
type ConnectionInfo struct {
	Total    int        `json:"total"`
	Inbound  int        `json:"inbound"`
	Outbound int        `json:"outbound"`
	Conns    []ConnInfo `json:"conns"`
}

// ConnInfo 单条连接
type ConnInfo struct {
	ID         uint64    `json:"id"`
	Peer       string    `json:"peer"`
	Direction  string    `json:"direction"`
	State      string    `json:"state"`
	Local      string    `json:"local"`
	Remote     string    `json:"remote"`
	Opened     time.Time `json:"opened"`
	NumStreams int       `json:"num_streams"`
	LastPing   *PingInfo `json:"last_ping,omitempty"`
}

// PingInfo 最近一次探测结果
type PingInfo struct {
	At      time.Time `json:"at"`
	RTT     string    `json:"rtt,omitempty"`
	Failure string    `json:"failure,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// BandwidthInfo 流量信息
type BandwidthInfo struct {
	TotalIn  int64 `json:"total_in"`
	TotalOut int64 `json:"total_out"`
}

// RuntimeInfo 运行时信息
type RuntimeInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc"`
	MemSys       uint64 `json:"mem_sys"`
	NumGC        uint32 `json:"num_gc"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// ============================================================================
//                              HTTP 处理器
// ============================================================================

func (s *Server) handleIntrospect(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, IntrospectResponse{
		Timestamp:   time.Now(),
		Uptime:      time.Since(s.startTime).String(),
		Node:        s.collectNodeInfo(),
		Connections: s.collectConnectionInfo(),
		Bandwidth:   s.collectBandwidthInfo(),
		Runtime:     collectRuntimeInfo(),
	})
}

func (s *Server) handleNode(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.collectNodeInfo())
}

func (s *Server) handleConnections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.collectConnectionInfo())
}

func (s *Server) handleBandwidth(w http.ResponseWriter, _ *http.Request) {
	info := s.collectBandwidthInfo()
	if info == nil {
		info = &BandwidthInfo{}
	}
	writeJSON(w, info)
}

func (s *Server) handleRuntime(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, collectRuntimeInfo())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	})
}

// ============================================================================
//                              数据收集
// ============================================================================

func (s *Server) collectNodeInfo() *NodeInfo {
	info := &NodeInfo{
		ID:        s.conns.LocalPeer().String(),
		Addresses: make([]string, 0),
	}
	for _, a := range s.conns.ListenAddrs() {
		info.Addresses = append(info.Addresses, a.String())
	}
	if s.protocols != nil {
		for _, p := range s.protocols.Protocols() {
			info.Protocols = append(info.Protocols, string(p))
		}
		sort.Strings(info.Protocols)
	}
	return info
}

func (s *Server) collectConnectionInfo() *ConnectionInfo {
	conns := s.conns.Conns()
	info := &ConnectionInfo{Conns: make([]ConnInfo, 0, len(conns))}

	s.pingMu.RLock()
	defer s.pingMu.RUnlock()
	for _, c := range conns {
		ci := ConnInfo{
			ID:         uint64(c.ID()),
			Peer:       c.RemotePeer().String(),
			Direction:  c.Direction().String(),
			State:      c.State().String(),
			Local:      c.LocalMultiaddr().String(),
			Remote:     c.RemoteMultiaddr().String(),
			Opened:     c.Opened(),
			NumStreams: c.NumStreams(),
		}
		if r, ok := s.pings[c.ID()]; ok {
			ci.LastPing = pingInfo(r)
		}
		if c.Direction() == types.DirInbound {
			info.Inbound++
		} else {
			info.Outbound++
		}
		info.Conns = append(info.Conns, ci)
	}
	info.Total = len(info.Conns)
	sort.Slice(info.Conns, func(i, j int) bool { return info.Conns[i].ID < info.Conns[j].ID })
	return info
}

func pingInfo(r pingResult) *PingInfo {
	p := &PingInfo{At: r.at}
	if r.outcome.OK() {
		p.RTT = r.outcome.RTT.String()
		return p
	}
	p.Failure = r.outcome.Failure.String()
	p.Error = r.outcome.Err.Error()
	return p
}

func (s *Server) collectBandwidthInfo() *BandwidthInfo {
	if s.bandwidth == nil {
		return nil
	}
	st := s.bandwidth.Totals()
	return &BandwidthInfo{TotalIn: st.TotalIn, TotalOut: st.TotalOut}
}

func collectRuntimeInfo() *RuntimeInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &RuntimeInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     m.Alloc,
		MemSys:       m.Sys,
		NumGC:        m.NumGC,
	}
}

// writeJSON 写入 JSON 响应
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		logger.Error("JSON 编码失败", "error", err)
	}
}
