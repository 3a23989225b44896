package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// 配置错误
var (
	ErrUnknownFormat   = errors.New("unknown config file format")
	ErrInvalidKeyType  = errors.New("invalid key type")
	ErrNoTransport     = errors.New("at least one transport must be enabled")
	ErrNoSecurity      = errors.New("at least one security protocol must be enabled")
	ErrInvalidDuration = errors.New("duration must be positive")
)

// ============================================================================
//                              Identity
// ============================================================================

// IdentityConfig 身份配置
type IdentityConfig struct {
	// KeyType 密钥类型: ed25519 | secp256k1
	KeyType string `json:"key_type" yaml:"key_type"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{KeyType: "ed25519"}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	switch strings.ToLower(c.KeyType) {
	case "", "ed25519", "secp256k1":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKeyType, c.KeyType)
	}
}

// ============================================================================
//                              Transport
// ============================================================================

// TransportConfig 传输层配置
type TransportConfig struct {
	// EnableTCP 启用 TCP
	EnableTCP bool `json:"enable_tcp" yaml:"enable_tcp"`

	// EnableQUIC 启用 QUIC（内置 TLS 1.3 与原生流）
	EnableQUIC bool `json:"enable_quic" yaml:"enable_quic"`

	// EnableWebSocket 启用 WebSocket（/tcp/<port>/ws）
	EnableWebSocket bool `json:"enable_websocket" yaml:"enable_websocket"`

	// EnableMemory 启用进程内传输（/memory/<id>），用于测试
	EnableMemory bool `json:"enable_memory" yaml:"enable_memory"`

	// TCP TCP 选项
	TCP TCPConfig `json:"tcp" yaml:"tcp"`
}

// TCPConfig TCP 选项
type TCPConfig struct {
	// NoDelay 禁用 Nagle 算法
	NoDelay bool `json:"no_delay" yaml:"no_delay"`

	// KeepAlive TCP keepalive 周期，0 使用系统默认
	KeepAlive Duration `json:"keep_alive" yaml:"keep_alive"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		// ════════════════════════════════════════════════════════════════════
		// 传输协议启用配置
		// ════════════════════════════════════════════════════════════════════
		EnableTCP:       true,
		EnableQUIC:      true,
		EnableWebSocket: true,
		EnableMemory:    false,

		TCP: TCPConfig{
			NoDelay:   true,
			KeepAlive: Duration(15 * time.Second),
		},
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if !c.EnableTCP && !c.EnableQUIC && !c.EnableWebSocket && !c.EnableMemory {
		return ErrNoTransport
	}
	if c.TCP.KeepAlive < 0 {
		return fmt.Errorf("tcp keep_alive: %w", ErrInvalidDuration)
	}
	return nil
}

// ============================================================================
//                              Security
// ============================================================================

// SecurityConfig 安全传输配置
type SecurityConfig struct {
	// EnableTLS 是否启用 TLS 1.3
	EnableTLS bool `json:"enable_tls" yaml:"enable_tls"`

	// EnableNoise 是否启用 Noise
	EnableNoise bool `json:"enable_noise" yaml:"enable_noise"`

	// PreferredProtocol 首选协议: "tls" | "noise"
	PreferredProtocol string `json:"preferred_protocol" yaml:"preferred_protocol"`

	// HandshakeTimeout 协商与握手的总超时
	HandshakeTimeout Duration `json:"handshake_timeout" yaml:"handshake_timeout"`
}

// DefaultSecurityConfig 返回默认安全配置
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableTLS:         true,
		EnableNoise:       true,
		PreferredProtocol: "noise",
		HandshakeTimeout:  Duration(15 * time.Second),
	}
}

// Validate 验证安全配置
func (c SecurityConfig) Validate() error {
	if !c.EnableTLS && !c.EnableNoise {
		return ErrNoSecurity
	}
	switch c.PreferredProtocol {
	case "", "tls", "noise":
	default:
		return fmt.Errorf("unknown preferred protocol %q", c.PreferredProtocol)
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake_timeout: %w", ErrInvalidDuration)
	}
	return nil
}

// Order 返回按偏好排列的已启用协议名（"tls"/"noise"）
func (c SecurityConfig) Order() []string {
	var out []string
	if c.PreferredProtocol == "tls" {
		if c.EnableTLS {
			out = append(out, "tls")
		}
		if c.EnableNoise {
			out = append(out, "noise")
		}
		return out
	}
	if c.EnableNoise {
		out = append(out, "noise")
	}
	if c.EnableTLS {
		out = append(out, "tls")
	}
	return out
}

// ============================================================================
//                              Muxer
// ============================================================================

// MuxerConfig yamux 配置
type MuxerConfig struct {
	// MaxStreamWindowSize 单流最大接收窗口
	MaxStreamWindowSize uint32 `json:"max_stream_window_size" yaml:"max_stream_window_size"`

	// EnableKeepAlive 启用 yamux 会话级 keepalive
	EnableKeepAlive bool `json:"enable_keep_alive" yaml:"enable_keep_alive"`

	// KeepAliveInterval 会话 keepalive 周期
	KeepAliveInterval Duration `json:"keep_alive_interval" yaml:"keep_alive_interval"`
}

// DefaultMuxerConfig 返回默认多路复用配置
func DefaultMuxerConfig() MuxerConfig {
	return MuxerConfig{
		MaxStreamWindowSize: 16 * 1024 * 1024,
		EnableKeepAlive:     true,
		KeepAliveInterval:   Duration(30 * time.Second),
	}
}

// Validate 验证多路复用配置
func (c MuxerConfig) Validate() error {
	if c.MaxStreamWindowSize < 256*1024 {
		return errors.New("max_stream_window_size must be at least 256KiB")
	}
	if c.EnableKeepAlive && c.KeepAliveInterval <= 0 {
		return fmt.Errorf("keep_alive_interval: %w", ErrInvalidDuration)
	}
	return nil
}

// ============================================================================
//                              Swarm
// ============================================================================

// SwarmConfig 连接管理配置
type SwarmConfig struct {
	// ListenAddrs 启动时监听的地址
	ListenAddrs []string `json:"listen_addrs" yaml:"listen_addrs"`

	// IdleTimeout 无流且无流活动时关闭连接的时长
	IdleTimeout Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// DialTimeout 单次拨号（含握手）超时
	DialTimeout Duration `json:"dial_timeout" yaml:"dial_timeout"`

	// MaxConcurrentDials 一个拨号请求解析出多个地址时的并发上限
	MaxConcurrentDials int `json:"max_concurrent_dials" yaml:"max_concurrent_dials"`

	// MaxPingFailures 连续 ping 失败达到此值时关闭连接，0 表示不关闭
	MaxPingFailures int `json:"max_ping_failures" yaml:"max_ping_failures"`
}

// DefaultSwarmConfig 返回默认连接管理配置
func DefaultSwarmConfig() SwarmConfig {
	return SwarmConfig{
		ListenAddrs:        []string{"/ip4/0.0.0.0/tcp/0"},
		IdleTimeout:        Duration(30 * time.Second),
		DialTimeout:        Duration(15 * time.Second),
		MaxConcurrentDials: 8,
		MaxPingFailures:    0,
	}
}

// Validate 验证连接管理配置
func (c SwarmConfig) Validate() error {
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout: %w", ErrInvalidDuration)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout: %w", ErrInvalidDuration)
	}
	if c.MaxConcurrentDials < 1 {
		return errors.New("max_concurrent_dials must be at least 1")
	}
	if c.MaxPingFailures < 0 {
		return errors.New("max_ping_failures must not be negative")
	}
	return nil
}

// ============================================================================
//                              Ping
// ============================================================================

// PingConfig 存活探测配置
type PingConfig struct {
	// Enabled 是否在出站与入站连接上主动探测
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Interval 两次探测之间的间隔
	Interval Duration `json:"interval" yaml:"interval"`

	// Timeout 单次探测等待回显的超时
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

// DefaultPingConfig 返回默认探测配置
func DefaultPingConfig() PingConfig {
	return PingConfig{
		Enabled:  true,
		Interval: Duration(15 * time.Second),
		Timeout:  Duration(20 * time.Second),
	}
}

// Validate 验证探测配置
func (c PingConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval: %w", ErrInvalidDuration)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout: %w", ErrInvalidDuration)
	}
	return nil
}

// ============================================================================
//                              观测
// ============================================================================

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// Enabled 是否启用 HTTP 指标端点
	Enabled bool `json:"enabled" yaml:"enabled"`

	// ListenAddr HTTP 监听地址 host:port
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`

	// Path 指标路径
	Path string `json:"path" yaml:"path"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:    false,
		ListenAddr: "127.0.0.1:9464",
		Path:       "/metrics",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("listen_addr: %w", err)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must begin with /: %q", c.Path)
	}
	return nil
}

// DiagnosticsConfig 本地诊断配置
type DiagnosticsConfig struct {
	// EnableIntrospect 是否启用自省 HTTP 服务（JSON 诊断与 pprof）
	EnableIntrospect bool `json:"enable_introspect" yaml:"enable_introspect"`

	// IntrospectAddr 自省服务监听地址 host:port
	IntrospectAddr string `json:"introspect_addr" yaml:"introspect_addr"`
}

// DefaultDiagnosticsConfig 返回默认诊断配置
func DefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		EnableIntrospect: false,
		IntrospectAddr:   "127.0.0.1:6060",
	}
}

// Validate 验证诊断配置
func (c DiagnosticsConfig) Validate() error {
	if !c.EnableIntrospect {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.IntrospectAddr); err != nil {
		return fmt.Errorf("introspect_addr: %w", err)
	}
	return nil
}

// EventLogConfig 事件日志配置
type EventLogConfig struct {
	// Path CBOR 事件日志文件路径，空表示不记录
	Path string `json:"path" yaml:"path"`
}

// DefaultEventLogConfig 返回默认事件日志配置
func DefaultEventLogConfig() EventLogConfig {
	return EventLogConfig{}
}
