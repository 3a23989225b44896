package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dep2p/go-dep2p-ping/config"
)

// ============================================================================
//                              命令行参数
// ============================================================================

// cliFlags 命令行参数
//
// 只有显式设置的参数才覆盖配置文件，未设置的保持文件或默认值。
type cliFlags struct {
	configFile      string
	listen          []string
	idleTimeout     time.Duration
	pingInterval    time.Duration
	pingTimeout     time.Duration
	maxPingFailures int
	keyType         string
	security        []string
	metricsAddr     string
	eventLog        string
	introspectAddr  string
	logLevel        string
}

// register 在 cmd 上注册参数
func (f *cliFlags) register(cmd *cobra.Command) {
	defaults := config.NewConfig()
	fs := cmd.Flags()

	fs.StringVarP(&f.configFile, "config", "c", "", "配置文件路径（.yaml/.yml/.json）")
	fs.StringArrayVarP(&f.listen, "listen", "l", defaults.Swarm.ListenAddrs, "监听地址，可重复指定")
	fs.DurationVar(&f.idleTimeout, "idle-timeout", defaults.Swarm.IdleTimeout.Duration(), "空闲连接超时")
	fs.DurationVar(&f.pingInterval, "ping-interval", defaults.Ping.Interval.Duration(), "ping 探测间隔")
	fs.DurationVar(&f.pingTimeout, "ping-timeout", defaults.Ping.Timeout.Duration(), "单次 ping 超时")
	fs.IntVar(&f.maxPingFailures, "max-ping-failures", defaults.Swarm.MaxPingFailures, "连续 ping 失败达到此值时关闭连接，0 表示不关闭")
	fs.StringVar(&f.keyType, "key-type", defaults.Identity.KeyType, "身份密钥类型: ed25519 | secp256k1")
	fs.StringSliceVar(&f.security, "security", defaults.Security.Order(), "安全协议，按偏好排列: tls,noise")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Prometheus 指标监听地址 host:port，空表示不启用")
	fs.StringVar(&f.eventLog, "event-log", "", "CBOR 事件日志文件路径")
	fs.StringVar(&f.introspectAddr, "introspect-addr", "", "自省 HTTP 服务监听地址 host:port，空表示不启用")
	fs.StringVar(&f.logLevel, "log-level", "", "日志级别，格式同 DEP2P_LOG_LEVEL")
}

// buildConfig 加载配置文件并应用命令行覆盖
func (f *cliFlags) buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("listen") {
		cfg.Swarm.ListenAddrs = f.listen
	}
	if changed("idle-timeout") {
		cfg.Swarm.IdleTimeout = config.Duration(f.idleTimeout)
	}
	if changed("max-ping-failures") {
		cfg.Swarm.MaxPingFailures = f.maxPingFailures
	}
	if changed("ping-interval") {
		cfg.Ping.Interval = config.Duration(f.pingInterval)
	}
	if changed("ping-timeout") {
		cfg.Ping.Timeout = config.Duration(f.pingTimeout)
	}
	if changed("key-type") {
		cfg.Identity.KeyType = f.keyType
	}
	if changed("security") {
		if err := applySecurity(&cfg.Security, f.security); err != nil {
			return nil, err
		}
	}
	if changed("metrics-addr") {
		cfg.Metrics.Enabled = f.metricsAddr != ""
		if f.metricsAddr != "" {
			cfg.Metrics.ListenAddr = f.metricsAddr
		}
	}
	if changed("event-log") {
		cfg.EventLog.Path = f.eventLog
	}
	if changed("introspect-addr") {
		cfg.Diagnostics.EnableIntrospect = f.introspectAddr != ""
		if f.introspectAddr != "" {
			cfg.Diagnostics.IntrospectAddr = f.introspectAddr
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySecurity 按列表启用安全协议，第一个为首选
func applySecurity(sc *config.SecurityConfig, names []string) error {
	sc.EnableTLS, sc.EnableNoise, sc.PreferredProtocol = false, false, ""
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "tls":
			sc.EnableTLS = true
			if sc.PreferredProtocol == "" {
				sc.PreferredProtocol = "tls"
			}
		case "noise":
			sc.EnableNoise = true
			if sc.PreferredProtocol == "" {
				sc.PreferredProtocol = "noise"
			}
		default:
			return fmt.Errorf("未知安全协议 %q", name)
		}
	}
	if !sc.EnableTLS && !sc.EnableNoise {
		return config.ErrNoSecurity
	}
	return nil
}
