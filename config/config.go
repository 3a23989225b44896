// Package config 提供 dep2p-ping 的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置在独立文件中定义，
// 各自提供 DefaultXxxConfig() 与 Validate()。
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Swarm.IdleTimeout = config.Duration(time.Minute)
//
//	// 从文件加载（.yaml/.yml/.json）
//	cfg, err := config.Load("node.yaml")
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 dep2p-ping 的完整配置
type Config struct {
	// Identity 身份配置
	Identity IdentityConfig `json:"identity" yaml:"identity"`

	// Transport 传输层配置
	Transport TransportConfig `json:"transport" yaml:"transport"`

	// Security 安全传输配置
	Security SecurityConfig `json:"security" yaml:"security"`

	// Muxer 多路复用配置
	Muxer MuxerConfig `json:"muxer" yaml:"muxer"`

	// Swarm 连接管理配置
	Swarm SwarmConfig `json:"swarm" yaml:"swarm"`

	// Ping 存活探测配置
	Ping PingConfig `json:"ping" yaml:"ping"`

	// Metrics 指标导出配置
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// EventLog 事件日志配置
	EventLog EventLogConfig `json:"event_log" yaml:"event_log"`

	// Diagnostics 本地诊断配置
	Diagnostics DiagnosticsConfig `json:"diagnostics" yaml:"diagnostics"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Identity:    DefaultIdentityConfig(),
		Transport:   DefaultTransportConfig(),
		Security:    DefaultSecurityConfig(),
		Muxer:       DefaultMuxerConfig(),
		Swarm:       DefaultSwarmConfig(),
		Ping:        DefaultPingConfig(),
		Metrics:     DefaultMetricsConfig(),
		EventLog:    DefaultEventLogConfig(),
		Diagnostics: DefaultDiagnosticsConfig(),
	}
}

// Validate 验证配置的有效性，返回所有子配置的错误
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	return errors.Join(
		wrap("identity", c.Identity.Validate()),
		wrap("transport", c.Transport.Validate()),
		wrap("security", c.Security.Validate()),
		wrap("muxer", c.Muxer.Validate()),
		wrap("swarm", c.Swarm.Validate()),
		wrap("ping", c.Ping.Validate()),
		wrap("metrics", c.Metrics.Validate()),
		wrap("diagnostics", c.Diagnostics.Validate()),
	)
}

func wrap(section string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", section, err)
}

// ============================================================================
//                              加载
// ============================================================================

// Load 从文件加载配置，未出现的字段保持默认值
//
// 按扩展名选择格式：.yaml/.yml 使用 YAML，.json 使用 JSON。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// FromJSON 解析 JSON 配置
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse json config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromYAML 解析 YAML 配置
func FromYAML(data []byte) (*Config, error) {
	cfg := NewConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToYAML 序列化为 YAML
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}
