package log

import (
	"log/slog"
	"os"
	"strings"
)

// LogFormat 日志输出格式
type LogFormat int

const (
	// FormatText 文本格式（默认）
	FormatText LogFormat = iota
	// FormatJSON JSON 格式
	FormatJSON
)

// Config 日志配置
type Config struct {
	// DefaultLevel 默认日志级别
	DefaultLevel slog.Level

	// SubsystemLevels 各子系统的日志级别
	SubsystemLevels map[string]slog.Level

	// Format 输出格式
	Format LogFormat
}

// LevelForSubsystem 获取指定子系统的日志级别
//
// 精确匹配优先，其次按 "/" 逐级向上匹配前缀（core/protocol/ping → core/protocol → core）。
func (c *Config) LevelForSubsystem(subsystem string) slog.Level {
	for s := subsystem; s != ""; {
		if level, ok := c.SubsystemLevels[s]; ok {
			return level
		}
		i := strings.LastIndex(s, "/")
		if i < 0 {
			break
		}
		s = s[:i]
	}
	return c.DefaultLevel
}

// ConfigFromEnv 从环境变量解析配置
//
// 环境变量:
//   - DEP2P_LOG_LEVEL: 子系统=级别,子系统=级别,默认级别
//   - DEP2P_LOG_FORMAT: text 或 json
func ConfigFromEnv() *Config {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
		Format:          FormatText,
	}
	if levelStr := os.Getenv("DEP2P_LOG_LEVEL"); levelStr != "" {
		ParseLevelConfig(cfg, levelStr)
	}
	if strings.EqualFold(os.Getenv("DEP2P_LOG_FORMAT"), "json") {
		cfg.Format = FormatJSON
	}
	return cfg
}

// ParseLevelConfig 解析日志级别配置字符串
//
// 格式: subsystem=level,subsystem=level,defaultLevel
// 无法识别的级别名被忽略。
func ParseLevelConfig(cfg *Config, levelStr string) {
	for _, part := range strings.Split(levelStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if subsystem, levelName, ok := strings.Cut(part, "="); ok {
			if level, ok := ParseLevel(strings.TrimSpace(levelName)); ok {
				cfg.SubsystemLevels[strings.TrimSpace(subsystem)] = level
			}
			continue
		}
		if level, ok := ParseLevel(part); ok {
			cfg.DefaultLevel = level
		}
	}
}

// ParseLevel 解析日志级别名称
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
