// Package log 提供 dep2p-ping 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，按组件（子系统）控制日志级别。
//
// 环境变量:
//
//	# 全部组件 info，core/swarm 为 debug
//	DEP2P_LOG_LEVEL=core/swarm=debug,info
//
//	# JSON 格式输出
//	DEP2P_LOG_FORMAT=json
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	stateMu sync.RWMutex
	output  io.Writer = os.Stderr
	current           = ConfigFromEnv()
	base    *slog.Logger
)

func init() {
	rebuild()
}

// rebuild 按当前配置重建底层 handler
//
// handler 放行所有级别，级别过滤由 LazyLogger 按组件完成。
func rebuild() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}
	var h slog.Handler
	if current.Format == FormatJSON {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = slog.NewTextHandler(output, opts)
	}
	base = slog.New(h)
}

// SetOutput 设置日志输出目标
//
// 已创建的 LazyLogger 立即生效。
func SetOutput(w io.Writer) {
	stateMu.Lock()
	defer stateMu.Unlock()
	output = w
	rebuild()
}

// SetConfig 替换日志配置
func SetConfig(cfg *Config) {
	stateMu.Lock()
	defer stateMu.Unlock()
	current = cfg
	rebuild()
}

// SetLevel 设置默认日志级别，子系统级别保持不变
func SetLevel(level slog.Level) {
	stateMu.Lock()
	defer stateMu.Unlock()
	cp := *current
	cp.DefaultLevel = level
	current = &cp
}

// CurrentConfig 返回当前日志配置
func CurrentConfig() *Config {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return current
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时读取当前的输出目标和级别配置，
// 支持在运行时动态切换。
//
// 使用方式：
//
//	var logger = log.Logger("core/swarm")
//	logger.Info("connection established", "peer", peer)
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

// Component 返回组件名
func (l *LazyLogger) Component() string {
	return l.component
}

// Enabled 判断组件在指定级别是否输出
func (l *LazyLogger) Enabled(level slog.Level) bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return level >= current.LevelForSubsystem(l.component)
}

func (l *LazyLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	stateMu.RLock()
	if level < current.LevelForSubsystem(l.component) {
		stateMu.RUnlock()
		return
	}
	lg := base
	stateMu.RUnlock()
	lg.With("component", l.component).Log(ctx, level, msg, args...)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// InfoContext 带 context 的 Info 日志
func (l *LazyLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取 ID 用于日志显示
//
// 如果 ID 长度小于等于 maxLen，返回原 ID；否则返回前 maxLen 个字符。
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}
