package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuffer(t *testing.T, cfg *Config) *bytes.Buffer {
	t.Helper()
	prev := CurrentConfig()
	prevOut := output
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetConfig(cfg)
	t.Cleanup(func() {
		SetConfig(prev)
		SetOutput(prevOut)
	})
	return buf
}

// TestLazyLogger_SubsystemLevel 测试子系统级别过滤
func TestLazyLogger_SubsystemLevel(t *testing.T) {
	cfg := &Config{DefaultLevel: slog.LevelInfo, SubsystemLevels: map[string]slog.Level{}}
	ParseLevelConfig(cfg, "core/protocol=debug,warn")
	buf := withBuffer(t, cfg)

	Logger("core/protocol/ping").Debug("probe ok", "rtt", "1ms")
	Logger("core/swarm").Info("dropped")
	Logger("core/swarm").Warn("kept")

	out := buf.String()
	assert.Contains(t, out, "probe ok")
	assert.Contains(t, out, "component=core/protocol/ping")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

// TestParseLevelConfig 测试级别字符串解析
func TestParseLevelConfig(t *testing.T) {
	cfg := &Config{DefaultLevel: slog.LevelInfo, SubsystemLevels: map[string]slog.Level{}}
	ParseLevelConfig(cfg, " core/swarm=debug , bogus=loud, error ")

	require.Len(t, cfg.SubsystemLevels, 1)
	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("core/swarm"))
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("core/muxer"))
}

// TestLazyLogger_Enabled 测试 Enabled 判断
func TestLazyLogger_Enabled(t *testing.T) {
	withBuffer(t, &Config{DefaultLevel: slog.LevelWarn, SubsystemLevels: map[string]slog.Level{}})

	l := Logger("x")
	assert.False(t, l.Enabled(LevelInfo))
	assert.True(t, l.Enabled(LevelError))

	SetLevel(LevelDebug)
	assert.True(t, l.Enabled(LevelDebug))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", TruncateID("abc", 8))
	assert.Equal(t, "12D3KooW", TruncateID("12D3KooWabcdef", 8))
}
