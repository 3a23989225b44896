package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfig_Defaults 测试默认配置
func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30*time.Second, cfg.Swarm.IdleTimeout.Duration())
	assert.Equal(t, 15*time.Second, cfg.Ping.Interval.Duration())
	assert.Equal(t, 20*time.Second, cfg.Ping.Timeout.Duration())
	assert.Equal(t, 0, cfg.Swarm.MaxPingFailures)
	assert.Equal(t, []string{"/ip4/0.0.0.0/tcp/0"}, cfg.Swarm.ListenAddrs)
	assert.Equal(t, []string{"noise", "tls"}, cfg.Security.Order())
}

func TestValidate_Errors(t *testing.T) {
	cfg := NewConfig()
	cfg.Transport = TransportConfig{}
	cfg.Security.EnableTLS, cfg.Security.EnableNoise = false, false
	cfg.Identity.KeyType = "rsa"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTransport)
	assert.ErrorIs(t, err, ErrNoSecurity)
	assert.ErrorIs(t, err, ErrInvalidKeyType)
}

func TestSecurityConfig_Order(t *testing.T) {
	c := SecurityConfig{EnableTLS: true, EnableNoise: true, PreferredProtocol: "tls"}
	assert.Equal(t, []string{"tls", "noise"}, c.Order())

	c.EnableNoise = false
	assert.Equal(t, []string{"tls"}, c.Order())
}

func TestDuration_JSON(t *testing.T) {
	var v struct {
		D Duration `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"1m30s"}`), &v))
	assert.Equal(t, 90*time.Second, v.D.Duration())

	require.NoError(t, json.Unmarshal([]byte(`{"d":1000}`), &v))
	assert.Equal(t, time.Microsecond, v.D.Duration())

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"1µs"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"d":"soon"}`), &v))
}

// TestLoad_YAML 测试从 YAML 文件加载
func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
swarm:
  idle_timeout: 1m
  max_ping_failures: 3
ping:
  interval: 5s
security:
  preferred_protocol: tls
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Swarm.IdleTimeout.Duration())
	assert.Equal(t, 3, cfg.Swarm.MaxPingFailures)
	assert.Equal(t, 5*time.Second, cfg.Ping.Interval.Duration())
	// 未出现的字段保持默认
	assert.Equal(t, 20*time.Second, cfg.Ping.Timeout.Duration())
	assert.Equal(t, []string{"tls", "noise"}, cfg.Security.Order())
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ping":{"timeout":"2s"}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Ping.Timeout.Duration())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	toml := filepath.Join(dir, "node.toml")
	require.NoError(t, os.WriteFile(toml, []byte(""), 0o600))
	_, err = Load(toml)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("swarm:\n  bogus: 1\n"), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"swarm":{"idle_timeout":"0s"}}`), 0o600))
	_, err = Load(invalid)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestToYAML_RoundTrip(t *testing.T) {
	cfg := NewConfig()
	cfg.Swarm.IdleTimeout = Duration(42 * time.Second)
	data, err := cfg.ToYAML()
	require.NoError(t, err)

	back, err := FromYAML(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
