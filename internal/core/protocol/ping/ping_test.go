package ping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	"github.com/dep2p/go-dep2p-ping/internal/core/protocol"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm/swarmtest"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

func testConfig() config.PingConfig {
	cfg := config.DefaultPingConfig()
	cfg.Interval = config.Duration(time.Hour)
	cfg.Timeout = config.Duration(5 * time.Second)
	return cfg
}

// newPingNode 创建注册了回显处理器的节点；probe 为 true 时同时启动探测
func newPingNode(t *testing.T, cfg config.PingConfig, probe bool) (*swarmtest.Node, *protocol.Router) {
	t.Helper()
	n := swarmtest.NewNode(t)
	r := protocol.NewRouter()
	n.Swarm.SetStreamHandler(r.HandleStream)

	svc, err := NewService(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, r.Handle(protocolids.Ping, svc.Handler))
	if probe {
		n.Swarm.Notify(svc)
	}
	return n, r
}

func nextPing(t *testing.T, n *swarmtest.Node) types.ProtocolEvent {
	t.Helper()
	return swarmtest.NextEvent(t, n.Events, func(e types.ProtocolEvent) bool {
		return e.Protocol == protocolids.Ping
	})
}

func TestNewService_InvalidConfig(t *testing.T) {
	cfg := config.DefaultPingConfig()
	cfg.Interval = 0
	_, err := NewService(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPing_BothSidesProbe(t *testing.T) {
	a, _ := newPingNode(t, testConfig(), true)
	b, _ := newPingNode(t, testConfig(), true)

	in, out := swarmtest.Connect(t, a, b)

	evB := nextPing(t, b)
	assert.True(t, evB.Ping.OK(), "outcome: %v", evB.Ping.Err)
	assert.Greater(t, evB.Ping.RTT, time.Duration(0))
	assert.Equal(t, out.ID(), evB.ConnID)
	assert.Equal(t, a.Swarm.LocalPeer(), evB.Peer)

	evA := nextPing(t, a)
	assert.True(t, evA.Ping.OK(), "outcome: %v", evA.Ping.Err)
	assert.Equal(t, in.ID(), evA.ConnID)
}

func TestPing_StreamReused(t *testing.T) {
	cfg := testConfig()
	cfg.Interval = config.Duration(20 * time.Millisecond)

	a := swarmtest.NewNode(t)
	r := protocol.NewRouter()
	a.Swarm.SetStreamHandler(r.HandleStream)
	echo, err := NewService(cfg, nil)
	require.NoError(t, err)
	var streams atomic.Int32
	require.NoError(t, r.Handle(protocolids.Ping, func(s *swarm.Stream) {
		streams.Add(1)
		echo.Handler(s)
	}))

	b, _ := newPingNode(t, cfg, true)
	swarmtest.Connect(t, a, b)

	for i := 0; i < 3; i++ {
		ev := nextPing(t, b)
		require.True(t, ev.Ping.OK(), "probe %d: %v", i, ev.Ping.Err)
	}
	assert.Equal(t, int32(1), streams.Load())
}

func TestPing_Unsupported(t *testing.T) {
	a := swarmtest.NewNode(t)
	a.Swarm.SetStreamHandler(protocol.NewRouter().HandleStream)
	b, _ := newPingNode(t, testConfig(), true)

	swarmtest.Connect(t, a, b)

	ev := nextPing(t, b)
	assert.Equal(t, types.PingUnsupported, ev.Ping.Failure)
	assert.Error(t, ev.Ping.Err)
}

func TestPing_MalformedEcho(t *testing.T) {
	a := swarmtest.NewNode(t)
	r := protocol.NewRouter()
	a.Swarm.SetStreamHandler(r.HandleStream)
	require.NoError(t, r.Handle(protocolids.Ping, func(s *swarm.Stream) {
		defer s.Close()
		buf := make([]byte, PingSize)
		if _, err := io.ReadFull(s, buf); err != nil {
			return
		}
		_, _ = s.Write(make([]byte, PingSize))
	}))
	b, _ := newPingNode(t, testConfig(), true)

	swarmtest.Connect(t, a, b)

	ev := nextPing(t, b)
	assert.Equal(t, types.PingMalformedEcho, ev.Ping.Failure)
	assert.ErrorIs(t, ev.Ping.Err, ErrMalformedEcho)
}

func TestPing_Timeout(t *testing.T) {
	a := swarmtest.NewNode(t)
	r := protocol.NewRouter()
	a.Swarm.SetStreamHandler(r.HandleStream)
	require.NoError(t, r.Handle(protocolids.Ping, func(s *swarm.Stream) {
		defer s.Close()
		_, _ = io.Copy(io.Discard, s)
	}))

	cfg := testConfig()
	cfg.Timeout = config.Duration(200 * time.Millisecond)
	b, _ := newPingNode(t, cfg, true)

	swarmtest.Connect(t, a, b)

	ev := nextPing(t, b)
	assert.Equal(t, types.PingTimeout, ev.Ping.Failure)
}

func TestPing_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	a, _ := newPingNode(t, cfg, true)
	b, _ := newPingNode(t, cfg, true)

	swarmtest.Connect(t, a, b)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	for {
		ev, err := b.Events.Next(ctx)
		if err != nil {
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			return
		}
		_, isPing := ev.(types.ProtocolEvent)
		require.False(t, isPing, "unexpected ping event")
	}
}

func TestService_Ping(t *testing.T) {
	a, _ := newPingNode(t, testConfig(), false)
	b := swarmtest.NewNode(t)
	_, out := swarmtest.Connect(t, a, b)

	svc, err := NewService(testConfig(), nil)
	require.NoError(t, err)
	rtt, err := svc.Ping(context.Background(), out)
	require.NoError(t, err)
	assert.Greater(t, rtt, time.Duration(0))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want types.PingFailure
	}{
		{os.ErrDeadlineExceeded, types.PingTimeout},
		{fmt.Errorf("read: %w", timeoutErr{}), types.PingTimeout},
		{context.DeadlineExceeded, types.PingTimeout},
		{muxer.ErrStreamReset, types.PingStreamReset},
		{fmt.Errorf("read: %w", muxer.ErrConnClosed), types.PingIO},
		{ErrMalformedEcho, types.PingMalformedEcho},
		{io.ErrUnexpectedEOF, types.PingIO},
		{errors.New("boom"), types.PingIO},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}
