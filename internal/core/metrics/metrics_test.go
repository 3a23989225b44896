package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm/swarmtest"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

func TestSink_Connections(t *testing.T) {
	s := NewSink(nil)

	require.NoError(t, s.ConnectionEstablished(types.ConnectionEstablished{
		ConnID:        1,
		Endpoint:      types.Endpoint{Direction: types.DirOutbound},
		EstablishedIn: 20 * time.Millisecond,
	}))
	require.NoError(t, s.ConnectionEstablished(types.ConnectionEstablished{
		ConnID:   2,
		Endpoint: types.Endpoint{Direction: types.DirInbound},
	}))
	require.NoError(t, s.ConnectionClosed(types.ConnectionClosed{
		ConnID: 1,
		Cause:  types.CloseCause{Reason: types.CloseIdleTimeout},
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.established.WithLabelValues(types.DirOutbound.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.established.WithLabelValues(types.DirInbound.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.closed.WithLabelValues("idle-timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.open))
	assert.Equal(t, 1, testutil.CollectAndCount(s.establishTime))
}

func TestSink_Ping(t *testing.T) {
	s := NewSink(nil)

	require.NoError(t, s.ProtocolEvent(types.ProtocolEvent{
		Protocol: protocolids.Ping,
		Ping:     types.PingOutcome{RTT: 3 * time.Millisecond},
	}))
	require.NoError(t, s.ProtocolEvent(types.ProtocolEvent{
		Protocol: protocolids.Ping,
		Ping:     types.PingOutcome{Failure: types.PingTimeout, Err: errors.New("timeout")},
	}))

	assert.Equal(t, 1.0, testutil.ToFloat64(s.pingFailures.WithLabelValues("timeout")))
	out := strings.NewReader(`
# HELP dep2p_ping_failures_total Failed pings by kind.
# TYPE dep2p_ping_failures_total counter
dep2p_ping_failures_total{kind="timeout"} 1
`)
	require.NoError(t, testutil.CollectAndCompare(s.pingFailures, out))
}

func TestSink_Listeners(t *testing.T) {
	s := NewSink(nil)
	a := multiaddr.StringCast("/ip4/127.0.0.1/tcp/4001")
	b := multiaddr.StringCast("/ip4/10.0.0.1/tcp/4001")

	require.NoError(t, s.ListenAddressReported(types.ListenAddressReported{ListenerID: 1, Addr: a}))
	require.NoError(t, s.ListenAddressReported(types.ListenAddressReported{ListenerID: 1, Addr: b}))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.listenAddrs))

	require.NoError(t, s.ListenError(types.ListenError{ListenerID: 1, Err: errors.New("accept")}))
	require.NoError(t, s.ListenerClosed(types.ListenerClosed{ListenerID: 1, Addrs: []multiaddr.Multiaddr{a, b}}))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.listenAddrs))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.listenerErrs))

	require.NoError(t, s.DialError(types.DialError{ConnID: 3, Err: errors.New("refused")}))
	require.NoError(t, s.IncomingConnectionError(types.IncomingConnectionError{ConnID: 4, Err: errors.New("noise")}))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.dialErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.incomingErrs))
}

func TestBandwidthCounter(t *testing.T) {
	bw := NewBandwidthCounter()
	bw.LogSentStream(10, "")
	bw.LogSentStream(32, protocolids.Ping)
	bw.LogRecvStream(32, protocolids.Ping)

	assert.Equal(t, Stats{TotalIn: 32, TotalOut: 42}, bw.Totals())
	assert.Equal(t, Stats{TotalIn: 32, TotalOut: 32}, bw.ForProtocol(protocolids.Ping))
	assert.Equal(t, Stats{}, bw.ForProtocol("/other/1.0.0"))

	expected := strings.NewReader(`
# HELP dep2p_stream_bytes_total Bytes transferred on streams, by direction and protocol.
# TYPE dep2p_stream_bytes_total counter
dep2p_stream_bytes_total{direction="in",protocol="/ipfs/ping/1.0.0"} 32
dep2p_stream_bytes_total{direction="in",protocol="unknown"} 0
dep2p_stream_bytes_total{direction="out",protocol="/ipfs/ping/1.0.0"} 32
dep2p_stream_bytes_total{direction="out",protocol="unknown"} 10
`)
	require.NoError(t, testutil.CollectAndCompare(bw, expected))
}

func TestServer_ServesMetrics(t *testing.T) {
	bw := NewBandwidthCounter()
	s := NewSink(bw)
	require.NoError(t, s.DialError(types.DialError{Err: errors.New("x")}))
	bw.LogSentStream(5, protocolids.Ping)

	cfg := config.DefaultMetricsConfig()
	cfg.Enabled = true
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, s.Registry())
	require.Nil(t, srv.Addr())
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	assert.ErrorIs(t, srv.Start(context.Background()), ErrServerStarted)

	resp, err := http.Get("http://" + srv.Addr().String() + cfg.Path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "dep2p_dial_errors_total 1")
	assert.Contains(t, string(body), `dep2p_stream_bytes_total{direction="out",protocol="/ipfs/ping/1.0.0"} 5`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestBandwidthCounter_SwarmStreams(t *testing.T) {
	bw := NewBandwidthCounter()
	a := swarmtest.NewNode(t)
	b := swarmtest.NewNode(t, swarm.WithBandwidthReporter(bw))
	_, out := swarmtest.Connect(t, a, b)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := out.NewStream(ctx)
	require.NoError(t, err)
	defer s.Reset()

	s.SetProtocol("/test/1.0.0")
	n, err := s.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, Stats{TotalOut: 5}, bw.ForProtocol("/test/1.0.0"))
}
