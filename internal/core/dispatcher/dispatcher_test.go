package dispatcher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"

	"github.com/dep2p/go-dep2p-ping/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

func runUntilClosed(t *testing.T, d *Dispatcher, q *eventbus.Queue) {
	t.Helper()
	q.Close()
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not exit")
	}
}

func TestNew_NilSource(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

func TestDispatcher_RoutesInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)

	addr := multiaddr.StringCast("/ip4/127.0.0.1/tcp/4001")
	events := []types.SwarmEvent{
		types.ListenAddressReported{ListenerID: 1, Addr: addr},
		types.ConnectionEstablished{ConnID: 1, NumEstablished: 1},
		types.ProtocolEvent{ConnID: 1, Protocol: protocolids.Ping, Ping: types.PingOutcome{RTT: time.Millisecond}},
		types.ConnectionClosed{ConnID: 1, Cause: types.CloseCause{Reason: types.CloseIdleTimeout}},
		types.DialError{ConnID: 2, Err: errors.New("refused")},
		types.IncomingConnectionError{ListenerID: 1, ConnID: 3, Err: errors.New("handshake")},
		types.ListenError{ListenerID: 1, Err: errors.New("accept")},
		types.ListenerClosed{ListenerID: 1},
	}
	gomock.InOrder(
		sink.EXPECT().ListenAddressReported(events[0]),
		sink.EXPECT().ConnectionEstablished(events[1]),
		sink.EXPECT().ProtocolEvent(events[2]),
		sink.EXPECT().ConnectionClosed(events[3]),
		sink.EXPECT().DialError(events[4]),
		sink.EXPECT().IncomingConnectionError(events[5]),
		sink.EXPECT().ListenError(events[6]),
		sink.EXPECT().ListenerClosed(events[7]),
	)

	q := eventbus.NewQueue()
	for _, ev := range events {
		q.Emit(ev)
	}
	d, err := New(q, sink)
	require.NoError(t, err)
	runUntilClosed(t, d, q)
}

func TestDispatcher_SinkErrorDoesNotStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	failing := NewMockSink(ctrl)
	healthy := NewMockSink(ctrl)

	first := types.DialError{ConnID: 1, Err: errors.New("x")}
	second := types.DialError{ConnID: 2, Err: errors.New("y")}
	failing.EXPECT().DialError(gomock.Any()).Return(errors.New("sink broken")).Times(2)
	gomock.InOrder(
		healthy.EXPECT().DialError(first),
		healthy.EXPECT().DialError(second),
	)

	q := eventbus.NewQueue()
	q.Emit(first)
	q.Emit(second)
	d, err := New(q, failing, healthy)
	require.NoError(t, err)
	runUntilClosed(t, d, q)
}

type panicSink struct {
	BaseSink
}

func (panicSink) DialError(types.DialError) error {
	panic("sink exploded")
}

func TestDispatcher_SinkPanicDoesNotStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	healthy := NewMockSink(ctrl)

	first := types.DialError{ConnID: 1, Err: errors.New("x")}
	second := types.DialError{ConnID: 2, Err: errors.New("y")}
	gomock.InOrder(
		healthy.EXPECT().DialError(first),
		healthy.EXPECT().DialError(second),
	)

	q := eventbus.NewQueue()
	q.Emit(first)
	q.Emit(second)
	d, err := New(q, panicSink{}, healthy)
	require.NoError(t, err)
	runUntilClosed(t, d, q)
}

func TestSafeDeliver_Panic(t *testing.T) {
	err := safeDeliver(panicSink{}, types.DialError{ConnID: 1})
	require.ErrorIs(t, err, ErrSinkPanic)
	assert.Contains(t, err.Error(), "sink exploded")

	assert.NoError(t, safeDeliver(panicSink{}, types.ListenError{ListenerID: 1}))
}

func TestDispatcher_ContextCancel(t *testing.T) {
	q := eventbus.NewQueue()
	d, err := New(q)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not exit")
	}
}

func TestLogSink_Levels(t *testing.T) {
	prev := log.CurrentConfig()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetConfig(&log.Config{DefaultLevel: slog.LevelInfo, SubsystemLevels: map[string]slog.Level{}})
	t.Cleanup(func() {
		log.SetConfig(prev)
		log.SetOutput(os.Stderr)
	})

	s := NewLogSink()
	require.NoError(t, s.ListenAddressReported(types.ListenAddressReported{
		ListenerID: 1,
		Addr:       multiaddr.StringCast("/ip4/127.0.0.1/tcp/4001"),
	}))
	require.NoError(t, s.ProtocolEvent(types.ProtocolEvent{Ping: types.PingOutcome{RTT: time.Millisecond}}))
	require.NoError(t, s.ConnectionClosed(types.ConnectionClosed{Cause: types.CloseCause{Reason: types.CloseIdleTimeout}}))

	out := buf.String()
	assert.Contains(t, out, "Listening on")
	assert.Contains(t, out, "/ip4/127.0.0.1/tcp/4001")
	assert.Contains(t, out, "idle-timeout")
	assert.NotContains(t, out, "Ping")
}

func TestModule_DrainsOnStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	ev := types.ConnectionClosed{ConnID: 7, Cause: types.CloseCause{Reason: types.CloseShutdown}}
	sink.EXPECT().ConnectionClosed(ev)

	var q *eventbus.Queue
	app := fxtest.New(t,
		eventbus.Module(),
		Module(),
		fx.Provide(AsSink(func() *MockSink { return sink })),
		fx.Populate(&q),
	)
	app.RequireStart()
	q.Emit(ev)
	app.RequireStop()
}
