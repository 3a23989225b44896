package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/internal/core/dispatcher"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

func TestNewSink_NoPath(t *testing.T) {
	_, err := NewSink("", nil)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")
	mock := clock.NewMock()
	mock.Set(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	s, err := NewSink(path, mock)
	require.NoError(t, err)

	local := multiaddr.StringCast("/ip4/127.0.0.1/tcp/4001")
	remote := multiaddr.StringCast("/ip4/127.0.0.1/tcp/4002")
	events := []types.SwarmEvent{
		types.ListenAddressReported{ListenerID: 1, Addr: local},
		types.ConnectionEstablished{
			Peer:           "12D3KooWtest",
			ConnID:         1,
			Endpoint:       types.Endpoint{Direction: types.DirOutbound, Local: local, Remote: remote},
			NumEstablished: 1,
			EstablishedIn:  5 * time.Millisecond,
		},
		types.ProtocolEvent{Peer: "12D3KooWtest", ConnID: 1, Protocol: protocolids.Ping, Ping: types.PingOutcome{RTT: time.Millisecond}},
		types.ProtocolEvent{Peer: "12D3KooWtest", ConnID: 1, Protocol: protocolids.Ping, Ping: types.PingOutcome{Failure: types.PingTimeout, Err: errors.New("deadline")}},
		types.ConnectionClosed{Peer: "12D3KooWtest", ConnID: 1, Cause: types.CloseCause{Reason: types.CloseIdleTimeout}},
		types.ListenerClosed{ListenerID: 1, Addrs: []multiaddr.Multiaddr{local}},
	}
	for _, ev := range events {
		mock.Add(time.Second)
		require.NoError(t, dispatcher.Deliver(s, ev))
	}
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.DialError(types.DialError{}), ErrClosed)

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, len(events))

	for i, r := range recs {
		assert.Equal(t, uint64(i+1), r.Seq)
		assert.Equal(t, s.Session(), r.Session)
		assert.Equal(t, string(events[i].Kind()), r.Kind)
	}
	assert.True(t, recs[0].Timestamp.Before(recs[1].Timestamp))
	assert.Equal(t, []string{"/ip4/127.0.0.1/tcp/4001"}, recs[0].Addrs)
	assert.Equal(t, "/ip4/127.0.0.1/tcp/4002", recs[1].Remote)
	assert.Equal(t, int64(5*time.Millisecond), recs[1].EstablishedIn)
	assert.Equal(t, 1, recs[1].NumEstablished)
	assert.Equal(t, int64(time.Millisecond), recs[2].RTT)
	assert.Equal(t, "timeout", recs[3].Failure)
	assert.Equal(t, "deadline", recs[3].Error)
	assert.Equal(t, "idle-timeout", recs[4].Cause)
	assert.Equal(t, 0, recs[4].NumEstablished)
}

func TestSink_AppendsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	first, err := NewSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, first.DialError(types.DialError{ConnID: 1, Err: errors.New("refused")}))
	require.NoError(t, first.Close())

	second, err := NewSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, second.ListenError(types.ListenError{ListenerID: 2, Err: errors.New("accept")}))
	require.NoError(t, second.Close())

	recs, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.NotEqual(t, recs[0].Session, recs[1].Session)
	assert.Equal(t, uint64(1), recs[1].Seq)
	assert.Equal(t, "refused", recs[0].Error)
}
