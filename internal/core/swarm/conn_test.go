package swarm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/libp2p/go-yamux/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

func TestIsRemoteClose(t *testing.T) {
	reset := &net.OpError{
		Op:  "read",
		Net: "tcp",
		Err: os.NewSyscallError("read", syscall.ECONNRESET),
	}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "eof", err: io.EOF, want: true},
		{name: "closed pipe", err: fmt.Errorf("read: %w", io.ErrClosedPipe), want: true},
		{name: "connection reset", err: reset, want: true},
		{name: "session closed", err: fmt.Errorf("%w: %w", muxer.ErrConnClosed, yamux.ErrSessionShutdown), want: true},
		{name: "remote go away", err: yamux.ErrRemoteGoAway, want: true},
		{name: "net closed", err: net.ErrClosed, want: true},
		{name: "decrypt failure", err: errors.New("decrypt: message authentication failed"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRemoteClose(tt.err))
		})
	}
}

// TestSwarm_RemoteCloseCause 对端正常关闭时本端原因为 remote-close
func TestSwarm_RemoteCloseCause(t *testing.T) {
	tests := []struct {
		name   string
		listen string
	}{
		{name: "memory", listen: "/memory/0"},
		{name: "tcp", listen: "/ip4/127.0.0.1/tcp/0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 10 {
				a, qa := newTestSwarm(t)
				b, qb := newTestSwarm(t)

				_, err := a.Listen(multiaddr.StringCast(tt.listen))
				require.NoError(t, err)
				reported := nextEvent[types.ListenAddressReported](t, qa, nil)
				p2p, err := multiaddr.NewComponent("p2p", a.LocalPeer().String())
				require.NoError(t, err)

				id, err := b.Dial(context.Background(), reported.Addr.Encapsulate(p2p))
				require.NoError(t, err)
				nextEvent(t, qb, func(e types.ConnectionEstablished) bool { return e.ConnID == id })
				nextEvent[types.ConnectionEstablished](t, qa, nil)

				require.NoError(t, b.CloseConn(id))
				local := nextEvent(t, qb, func(e types.ConnectionClosed) bool { return e.ConnID == id })
				assert.Equal(t, types.CloseLocal, local.Cause.Reason)

				remote := nextEvent[types.ConnectionClosed](t, qa, nil)
				require.Equal(t, types.CloseRemote, remote.Cause.Reason, "cause: %v", remote.Cause.Err)
			}
		})
	}
}
