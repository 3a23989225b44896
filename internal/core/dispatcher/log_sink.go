package dispatcher

import (
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var eventLogger = log.Logger("event")

// LogSink 将事件写为结构化日志
//
// 生命周期事件为 info，ping 结果为 debug，错误事件为 warn。
type LogSink struct{}

var _ Sink = LogSink{}

func (LogSink) ListenAddressReported(ev types.ListenAddressReported) error {
	eventLogger.Info("Listening on", "listener", ev.ListenerID, "addr", ev.Addr)
	return nil
}

func (LogSink) ListenerClosed(ev types.ListenerClosed) error {
	args := []any{"listener", ev.ListenerID, "addrs", ev.Addrs}
	if ev.Err != nil {
		args = append(args, "error", ev.Err)
	}
	eventLogger.Info("Listener closed", args...)
	return nil
}

func (LogSink) ConnectionEstablished(ev types.ConnectionEstablished) error {
	eventLogger.Info("Connection established",
		"peer", ev.Peer,
		"conn", ev.ConnID,
		"direction", ev.Endpoint.Direction,
		"local", ev.Endpoint.Local,
		"remote", ev.Endpoint.Remote,
		"num_established", ev.NumEstablished,
		"concurrent_dial_errors", len(ev.ConcurrentDialErrors),
		"established_in", ev.EstablishedIn)
	return nil
}

func (LogSink) ConnectionClosed(ev types.ConnectionClosed) error {
	eventLogger.Info("Connection closed",
		"peer", ev.Peer,
		"conn", ev.ConnID,
		"direction", ev.Endpoint.Direction,
		"remote", ev.Endpoint.Remote,
		"num_established", ev.NumEstablished,
		"cause", ev.Cause)
	return nil
}

func (LogSink) ProtocolEvent(ev types.ProtocolEvent) error {
	if ev.Ping.OK() {
		eventLogger.Debug("Ping",
			"peer", ev.Peer,
			"conn", ev.ConnID,
			"rtt", ev.Ping.RTT)
		return nil
	}
	eventLogger.Debug("Ping failed",
		"peer", ev.Peer,
		"conn", ev.ConnID,
		"failure", ev.Ping.Failure,
		"error", ev.Ping.Err)
	return nil
}

func (LogSink) DialError(ev types.DialError) error {
	eventLogger.Warn("Dial failed",
		"conn", ev.ConnID,
		"peer", ev.Peer,
		"addr", ev.Addr,
		"error", ev.Err)
	return nil
}

func (LogSink) IncomingConnectionError(ev types.IncomingConnectionError) error {
	eventLogger.Warn("Incoming connection failed",
		"listener", ev.ListenerID,
		"conn", ev.ConnID,
		"remote", ev.Remote,
		"error", ev.Err)
	return nil
}

func (LogSink) ListenError(ev types.ListenError) error {
	eventLogger.Warn("Listener error", "listener", ev.ListenerID, "error", ev.Err)
	return nil
}

// NewLogSink 创建日志 Sink
func NewLogSink() LogSink {
	return LogSink{}
}
