package dispatcher

import "github.com/dep2p/go-dep2p-ping/pkg/types"

//go:generate mockgen -destination=mock_sink_test.go -package=dispatcher . Sink

// Sink 事件接收端
//
// 每个方法对应 SwarmEvent 的一个变体，由分发器在单个 goroutine 中按事件顺序调用。
// 返回的错误只会被记录，不影响后续事件。
type Sink interface {
	ListenAddressReported(ev types.ListenAddressReported) error
	ListenerClosed(ev types.ListenerClosed) error
	ConnectionEstablished(ev types.ConnectionEstablished) error
	ConnectionClosed(ev types.ConnectionClosed) error
	ProtocolEvent(ev types.ProtocolEvent) error
	DialError(ev types.DialError) error
	IncomingConnectionError(ev types.IncomingConnectionError) error
	ListenError(ev types.ListenError) error
}

// BaseSink 忽略全部事件，供只关心部分事件的 Sink 嵌入
type BaseSink struct{}

func (BaseSink) ListenAddressReported(types.ListenAddressReported) error     { return nil }
func (BaseSink) ListenerClosed(types.ListenerClosed) error                   { return nil }
func (BaseSink) ConnectionEstablished(types.ConnectionEstablished) error     { return nil }
func (BaseSink) ConnectionClosed(types.ConnectionClosed) error               { return nil }
func (BaseSink) ProtocolEvent(types.ProtocolEvent) error                     { return nil }
func (BaseSink) DialError(types.DialError) error                             { return nil }
func (BaseSink) IncomingConnectionError(types.IncomingConnectionError) error { return nil }
func (BaseSink) ListenError(types.ListenError) error                         { return nil }

var _ Sink = BaseSink{}
