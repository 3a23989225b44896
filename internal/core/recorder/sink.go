// Package recorder 将全部事件按顺序写入 CBOR 序列文件
//
// 每个进程会话生成一个 UUID，写入每条记录，便于区分追加到同一文件的多次运行。
// 写入失败只返回错误，不中断节点。
package recorder

import (
	"errors"
	"os"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/dep2p/go-dep2p-ping/internal/core/dispatcher"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/recorder")

var (
	// ErrClosed 记录器已关闭
	ErrClosed = errors.New("recorder: closed")

	// ErrNoPath 未指定文件路径
	ErrNoPath = errors.New("recorder: no path")
)

// Sink 事件记录器
type Sink struct {
	session string
	clock   clock.Clock

	mu      sync.Mutex
	file    *os.File
	encoder *cbor.Encoder
	seq     uint64
	closed  bool
}

var _ dispatcher.Sink = (*Sink)(nil)

// NewSink 打开 path 并追加记录，文件不存在时以 0644 创建
func NewSink(path string, clk clock.Clock) (*Sink, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	if clk == nil {
		clk = clock.New()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	s := &Sink{
		session: uuid.New().String(),
		clock:   clk,
		file:    f,
		encoder: NewEncoder(f),
	}
	logger.Info("事件记录已开启", "path", path, "session", s.session)
	return s, nil
}

// Session 返回本次会话 ID
func (s *Sink) Session() string {
	return s.session
}

// Close 关闭文件，可重复调用
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

func (s *Sink) write(kind types.EventKind, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.seq++
	r.Timestamp = s.clock.Now()
	r.Session = s.session
	r.Seq = s.seq
	r.Kind = string(kind)
	return s.encoder.Encode(r)
}

func (s *Sink) ListenAddressReported(ev types.ListenAddressReported) error {
	return s.write(ev.Kind(), Record{
		ListenerID: uint64(ev.ListenerID),
		Addrs:      []string{addrString(ev.Addr)},
	})
}

func (s *Sink) ListenerClosed(ev types.ListenerClosed) error {
	return s.write(ev.Kind(), Record{
		ListenerID: uint64(ev.ListenerID),
		Addrs:      addrStrings(ev.Addrs),
		Error:      errString(ev.Err),
	})
}

func (s *Sink) ConnectionEstablished(ev types.ConnectionEstablished) error {
	r := Record{
		Peer:           ev.Peer.String(),
		ConnID:         uint64(ev.ConnID),
		NumEstablished: ev.NumEstablished,
		EstablishedIn:  int64(ev.EstablishedIn),
	}
	r.setEndpoint(ev.Endpoint)
	for _, de := range ev.ConcurrentDialErrors {
		r.DialErrors = append(r.DialErrors, de.Error())
	}
	return s.write(ev.Kind(), r)
}

func (s *Sink) ConnectionClosed(ev types.ConnectionClosed) error {
	r := Record{
		Peer:           ev.Peer.String(),
		ConnID:         uint64(ev.ConnID),
		NumEstablished: ev.NumEstablished,
		Cause:          ev.Cause.Reason.String(),
		Error:          errString(ev.Cause.Err),
	}
	r.setEndpoint(ev.Endpoint)
	return s.write(ev.Kind(), r)
}

func (s *Sink) ProtocolEvent(ev types.ProtocolEvent) error {
	r := Record{
		Peer:     ev.Peer.String(),
		ConnID:   uint64(ev.ConnID),
		Protocol: string(ev.Protocol),
	}
	if ev.Ping.OK() {
		r.RTT = int64(ev.Ping.RTT)
	} else {
		r.Failure = ev.Ping.Failure.String()
		r.Error = errString(ev.Ping.Err)
	}
	return s.write(ev.Kind(), r)
}

func (s *Sink) DialError(ev types.DialError) error {
	return s.write(ev.Kind(), Record{
		Peer:   ev.Peer.String(),
		ConnID: uint64(ev.ConnID),
		Remote: addrString(ev.Addr),
		Error:  errString(ev.Err),
	})
}

func (s *Sink) IncomingConnectionError(ev types.IncomingConnectionError) error {
	return s.write(ev.Kind(), Record{
		ListenerID: uint64(ev.ListenerID),
		ConnID:     uint64(ev.ConnID),
		Local:      addrString(ev.Local),
		Remote:     addrString(ev.Remote),
		Error:      errString(ev.Err),
	})
}

func (s *Sink) ListenError(ev types.ListenError) error {
	return s.write(ev.Kind(), Record{
		ListenerID: uint64(ev.ListenerID),
		Error:      errString(ev.Err),
	})
}
