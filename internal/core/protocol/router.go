// Package protocol 实现流协议路由
//
// 入站流先经 multistream-select 协商协议，再分发给注册的处理器；
// 出站流通过 Select 向对端提议单个协议。
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	mss "github.com/multiformats/go-multistream"

	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/protocol")

// DefaultNegotiateTimeout 入站流协商超时
const DefaultNegotiateTimeout = 10 * time.Second

// Handler 协议流处理函数，返回时应已关闭或重置流
type Handler func(s *swarm.Stream)

// Router 协议路由器
type Router struct {
	mux *mss.MultistreamMuxer[types.ProtocolID]

	negotiateTimeout time.Duration
}

// NewRouter 创建协议路由器
func NewRouter() *Router {
	return &Router{
		mux:              mss.NewMultistreamMuxer[types.ProtocolID](),
		negotiateTimeout: DefaultNegotiateTimeout,
	}
}

// Handle 注册协议处理器
func (r *Router) Handle(proto types.ProtocolID, h Handler) error {
	if !validProtocolID(proto) {
		return fmt.Errorf("%w: %q", ErrInvalidProtocolID, proto)
	}
	if h == nil {
		return ErrNilHandler
	}
	if slices.Contains(r.mux.Protocols(), proto) {
		return fmt.Errorf("%w: %s", ErrDuplicateProtocol, proto)
	}

	r.mux.AddHandler(proto, func(_ types.ProtocolID, rwc io.ReadWriteCloser) error {
		h(rwc.(*swarm.Stream))
		return nil
	})
	logger.Debug("注册协议处理器", "protocol", proto)
	return nil
}

// Remove 注销协议处理器
func (r *Router) Remove(proto types.ProtocolID) error {
	if !slices.Contains(r.mux.Protocols(), proto) {
		return fmt.Errorf("%w: %s", ErrProtocolNotRegistered, proto)
	}
	r.mux.RemoveHandler(proto)
	return nil
}

// Protocols 返回已注册的协议
func (r *Router) Protocols() []types.ProtocolID {
	return r.mux.Protocols()
}

// HandleStream 协商入站流协议并分发
//
// 协商失败或对端提议的协议均不支持时重置流。
func (r *Router) HandleStream(s *swarm.Stream) {
	_ = s.SetDeadline(time.Now().Add(r.negotiateTimeout))
	proto, h, err := r.mux.Negotiate(s)
	if err != nil {
		logger.Debug("入站流协商失败",
			"peer", s.RemotePeer().ShortString(),
			"conn", s.ConnID(),
			"error", err)
		_ = s.Reset()
		return
	}
	_ = s.SetDeadline(time.Time{})
	s.SetProtocol(proto)

	if err := h(proto, s); err != nil {
		logger.Debug("协议处理器返回错误", "protocol", proto, "error", err)
	}
}

// Select 在出站流上协商单个协议
//
// 对端不支持时返回的错误满足 IsNotSupported。
func Select(s *swarm.Stream, proto types.ProtocolID) error {
	if err := mss.SelectProtoOrFail(proto, s); err != nil {
		return err
	}
	s.SetProtocol(proto)
	return nil
}

// NewStream 在连接上打开流并协商 proto，失败时重置流
func NewStream(ctx context.Context, c *swarm.Conn, proto types.ProtocolID) (*swarm.Stream, error) {
	s, err := c.NewStream(ctx)
	if err != nil {
		return nil, err
	}
	if d, ok := ctx.Deadline(); ok {
		_ = s.SetDeadline(d)
	}
	if err := Select(s, proto); err != nil {
		_ = s.Reset()
		return nil, err
	}
	_ = s.SetDeadline(time.Time{})
	return s, nil
}

// IsNotSupported 判断错误是否为对端不支持协议
func IsNotSupported(err error) bool {
	var ns mss.ErrNotSupported[types.ProtocolID]
	return errors.As(err, &ns)
}

func validProtocolID(p types.ProtocolID) bool {
	return strings.HasPrefix(string(p), "/") && !strings.ContainsAny(string(p), "\n")
}
