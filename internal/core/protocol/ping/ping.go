// Package ping 实现 /ipfs/ping/1.0.0 存活探测
//
// 每条连接建立后立即发起第一次探测，之后按 Interval 周期探测；
// 每次探测发送 32 字节随机负载，等待对端原样回显并测量往返时延。
// 探测结果通过 Conn.ReportPing 报告，由 Swarm 发出 ProtocolEvent。
//
// 探测流在成功后复用，失败后重置并在下一次探测时重新打开。
// 对端不支持协议时停止该连接上的探测。
package ping

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	"github.com/dep2p/go-dep2p-ping/internal/core/protocol"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/protocol/ping")

// PingSize 单次探测负载长度
const PingSize = 32

// Service Ping 服务
//
// 同时充当回显端（Handler）与探测端（swarm.Notifiee）。
type Service struct {
	cfg   config.PingConfig
	clock clock.Clock
}

var _ swarm.Notifiee = (*Service)(nil)

// NewService 创建 Ping 服务，clk 为 nil 时使用系统时钟
func NewService(cfg config.PingConfig, clk clock.Clock) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Service{cfg: cfg, clock: clk}, nil
}

// Handler 回显处理器
//
// 逐帧读取 32 字节并原样写回，直到对端关闭写方向。
func (s *Service) Handler(st *swarm.Stream) {
	buf := make([]byte, PingSize)
	for {
		if _, err := io.ReadFull(st, buf); err != nil {
			if errors.Is(err, io.EOF) {
				_ = st.Close()
			} else {
				_ = st.Reset()
			}
			return
		}
		if _, err := st.Write(buf); err != nil {
			_ = st.Reset()
			return
		}
	}
}

// Connected 在新连接上启动探测循环
func (s *Service) Connected(c *swarm.Conn) {
	if !s.cfg.Enabled {
		return
	}
	c.Go(func(ctx context.Context) {
		s.probeLoop(ctx, c)
	})
}

// Disconnected 连接关闭时无需处理，探测循环随连接上下文退出
func (s *Service) Disconnected(*swarm.Conn) {}

// Ping 在连接上执行一次探测，不报告结果
func (s *Service) Ping(ctx context.Context, c *swarm.Conn) (time.Duration, error) {
	out, st := s.probe(ctx, c, nil)
	if st != nil {
		_ = st.Close()
	}
	if !out.OK() {
		return 0, out.Err
	}
	return out.RTT, nil
}

// ============================================================================
//                              探测
// ============================================================================

func (s *Service) probeLoop(ctx context.Context, c *swarm.Conn) {
	var st *swarm.Stream
	defer func() {
		if st != nil {
			_ = st.Reset()
		}
	}()

	interval := s.cfg.Interval.Duration()
	for {
		var out types.PingOutcome
		out, st = s.probe(ctx, c, st)
		if ctx.Err() != nil {
			return
		}
		c.ReportPing(out)
		if out.Failure == types.PingUnsupported {
			logger.Debug("对端不支持 ping，停止探测",
				"peer", c.RemotePeer().ShortString(),
				"conn", c.ID())
			return
		}

		timer := s.clock.Timer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// probe 执行一次探测
//
// st 为上一次成功探测留下的流，为 nil 时新开流。
// 返回的流在成功时可复用，失败时已重置并返回 nil。
func (s *Service) probe(ctx context.Context, c *swarm.Conn, st *swarm.Stream) (types.PingOutcome, *swarm.Stream) {
	timeout := s.cfg.Timeout.Duration()

	if st == nil {
		octx, cancel := context.WithTimeout(ctx, timeout)
		ns, err := protocol.NewStream(octx, c, protocolids.Ping)
		cancel()
		if err != nil {
			return failure(err), nil
		}
		st = ns
	}

	payload := make([]byte, PingSize)
	if _, err := rand.Read(payload); err != nil {
		_ = st.Reset()
		return failure(err), nil
	}

	_ = st.SetDeadline(time.Now().Add(timeout))
	start := time.Now()
	if _, err := st.Write(payload); err != nil {
		_ = st.Reset()
		return failure(err), nil
	}
	echo := make([]byte, PingSize)
	if _, err := io.ReadFull(st, echo); err != nil {
		_ = st.Reset()
		return failure(err), nil
	}
	rtt := time.Since(start)

	if !bytes.Equal(payload, echo) {
		_ = st.Reset()
		return types.PingOutcome{Failure: types.PingMalformedEcho, Err: ErrMalformedEcho}, nil
	}
	_ = st.SetDeadline(time.Time{})
	return types.PingOutcome{RTT: rtt}, st
}

// failure 将错误归类为 ping 失败
func failure(err error) types.PingOutcome {
	return types.PingOutcome{Failure: classify(err), Err: err}
}

func classify(err error) types.PingFailure {
	var nerr net.Error
	switch {
	case protocol.IsNotSupported(err):
		return types.PingUnsupported
	case errors.Is(err, ErrMalformedEcho):
		return types.PingMalformedEcho
	case errors.Is(err, muxer.ErrStreamReset):
		return types.PingStreamReset
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &nerr) && nerr.Timeout():
		return types.PingTimeout
	default:
		return types.PingIO
	}
}
