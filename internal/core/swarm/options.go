package swarm

import (
	"context"
	"fmt"
	"net"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

// Resolver 解析 dns/dns4/dns6 地址
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// BandwidthReporter 记录流上收发的字节数
type BandwidthReporter interface {
	LogSentStream(size int64, proto types.ProtocolID)
	LogRecvStream(size int64, proto types.ProtocolID)
}

// Option Swarm 选项函数
type Option func(*Swarm) error

// WithConfig 设置配置
func WithConfig(cfg config.SwarmConfig) Option {
	return func(s *Swarm) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		s.config = cfg
		return nil
	}
}

// WithClock 设置时钟，测试中用 clock.Mock 驱动空闲计时器
func WithClock(c clock.Clock) Option {
	return func(s *Swarm) error {
		if c == nil {
			return ErrInvalidConfig
		}
		s.clock = c
		return nil
	}
}

// WithResolver 设置 DNS 解析器
func WithResolver(r Resolver) Option {
	return func(s *Swarm) error {
		if r == nil {
			return ErrInvalidConfig
		}
		s.resolver = r
		return nil
	}
}

// WithInterfaceAddrs 设置本机接口地址来源，用于展开通配监听地址
func WithInterfaceAddrs(f func() ([]net.Addr, error)) Option {
	return func(s *Swarm) error {
		if f == nil {
			return ErrInvalidConfig
		}
		s.interfaceAddrs = f
		return nil
	}
}

// WithBandwidthReporter 设置流量统计
func WithBandwidthReporter(r BandwidthReporter) Option {
	return func(s *Swarm) error {
		s.bandwidth = r
		return nil
	}
}
