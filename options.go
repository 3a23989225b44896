package dep2p

import (
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/multiaddr"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	config      *config.Config
	listenAddrs []multiaddr.Multiaddr
	privateKey  crypto.PrivateKey
	sinks       []Sink
	clock       clock.Clock
	fxOptions   []fx.Option
}

func defaultOptions() *options {
	return &options{config: config.NewConfig()}
}

// WithConfig 使用完整配置替换默认配置
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidOption)
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 YAML/JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithListenAddrs 设置启动时监听的地址
//
// 地址在 Start 时依次监听，任一失败则 Start 返回错误。
func WithListenAddrs(addrs ...string) Option {
	return func(o *options) error {
		for _, s := range addrs {
			a, err := multiaddr.NewMultiaddr(s)
			if err != nil {
				return fmt.Errorf("%w: listen address %q: %w", ErrInvalidOption, s, err)
			}
			o.listenAddrs = append(o.listenAddrs, a)
		}
		return nil
	}
}

// WithPrivateKey 使用指定私钥作为节点身份
func WithPrivateKey(key crypto.PrivateKey) Option {
	return func(o *options) error {
		if key == nil {
			return fmt.Errorf("%w: nil private key", ErrInvalidOption)
		}
		o.privateKey = key
		return nil
	}
}

// WithSink 追加事件 Sink
//
// Sink 在分发器 goroutine 中按事件顺序被调用，不得长时间阻塞。
func WithSink(s Sink) Option {
	return func(o *options) error {
		if s == nil {
			return fmt.Errorf("%w: nil sink", ErrInvalidOption)
		}
		o.sinks = append(o.sinks, s)
		return nil
	}
}

// WithClock 注入时钟，驱动空闲超时与探测间隔
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidOption)
		}
		o.clock = c
		return nil
	}
}

// WithFxOption 追加自定义 fx 选项
func WithFxOption(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
