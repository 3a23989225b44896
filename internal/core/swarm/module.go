package swarm

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config     *config.Config
	Identity   *identity.Identity
	Transports []pkgif.Transport
	Emitter    eventbus.Emitter

	// Clock 外部注入的时钟（可选），测试用
	Clock clock.Clock `optional:"true"`

	// Bandwidth 流量统计（可选），由 metrics 模块提供
	Bandwidth BandwidthReporter `optional:"true"`
}

// ProvideSwarm 提供 Swarm
func ProvideSwarm(in ModuleInput) (*Swarm, error) {
	opts := []Option{WithConfig(in.Config.Swarm)}
	if in.Clock != nil {
		opts = append(opts, WithClock(in.Clock))
	}
	if in.Bandwidth != nil {
		opts = append(opts, WithBandwidthReporter(in.Bandwidth))
	}
	return New(in.Identity.PeerID(), in.Transports, in.Emitter, opts...)
}

// Module 返回 fx 模块配置
//
// 停止时关闭全部监听器与连接；传输层的关闭钩子先注册，因此晚于 Swarm 执行。
func Module() fx.Option {
	return fx.Module("swarm",
		fx.Provide(ProvideSwarm),
		fx.Invoke(func(lc fx.Lifecycle, s *Swarm) {
			lc.Append(fx.StopHook(func(context.Context) error {
				return s.Close()
			}))
		}),
	)
}
