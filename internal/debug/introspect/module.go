package introspect

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/dispatcher"
	"github.com/dep2p/go-dep2p-ping/internal/core/metrics"
	"github.com/dep2p/go-dep2p-ping/internal/core/protocol"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config    *config.Config
	Swarm     *swarm.Swarm
	Router    *protocol.Router
	Bandwidth *metrics.BandwidthCounter `optional:"true"`
}

// ProvideServer 提供自省服务
//
// 服务总是作为 Sink 接收事件；HTTP 端点仅在配置启用时启动。
func ProvideServer(in ModuleInput) *Server {
	var bw BandwidthSource
	if in.Bandwidth != nil {
		bw = in.Bandwidth
	}
	return New(in.Config.Diagnostics.IntrospectAddr, in.Swarm, in.Router, bw)
}

// Module 返回自省服务 fx 模块
func Module() fx.Option {
	return fx.Module("introspect",
		fx.Provide(
			ProvideServer,
			dispatcher.AsSink(func(s *Server) *Server { return s }),
		),
		fx.Invoke(registerLifecycle),
	)
}

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, s *Server) {
	if !cfg.Diagnostics.EnableIntrospect {
		return
	}
	lc.Append(fx.Hook{OnStart: s.Start, OnStop: s.Stop})
}
