package metrics

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/dispatcher"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
)

// Module 返回 fx 模块配置
//
// 始终收集指标；配置启用时才启动 HTTP 端点。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(
			NewBandwidthCounter,
			func(bw *BandwidthCounter) swarm.BandwidthReporter { return bw },
			NewSink,
			dispatcher.AsSink(func(s *Sink) *Sink { return s }),
		),
		fx.Invoke(registerServer),
	)
}

func registerServer(lc fx.Lifecycle, cfg *config.Config, s *Sink) {
	if !cfg.Metrics.Enabled {
		return
	}
	srv := NewServer(cfg.Metrics, s.Registry())
	lc.Append(fx.Hook{OnStart: srv.Start, OnStop: srv.Stop})
}
