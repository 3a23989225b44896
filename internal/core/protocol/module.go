package protocol

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
)

// Module 返回 fx 模块配置
//
// 提供 Router 并将其设为 Swarm 的入站流处理器。
func Module() fx.Option {
	return fx.Module("protocol",
		fx.Provide(NewRouter),
		fx.Invoke(func(r *Router, s *swarm.Swarm) {
			s.SetStreamHandler(r.HandleStream)
		}),
	)
}
