package ping

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/protocol"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/pkg/protocolids"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config
	Clock  clock.Clock `optional:"true"`
}

// ProvideService 提供 Ping 服务
func ProvideService(in ModuleInput) (*Service, error) {
	return NewService(in.Config.Ping, in.Clock)
}

// Module 返回 fx 模块配置
//
// 注册回显处理器，并订阅 Swarm 连接通知以启动探测。
func Module() fx.Option {
	return fx.Module("ping",
		fx.Provide(ProvideService),
		fx.Invoke(func(svc *Service, r *protocol.Router, s *swarm.Swarm) error {
			if err := r.Handle(protocolids.Ping, svc.Handler); err != nil {
				return err
			}
			s.Notify(svc)
			return nil
		}),
	)
}
