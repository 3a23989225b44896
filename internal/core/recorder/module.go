package recorder

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/dispatcher"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	LC     fx.Lifecycle
	Config *config.Config
	Clock  clock.Clock `optional:"true"`
}

// ProvideSink 提供事件记录器
//
// 关闭钩子在构造时注册，早于分发器的钩子，因此文件在分发器排空之后才关闭。
func ProvideSink(in ModuleInput) (*Sink, error) {
	s, err := NewSink(in.Config.EventLog.Path, in.Clock)
	if err != nil {
		return nil, err
	}
	in.LC.Append(fx.StopHook(s.Close))
	return s, nil
}

// Module 返回 fx 模块配置，仅在配置了事件日志路径时加入应用
func Module() fx.Option {
	return fx.Module("recorder",
		fx.Provide(
			ProvideSink,
			dispatcher.AsSink(func(s *Sink) *Sink { return s }),
		),
	)
}
