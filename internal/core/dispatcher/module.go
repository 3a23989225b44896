package dispatcher

import (
	"context"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/internal/core/eventbus"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Queue *eventbus.Queue
	Sinks []Sink `group:"sinks"`
}

// ProvideDispatcher 提供分发器
func ProvideDispatcher(in ModuleInput) (*Dispatcher, error) {
	return New(in.Queue, in.Sinks...)
}

// AsSink 将构造函数的结果注册到 sinks 组
func AsSink(f any) any {
	return fx.Annotate(f, fx.As(new(Sink)), fx.ResultTags(`group:"sinks"`))
}

// Module 返回 fx 模块配置
//
// 启动时在后台运行分发循环；停止时关闭事件队列，排空剩余事件后返回。
// 本模块需排在 swarm 模块之前，使其停止钩子晚于 Swarm 执行，
// 从而记录关闭过程中产生的 ConnectionClosed 与 ListenerClosed。
func Module() fx.Option {
	return fx.Module("dispatcher",
		fx.Provide(
			ProvideDispatcher,
			AsSink(NewLogSink),
		),
		fx.Invoke(func(lc fx.Lifecycle, d *Dispatcher, q *eventbus.Queue) {
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						if err := d.Run(context.Background()); err != nil {
							logger.Warn("分发循环异常退出", "error", err)
						}
					}()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					q.Close()
					select {
					case <-done:
						return nil
					case <-ctx.Done():
						return ctx.Err()
					}
				},
			})
		}),
	)
}
