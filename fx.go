package dep2p

import (
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-dep2p-ping/internal/core/dispatcher"
	"github.com/dep2p/go-dep2p-ping/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	"github.com/dep2p/go-dep2p-ping/internal/core/metrics"
	"github.com/dep2p/go-dep2p-ping/internal/core/muxer"
	"github.com/dep2p/go-dep2p-ping/internal/core/protocol"
	"github.com/dep2p/go-dep2p-ping/internal/core/protocol/ping"
	"github.com/dep2p/go-dep2p-ping/internal/core/recorder"
	"github.com/dep2p/go-dep2p-ping/internal/core/security"
	"github.com/dep2p/go-dep2p-ping/internal/core/swarm"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport"
	"github.com/dep2p/go-dep2p-ping/internal/core/upgrader"
	"github.com/dep2p/go-dep2p-ping/internal/debug/introspect"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
)

// buildFxApp 构建 Fx 应用
//
// 模块顺序决定停止顺序（逆序执行 OnStop）：
//  1. 事件：eventbus → dispatcher（含各 Sink）
//  2. 传输：security → muxer → upgrader → transport
//  3. 连接与协议：swarm → protocol → ping
//  4. 诊断：introspect
//
// 停止时 Swarm 先关闭全部连接，随后传输关闭，最后分发器排空队列，
// 关闭过程中产生的事件因此都会到达 Sink。
func buildFxApp(o *options, n *Node) (*fx.App, error) {
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	modules := []fx.Option{
		fx.Supply(o.config),
		identity.Module(),
		eventbus.Module(),
		dispatcher.Module(),
		metrics.Module(),
	}
	if key := o.privateKey; key != nil {
		modules = append(modules, fx.Provide(func() crypto.PrivateKey { return key }))
	}
	if clk := o.clock; clk != nil {
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}
	if o.config.EventLog.Path != "" {
		modules = append(modules, recorder.Module())
	}
	for _, s := range o.sinks {
		modules = append(modules, fx.Provide(dispatcher.AsSink(func() Sink { return s })))
	}

	modules = append(modules,
		security.Module(),
		muxer.Module(),
		upgrader.Module(),
		transport.Module(),
		swarm.Module(),
		protocol.Module(),
		ping.Module(),
		introspect.Module(),
	)

	modules = append(modules, o.fxOptions...)
	modules = append(modules,
		fx.Populate(&n.identity, &n.swarm, &n.ping, &n.router),
		fx.WithLogger(fxLogger),
	)
	return fx.New(modules...), nil
}

// fxLogger fx 自身的生命周期日志，fx 子系统为 debug 时输出
func fxLogger() fxevent.Logger {
	if log.CurrentConfig().LevelForSubsystem("fx") > slog.LevelDebug {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return &fxevent.ZapLogger{Logger: zap.NewNop()}
	}
	return &fxevent.ZapLogger{Logger: l}
}
