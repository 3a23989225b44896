// Package dispatcher 消费 Swarm 事件并分发给各 Sink
//
// Dispatcher 是节点中唯一产生报告副作用的组件：日志、指标与事件记录
// 都以 Sink 的形式挂在它上面。
package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/dep2p/go-dep2p-ping/internal/core/eventbus"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/dispatcher")

// Source 事件源
type Source interface {
	Next(ctx context.Context) (types.SwarmEvent, error)
}

// Dispatcher 事件分发器
type Dispatcher struct {
	src   Source
	sinks []Sink
}

// New 创建分发器
func New(src Source, sinks ...Sink) (*Dispatcher, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	return &Dispatcher{src: src, sinks: sinks}, nil
}

// Run 循环取出事件并分发，直到 ctx 取消或事件源关闭
//
// ctx 取消时返回 ctx.Err()；事件源关闭且已排空时返回 nil。
func (d *Dispatcher) Run(ctx context.Context) error {
	logger.Debug("分发器启动", "sinks", len(d.sinks))
	for {
		ev, err := d.src.Next(ctx)
		if err != nil {
			if errors.Is(err, eventbus.ErrClosed) {
				logger.Debug("事件源已关闭，分发器退出")
				return nil
			}
			return err
		}
		d.dispatch(ev)
	}
}

func (d *Dispatcher) dispatch(ev types.SwarmEvent) {
	for _, s := range d.sinks {
		if err := safeDeliver(s, ev); err != nil {
			logger.Warn("Sink 处理事件失败",
				"sink", fmt.Sprintf("%T", s),
				"event", ev.Kind(),
				"error", err)
		}
	}
}

// safeDeliver 调用 Deliver，Sink 的 panic 转换为 ErrSinkPanic
func safeDeliver(s Sink, ev types.SwarmEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, r)
		}
	}()
	return Deliver(s, ev)
}

// Deliver 按事件变体调用 Sink 的对应方法
func Deliver(s Sink, ev types.SwarmEvent) error {
	switch e := ev.(type) {
	case types.ListenAddressReported:
		return s.ListenAddressReported(e)
	case types.ListenerClosed:
		return s.ListenerClosed(e)
	case types.ConnectionEstablished:
		return s.ConnectionEstablished(e)
	case types.ConnectionClosed:
		return s.ConnectionClosed(e)
	case types.ProtocolEvent:
		return s.ProtocolEvent(e)
	case types.DialError:
		return s.DialError(e)
	case types.IncomingConnectionError:
		return s.IncomingConnectionError(e)
	case types.ListenError:
		return s.ListenError(e)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}
