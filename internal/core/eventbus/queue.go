// Package eventbus 提供有序、无界的 SwarmEvent 队列
//
// 所有组件通过同一个 Queue 发出事件，分发器是唯一的消费者。
// Emit 永不阻塞也不丢弃事件；事件按发出顺序被消费。
package eventbus

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/eventbus")

// ErrClosed 队列已关闭且已取空
var ErrClosed = errors.New("eventbus closed")

// Emitter 事件发出方
type Emitter interface {
	Emit(ev types.SwarmEvent)
}

// Queue 无界 FIFO 事件队列
type Queue struct {
	mu     sync.Mutex
	items  []types.SwarmEvent
	head   int
	closed bool

	// signal 有新事件或关闭时非阻塞写入
	signal chan struct{}
}

var _ Emitter = (*Queue)(nil)

// NewQueue 创建事件队列
func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Emit 追加事件，关闭后的事件被忽略
func (q *Queue) Emit(ev types.SwarmEvent) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		logger.Debug("队列已关闭，忽略事件", "kind", ev.Kind())
		return
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()
	q.notify()
}

// Next 阻塞直到取出下一个事件
//
// 关闭后仍会先返回剩余事件，取空后返回 ErrClosed。
func (q *Queue) Next(ctx context.Context) (types.SwarmEvent, error) {
	for {
		q.mu.Lock()
		if q.head < len(q.items) {
			ev := q.items[q.head]
			q.items[q.head] = nil
			q.head++
			if q.head == len(q.items) {
				q.items = q.items[:0]
				q.head = 0
			}
			more := q.head < len(q.items)
			q.mu.Unlock()
			if more {
				q.notify()
			}
			return ev, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}

		select {
		case <-q.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len 返回待消费事件数
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Close 关闭队列，唤醒等待中的 Next
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.notify()
}

func (q *Queue) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// ============================================================================
//                              Fx 模块
// ============================================================================

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(
			NewQueue,
			func(q *Queue) Emitter { return q },
		),
	)
}
