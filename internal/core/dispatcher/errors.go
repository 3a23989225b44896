package dispatcher

import "errors"

var (
	// ErrUnknownEvent 事件类型不在 SwarmEvent 联合类型内
	ErrUnknownEvent = errors.New("dispatcher: unknown event type")

	// ErrNilSource 事件源为空
	ErrNilSource = errors.New("dispatcher: nil event source")

	// ErrSinkPanic Sink 处理事件时 panic
	ErrSinkPanic = errors.New("dispatcher: sink panicked")
)
