package types

import "time"

// PingFailure ping 失败分类
type PingFailure int

const (
	// PingOK 成功
	PingOK PingFailure = iota
	// PingTimeout 超时未收到回显
	PingTimeout
	// PingStreamReset 流被重置
	PingStreamReset
	// PingMalformedEcho 回显内容不一致
	PingMalformedEcho
	// PingUnsupported 对端不支持 ping 协议，不再重试
	PingUnsupported
	// PingIO 其他 I/O 错误
	PingIO
)

// String 返回失败分类名
func (f PingFailure) String() string {
	switch f {
	case PingOK:
		return "ok"
	case PingTimeout:
		return "timeout"
	case PingStreamReset:
		return "stream-reset"
	case PingMalformedEcho:
		return "malformed-echo"
	case PingUnsupported:
		return "unsupported-protocol"
	case PingIO:
		return "io"
	default:
		return "unknown"
	}
}

// PingOutcome 一次 ping 的结果
//
// 成功时 Err 为 nil 且 RTT > 0；失败时 Failure 标明分类。
type PingOutcome struct {
	RTT     time.Duration
	Failure PingFailure
	Err     error
}

// OK 是否成功
func (o PingOutcome) OK() bool {
	return o.Err == nil
}
