package ping

import "errors"

var (
	// ErrMalformedEcho 回显内容与发送的负载不一致
	ErrMalformedEcho = errors.New("ping: malformed echo")

	// ErrInvalidConfig 探测配置无效
	ErrInvalidConfig = errors.New("ping: invalid config")
)
