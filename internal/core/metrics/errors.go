package metrics

import "errors"

var (
	// ErrServerStarted 指标服务已启动
	ErrServerStarted = errors.New("metrics: server already started")
)
