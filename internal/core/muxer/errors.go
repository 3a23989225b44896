package muxer

import (
	"errors"
	"fmt"

	"github.com/libp2p/go-yamux/v5"
)

var (
	// ErrStreamReset 流被对端或本端重置
	ErrStreamReset = errors.New("stream reset")

	// ErrConnClosed 会话已关闭
	ErrConnClosed = errors.New("connection closed")
)

// parseError 将 yamux 错误转换为本包错误，保留原始错误链
func parseError(err error) error {
	if err == nil {
		return nil
	}
	// 会话关闭的 GoAwayError 同时匹配 yamux.ErrStreamReset，须先判断
	var goAway *yamux.GoAwayError
	if errors.As(err, &goAway) {
		return fmt.Errorf("%w: %w", ErrConnClosed, err)
	}
	if errors.Is(err, yamux.ErrStreamReset) {
		return fmt.Errorf("%w: %w", ErrStreamReset, err)
	}
	return err
}
