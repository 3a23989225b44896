package muxer

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
)

// ProvideMuxer 从统一配置创建多路复用器
func ProvideMuxer(cfg *config.Config) pkgif.StreamMuxer {
	return NewTransport(cfg.Muxer)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("muxer",
		fx.Provide(ProvideMuxer),
	)
}
