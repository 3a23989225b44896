// Package transport 按配置组装传输层
package transport

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	"github.com/dep2p/go-dep2p-ping/internal/core/security/tls"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport/memory"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport/quic"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport/tcp"
	"github.com/dep2p/go-dep2p-ping/internal/core/transport/websocket"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// Manager 持有已启用的传输
type Manager struct {
	transports []pkgif.Transport
}

// NewManager 按配置创建传输
//
// 顺序决定拨号时的匹配优先级：WebSocket 地址需先于 TCP 判定。
func NewManager(cfg config.TransportConfig, id *identity.Identity, ti *tls.Identity, upgrader pkgif.Upgrader) *Manager {
	m := &Manager{}
	if cfg.EnableWebSocket {
		m.transports = append(m.transports, websocket.New(upgrader))
	}
	if cfg.EnableTCP {
		m.transports = append(m.transports, tcp.New(cfg.TCP, upgrader))
	}
	if cfg.EnableQUIC {
		m.transports = append(m.transports, quic.New(id.PeerID(), ti))
	}
	if cfg.EnableMemory {
		m.transports = append(m.transports, memory.New(upgrader))
	}
	logger.Debug("传输已创建",
		"tcp", cfg.EnableTCP,
		"quic", cfg.EnableQUIC,
		"ws", cfg.EnableWebSocket,
		"memory", cfg.EnableMemory)
	return m
}

// Transports 返回全部传输
func (m *Manager) Transports() []pkgif.Transport {
	return m.transports
}

// Close 关闭全部传输
func (m *Manager) Close() error {
	var err error
	for _, t := range m.transports {
		err = multierr.Append(err, t.Close())
	}
	return err
}

// ============================================================================
//                              Fx 模块
// ============================================================================

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config      *config.Config
	Identity    *identity.Identity
	TLSIdentity *tls.Identity
	Upgrader    pkgif.Upgrader
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Manager    *Manager
	Transports []pkgif.Transport
}

// ProvideTransports 提供传输列表
func ProvideTransports(in ModuleInput) ModuleOutput {
	m := NewManager(in.Config.Transport, in.Identity, in.TLSIdentity, in.Upgrader)
	return ModuleOutput{Manager: m, Transports: m.Transports()}
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideTransports),
		fx.Invoke(func(lc fx.Lifecycle, m *Manager) {
			lc.Append(fx.StopHook(func(context.Context) error {
				return m.Close()
			}))
		}),
	)
}
