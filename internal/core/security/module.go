// Package security 组装安全传输
//
// 子包 noise 与 tls 各实现一种握手，本包按配置的优先顺序提供它们。
// 出站协商按该顺序尝试，入站接受其中任意一种。
package security

import (
	"fmt"

	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/internal/core/identity"
	"github.com/dep2p/go-dep2p-ping/internal/core/security/noise"
	"github.com/dep2p/go-dep2p-ping/internal/core/security/tls"
	pkgif "github.com/dep2p/go-dep2p-ping/pkg/interfaces"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
)

var logger = log.Logger("core/security")

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config   *config.Config
	Identity *identity.Identity
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	// Transports 按优先顺序排列
	Transports []pkgif.SecureTransport

	// TLSIdentity 证书配置源，QUIC 传输复用
	TLSIdentity *tls.Identity
}

// NewTransports 按配置顺序创建安全传输
func NewTransports(cfg config.SecurityConfig, id *identity.Identity) ([]pkgif.SecureTransport, *tls.Identity, error) {
	tlsTr, err := tls.New(id)
	if err != nil {
		return nil, nil, err
	}

	var out []pkgif.SecureTransport
	for _, name := range cfg.Order() {
		switch name {
		case "tls":
			out = append(out, tlsTr)
		case "noise":
			n, err := noise.New(id)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, n)
		default:
			return nil, nil, fmt.Errorf("unknown security protocol %q", name)
		}
	}
	if len(out) == 0 {
		return nil, nil, config.ErrNoSecurity
	}
	return out, tlsTr.Identity(), nil
}

// ProvideTransports 提供安全传输列表
func ProvideTransports(in ModuleInput) (ModuleOutput, error) {
	trs, ti, err := NewTransports(in.Config.Security, in.Identity)
	if err != nil {
		return ModuleOutput{}, err
	}
	ids := make([]string, len(trs))
	for i, t := range trs {
		ids[i] = t.ID()
	}
	logger.Debug("安全传输就绪", "order", ids)
	return ModuleOutput{Transports: trs, TLSIdentity: ti}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("security",
		fx.Provide(ProvideTransports),
	)
}
