package identity

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-dep2p-ping/config"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config

	// PrivateKey 外部注入的私钥（可选），优先于生成
	PrivateKey crypto.PrivateKey `optional:"true"`
}

// ProvideIdentity 提供节点身份
func ProvideIdentity(in ModuleInput) (*Identity, error) {
	if in.PrivateKey != nil {
		return FromPrivateKey(in.PrivateKey)
	}
	kt, err := crypto.ParseKeyType(in.Config.Identity.KeyType)
	if err != nil {
		return nil, err
	}
	id, err := Generate(kt)
	if err != nil {
		return nil, err
	}
	logger.Info("生成节点身份", "peer", id.PeerID(), "keyType", kt)
	return id, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideIdentity),
	)
}
