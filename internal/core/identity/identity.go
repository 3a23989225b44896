// Package identity 提供节点身份
//
// 身份由一对非对称密钥和由公钥派生的 PeerID 组成，创建后不可变。
package identity

import (
	"fmt"

	"github.com/dep2p/go-dep2p-ping/pkg/lib/crypto"
	"github.com/dep2p/go-dep2p-ping/pkg/lib/log"
	"github.com/dep2p/go-dep2p-ping/pkg/types"
)

var logger = log.Logger("core/identity")

// Identity 节点身份
type Identity struct {
	priv   crypto.PrivateKey
	pub    crypto.PublicKey
	peerID types.PeerID
}

// Generate 生成新身份
//
// 熵源失败时返回错误，调用方应视为致命错误。
func Generate(kt crypto.KeyType) (*Identity, error) {
	priv, _, err := crypto.GenerateKeyPair(kt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGenerateKey, err)
	}
	return FromPrivateKey(priv)
}

// FromPrivateKey 从已有私钥创建身份
func FromPrivateKey(priv crypto.PrivateKey) (*Identity, error) {
	if priv == nil {
		return nil, ErrNilPrivateKey
	}
	pub := priv.GetPublic()
	id, err := crypto.PeerIDFromPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToDerivePeerID, err)
	}
	return &Identity{priv: priv, pub: pub, peerID: id}, nil
}

// PeerID 返回节点 ID
func (i *Identity) PeerID() types.PeerID {
	return i.peerID
}

// PublicKey 返回公钥
func (i *Identity) PublicKey() crypto.PublicKey {
	return i.pub
}

// PrivateKey 返回私钥
func (i *Identity) PrivateKey() crypto.PrivateKey {
	return i.priv
}

// KeyType 返回密钥类型
func (i *Identity) KeyType() crypto.KeyType {
	return i.priv.Type()
}

// Sign 签名数据
func (i *Identity) Sign(data []byte) ([]byte, error) {
	return i.priv.Sign(data)
}
