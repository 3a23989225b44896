package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/minio/sha256-simd"
)

// Secp256k1PrivateKey Secp256k1 私钥
type Secp256k1PrivateKey struct {
	k *secp256k1.PrivateKey
}

// Secp256k1PublicKey Secp256k1 公钥，Raw 为 33 字节压缩格式
type Secp256k1PublicKey struct {
	k *secp256k1.PublicKey
}

// GenerateSecp256k1Key 生成 Secp256k1 密钥对
func GenerateSecp256k1Key() (PrivateKey, PublicKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	k := &Secp256k1PrivateKey{k: priv}
	return k, k.GetPublic(), nil
}

// UnmarshalSecp256k1PrivateKey 从 32 字节标量恢复私钥
func UnmarshalSecp256k1PrivateKey(data []byte) (PrivateKey, error) {
	if len(data) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: secp256k1 private key length %d", ErrInvalidKeySize, len(data))
	}
	return &Secp256k1PrivateKey{k: secp256k1.PrivKeyFromBytes(data)}, nil
}

// UnmarshalSecp256k1PublicKey 从压缩或非压缩格式恢复公钥
func UnmarshalSecp256k1PublicKey(data []byte) (PublicKey, error) {
	pk, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return &Secp256k1PublicKey{k: pk}, nil
}

func (k *Secp256k1PrivateKey) Type() KeyType { return KeyTypeSecp256k1 }

func (k *Secp256k1PrivateKey) Raw() ([]byte, error) {
	return k.k.Serialize(), nil
}

func (k *Secp256k1PrivateKey) Equals(o Key) bool { return KeyEqual(k, o) }

// Sign 对 SHA256(data) 做 ECDSA 签名，输出 DER 编码
func (k *Secp256k1PrivateKey) Sign(data []byte) ([]byte, error) {
	hash := sha256.Sum256(data)
	return ecdsa.Sign(k.k, hash[:]).Serialize(), nil
}

func (k *Secp256k1PrivateKey) GetPublic() PublicKey {
	return &Secp256k1PublicKey{k: k.k.PubKey()}
}

func (k *Secp256k1PublicKey) Type() KeyType { return KeyTypeSecp256k1 }

func (k *Secp256k1PublicKey) Raw() ([]byte, error) {
	return k.k.SerializeCompressed(), nil
}

func (k *Secp256k1PublicKey) Equals(o Key) bool { return KeyEqual(k, o) }

func (k *Secp256k1PublicKey) Verify(data, sigDER []byte) (bool, error) {
	sig, err := ecdsa.ParseDERSignature(sigDER)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	hash := sha256.Sum256(data)
	return sig.Verify(hash[:], k.k), nil
}
